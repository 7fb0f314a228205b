package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/repair-match-api/internal/geo"
	"github.com/repair-match-api/internal/model"
	"github.com/repair-match-api/internal/repository"
)

// AssignmentCode classifies the outcome of an assignment attempt. These are
// expected business outcomes, not errors; hard failures surface as Go errors.
type AssignmentCode string

const (
	// CodeAssigned means a provider was bound to the request
	CodeAssigned AssignmentCode = "assigned"

	// CodeNoCandidates means no provider is registered for the category
	CodeNoCandidates AssignmentCode = "no_candidates"

	// CodeNoneInRange means providers exist but none covers the request location
	CodeNoneInRange AssignmentCode = "none_in_range"

	// CodeRaceLost means a concurrent invocation assigned the request first
	CodeRaceLost AssignmentCode = "race_lost"
)

// AssignedProvider describes the provider bound by a successful assignment
type AssignedProvider struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance"`
}

// AssignmentResult is the outcome of one assignment pipeline invocation
type AssignmentResult struct {
	Code      AssignmentCode    `json:"code"`
	RequestID string            `json:"request_id"`
	Message   string            `json:"message"`
	Provider  *AssignedProvider `json:"provider,omitempty"`
}

// Assigned reports whether the pipeline bound a provider
func (r *AssignmentResult) Assigned() bool {
	return r.Code == CodeAssigned
}

// BatchAssignmentResult is the outcome of assigning pending requests after a
// provider becomes available
type BatchAssignmentResult struct {
	ProviderID    string `json:"provider_id"`
	Evaluated     int    `json:"evaluated"`
	AssignedCount int    `json:"assigned_count"`
}

// AssignmentService runs the resolver -> ranking -> transaction -> emitter
// pipeline that binds providers to pending service requests
type AssignmentService struct {
	requests      RequestStore
	providers     ProviderStore
	notifications NotificationStore
	cache         *CandidateCache
	logger        *zap.Logger
}

// NewAssignmentService creates a new assignment service. cache may be nil,
// in which case candidate lookups always hit the store.
func NewAssignmentService(
	requests RequestStore,
	providers ProviderStore,
	notifications NotificationStore,
	cache *CandidateCache,
	logger *zap.Logger,
) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AssignmentService{
		requests:      requests,
		providers:     providers,
		notifications: notifications,
		cache:         cache,
		logger:        logger,
	}
}

// AssignRequest runs the assignment pipeline once for a single request.
// Expected outcomes (no candidates, none in range, race lost) come back in
// the result; a missing request or a store failure comes back as an error.
func (s *AssignmentService) AssignRequest(ctx context.Context, requestID string) (*AssignmentResult, error) {
	req, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	// Fast path for requests already assigned or closed. The conditional
	// write below remains the real concurrency guard; this only avoids
	// resolving candidates for a request that cannot be assigned anymore.
	if req.Status != model.StatusPending || req.ProviderID != nil {
		return s.raceLost(requestID), nil
	}

	rows, registered, err := s.lookupCandidates(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	if registered == 0 {
		s.logger.Info("no providers registered for category",
			zap.String("request_id", requestID),
			zap.String("category_id", req.CategoryID))
		return &AssignmentResult{
			Code:      CodeNoCandidates,
			RequestID: requestID,
			Message:   "no providers available",
		}, nil
	}

	origin := geo.Point{Latitude: req.Latitude, Longitude: req.Longitude}
	ranked := RankCandidates(rows, origin)

	if len(ranked) == 0 {
		s.notifyAdminsNoMatch(ctx, req)
		return &AssignmentResult{
			Code:      CodeNoneInRange,
			RequestID: requestID,
			Message:   "no providers within range",
		}, nil
	}

	best := ranked[0]
	notes := fmt.Sprintf("Assigned provider %s at %.1f km", best.Name, best.DistanceKm)

	_, err = s.requests.AssignProvider(ctx, req.ID, best.ProviderID, notes)
	if err != nil {
		if errors.Is(err, repository.ErrAssignmentConflict) {
			// Another invocation won the conditional write. Do not notify
			// and do not retry with the next-ranked candidate; the caller
			// re-fetches and decides.
			s.logger.Info("lost assignment race",
				zap.String("request_id", requestID),
				zap.String("provider_id", best.ProviderID))
			return s.raceLost(requestID), nil
		}
		return nil, err
	}

	// Notifications go out only after the assignment has committed, so a
	// notification failure is a deferred delivery problem, never a
	// corrupted assignment.
	s.notifyAssignment(ctx, req, best)

	s.logger.Info("request assigned",
		zap.String("request_id", requestID),
		zap.String("provider_id", best.ProviderID),
		zap.Float64("distance_km", best.DistanceKm))

	return &AssignmentResult{
		Code:      CodeAssigned,
		RequestID: requestID,
		Message:   fmt.Sprintf("assigned to provider %s", best.Name),
		Provider: &AssignedProvider{
			ID:         best.ProviderID,
			Name:       best.Name,
			DistanceKm: best.DistanceKm,
		},
	}, nil
}

// AssignPendingForProvider runs the assignment pipeline for every pending
// request in the categories a newly available provider offers. Each request
// gets a full pipeline run, so the nearest eligible provider wins even if it
// is not the one that just became available.
func (s *AssignmentService) AssignPendingForProvider(ctx context.Context, providerID string) (*BatchAssignmentResult, error) {
	if _, err := s.providers.GetProviderProfile(ctx, providerID); err != nil {
		return nil, err
	}

	categories, err := s.providers.ListProviderCategories(ctx, providerID)
	if err != nil {
		return nil, err
	}

	pending, err := s.requests.ListPendingByCategories(ctx, categories)
	if err != nil {
		return nil, err
	}

	result := &BatchAssignmentResult{
		ProviderID: providerID,
		Evaluated:  len(pending),
	}

	for _, req := range pending {
		res, err := s.AssignRequest(ctx, req.ID)
		if err != nil {
			s.logger.Error("batch assignment failed for request",
				zap.String("request_id", req.ID), zap.Error(err))
			continue
		}
		if res.Assigned() {
			result.AssignedCount++
		}
	}

	return result, nil
}

// SetProviderAvailability flips a provider's availability flag, drops the
// affected candidate cache entries, and, when the provider turns available,
// runs the batch pipeline for their categories. The batch result is nil when
// turning unavailable.
func (s *AssignmentService) SetProviderAvailability(ctx context.Context, providerID string, available bool) (*BatchAssignmentResult, error) {
	if err := s.providers.SetAvailability(ctx, providerID, available); err != nil {
		return nil, err
	}

	categories, err := s.providers.ListProviderCategories(ctx, providerID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, categories...)

	if !available {
		return nil, nil
	}

	return s.AssignPendingForProvider(ctx, providerID)
}

func (s *AssignmentService) lookupCandidates(ctx context.Context, categoryID string) ([]repository.CandidateRow, int, error) {
	if rows, registered, ok := s.cache.Get(ctx, categoryID); ok {
		return rows, registered, nil
	}

	rows, registered, err := s.providers.FindCandidates(ctx, categoryID)
	if err != nil {
		return nil, 0, err
	}

	s.cache.Set(ctx, categoryID, rows, registered)
	return rows, registered, nil
}

func (s *AssignmentService) raceLost(requestID string) *AssignmentResult {
	return &AssignmentResult{
		Code:      CodeRaceLost,
		RequestID: requestID,
		Message:   "request already assigned",
	}
}

func (s *AssignmentService) notifyAssignment(ctx context.Context, req *model.ServiceRequest, best Candidate) {
	resident := &model.Notification{
		RecipientID: req.RequesterID,
		Type:        model.NotificationTypeRequestAssigned,
		Title:       "Provider assigned",
		Message:     fmt.Sprintf("Your request has been assigned to provider %s", best.Name),
		Payload: model.Payload{
			"provider_id": best.ProviderID,
			"distance_km": best.DistanceKm,
		},
		ReferenceID: req.ID,
	}
	if err := s.notifications.CreateNotification(ctx, resident); err != nil {
		s.logger.Error("failed to notify resident",
			zap.String("request_id", req.ID), zap.Error(err))
	}

	provider := &model.Notification{
		RecipientID: best.ProviderID,
		Type:        model.NotificationTypeJobAssigned,
		Title:       "New job assignment",
		Message:     "You have been assigned a new service request",
		Payload: model.Payload{
			"category_id": req.CategoryID,
			"distance_km": best.DistanceKm,
		},
		ReferenceID: req.ID,
	}
	if err := s.notifications.CreateNotification(ctx, provider); err != nil {
		s.logger.Error("failed to notify provider",
			zap.String("request_id", req.ID), zap.Error(err))
	}
}

// notifyAdminsNoMatch fans out one warning per admin as a single batch
// insert. A delivery failure is logged but does not change the outcome;
// "none in range" is an expected result, not a system error.
func (s *AssignmentService) notifyAdminsNoMatch(ctx context.Context, req *model.ServiceRequest) {
	admins, err := s.providers.ListAdminIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list admins",
			zap.String("request_id", req.ID), zap.Error(err))
		return
	}
	if len(admins) == 0 {
		return
	}

	notifications := make([]*model.Notification, 0, len(admins))
	for _, adminID := range admins {
		notifications = append(notifications, &model.Notification{
			RecipientID: adminID,
			Type:        model.NotificationTypeNoProviderFound,
			Title:       "No provider in range",
			Message:     fmt.Sprintf("No provider within range for request %s", req.ID),
			Payload: model.Payload{
				"category_id": req.CategoryID,
			},
			ReferenceID: req.ID,
		})
	}

	if err := s.notifications.CreateNotificationBatch(ctx, notifications); err != nil {
		s.logger.Error("failed to notify admins",
			zap.String("request_id", req.ID), zap.Error(err))
	}
}
