package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/repair-match-api/internal/model"
	"github.com/repair-match-api/internal/repository"
)

// fakeRequestStore is an in-memory RequestStore mirroring the repository's
// transactional semantics, including the conditional assignment write.
type fakeRequestStore struct {
	mu       sync.Mutex
	seq      int
	requests map[string]*model.ServiceRequest
	history  map[string][]model.StatusHistory
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{
		requests: map[string]*model.ServiceRequest{},
		history:  map[string][]model.StatusHistory{},
	}
}

func (f *fakeRequestStore) appendHistory(requestID string, status model.RequestStatus, changedBy, notes string) {
	f.history[requestID] = append(f.history[requestID], model.StatusHistory{
		ID:        fmt.Sprintf("h-%d", len(f.history[requestID])+1),
		RequestID: requestID,
		Status:    status,
		ChangedBy: changedBy,
		Notes:     notes,
		CreatedAt: time.Now(),
	})
}

func (f *fakeRequestStore) CreateRequest(_ context.Context, req *model.ServiceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.RequesterID == "" || req.CategoryID == "" {
		return repository.ErrInvalidData
	}

	if req.ID == "" {
		f.seq++
		req.ID = fmt.Sprintf("req-%d", f.seq)
	}
	now := time.Now()
	req.Status = model.StatusPending
	req.CreatedAt = now
	req.UpdatedAt = now

	clone := *req
	f.requests[req.ID] = &clone
	f.appendHistory(req.ID, model.StatusPending, req.RequesterID, "Request created")
	return nil
}

func (f *fakeRequestStore) GetRequestByID(_ context.Context, requestID string) (*model.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[requestID]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

func (f *fakeRequestStore) AssignProvider(_ context.Context, requestID, providerID, notes string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[requestID]
	if !ok {
		return time.Time{}, repository.ErrRequestNotFound
	}
	if req.Status != model.StatusPending || req.ProviderID != nil {
		return time.Time{}, repository.ErrAssignmentConflict
	}

	now := time.Now()
	req.ProviderID = &providerID
	req.Status = model.StatusAssigned
	if req.AssignedAt == nil {
		req.AssignedAt = &now
	}
	req.UpdatedAt = now
	f.appendHistory(requestID, model.StatusAssigned, "system", notes)
	return *req.AssignedAt, nil
}

func (f *fakeRequestStore) UpdateRequestStatus(_ context.Context, requestID string, status model.RequestStatus, changedBy, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[requestID]
	if !ok {
		return repository.ErrRequestNotFound
	}
	if !req.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, req.Status, status)
	}

	now := time.Now()
	req.Status = status
	req.UpdatedAt = now
	if status == model.StatusCompleted && req.CompletedAt == nil {
		req.CompletedAt = &now
	}
	f.appendHistory(requestID, status, changedBy, notes)
	return nil
}

func (f *fakeRequestStore) GetStatusHistory(_ context.Context, requestID string) ([]model.StatusHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.StatusHistory{}, f.history[requestID]...), nil
}

func (f *fakeRequestStore) ListPendingByCategories(_ context.Context, categoryIDs []string) ([]*model.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	categories := map[string]bool{}
	for _, id := range categoryIDs {
		categories[id] = true
	}

	result := []*model.ServiceRequest{}
	for _, req := range f.requests {
		if req.Status == model.StatusPending && req.ProviderID == nil && categories[req.CategoryID] {
			clone := *req
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (f *fakeRequestStore) listBy(match func(*model.ServiceRequest) bool, status model.RequestStatus) ([]*model.ServiceRequest, int) {
	result := []*model.ServiceRequest{}
	for _, req := range f.requests {
		if !match(req) {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		clone := *req
		result = append(result, &clone)
	}
	return result, len(result)
}

func (f *fakeRequestStore) ListRequesterRequests(_ context.Context, requesterID string, _, _ int, status model.RequestStatus) ([]*model.ServiceRequest, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	requests, total := f.listBy(func(r *model.ServiceRequest) bool { return r.RequesterID == requesterID }, status)
	return requests, total, nil
}

func (f *fakeRequestStore) ListProviderRequests(_ context.Context, providerID string, _, _ int, status model.RequestStatus) ([]*model.ServiceRequest, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	requests, total := f.listBy(func(r *model.ServiceRequest) bool {
		return r.ProviderID != nil && *r.ProviderID == providerID
	}, status)
	return requests, total, nil
}

// fakeProviderStore is an in-memory ProviderStore
type fakeProviderStore struct {
	mu         sync.Mutex
	candidates map[string][]repository.CandidateRow
	registered map[string]int
	profiles   map[string]*model.ProviderProfile
	categories map[string][]string
	admins     []string
}

func newFakeProviderStore() *fakeProviderStore {
	return &fakeProviderStore{
		candidates: map[string][]repository.CandidateRow{},
		registered: map[string]int{},
		profiles:   map[string]*model.ProviderProfile{},
		categories: map[string][]string{},
	}
}

func (f *fakeProviderStore) addCandidate(categoryID string, row repository.CandidateRow) {
	f.candidates[categoryID] = append(f.candidates[categoryID], row)
	f.registered[categoryID]++
}

func (f *fakeProviderStore) FindCandidates(_ context.Context, categoryID string) ([]repository.CandidateRow, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.CandidateRow{}, f.candidates[categoryID]...), f.registered[categoryID], nil
}

func (f *fakeProviderStore) GetProviderProfile(_ context.Context, providerID string) (*model.ProviderProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pp, ok := f.profiles[providerID]
	if !ok {
		return nil, repository.ErrProviderNotFound
	}
	clone := *pp
	return &clone, nil
}

func (f *fakeProviderStore) GetProfile(_ context.Context, profileID string) (*model.Profile, error) {
	return nil, repository.ErrProviderNotFound
}

func (f *fakeProviderStore) SetAvailability(_ context.Context, providerID string, available bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pp, ok := f.profiles[providerID]
	if !ok {
		return repository.ErrProviderNotFound
	}
	pp.IsAvailable = available
	return nil
}

func (f *fakeProviderStore) ListProviderCategories(_ context.Context, providerID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.categories[providerID]...), nil
}

func (f *fakeProviderStore) ListAdminIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.admins...), nil
}

// fakeNotificationStore records notifications in memory
type fakeNotificationStore struct {
	mu      sync.Mutex
	created []*model.Notification
	batches [][]*model.Notification
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{}
}

func (f *fakeNotificationStore) CreateNotification(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationStore) CreateNotificationBatch(_ context.Context, notifications []*model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, notifications)
	return nil
}

func (f *fakeNotificationStore) ListNotifications(_ context.Context, recipientID string, limit int) ([]*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*model.Notification{}
	for _, n := range f.created {
		if n.RecipientID == recipientID {
			result = append(result, n)
		}
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (f *fakeNotificationStore) byType(t model.NotificationType) []*model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*model.Notification{}
	for _, n := range f.created {
		if n.Type == t {
			result = append(result, n)
		}
	}
	return result
}
