package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/repair-match-api/internal/model"
)

// RequestService handles the lifecycle of service requests outside of
// assignment: creation, status transitions, and cancellation. Every
// transition appends exactly one history row and reuses the notification
// pattern the assignment pipeline establishes.
type RequestService struct {
	requests      RequestStore
	notifications NotificationStore
	logger        *zap.Logger
}

// NewRequestService creates a new request service
func NewRequestService(requests RequestStore, notifications NotificationStore, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RequestService{
		requests:      requests,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateRequestInput carries the fields a resident supplies for a new request
type CreateRequestInput struct {
	RequesterID string   `json:"requester_id"`
	CategoryID  string   `json:"category_id"`
	Description string   `json:"description"`
	PhotoURLs   []string `json:"photo_urls"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
}

// Validate checks the required fields
func (in *CreateRequestInput) Validate() error {
	if in.RequesterID == "" {
		return fmt.Errorf("requester_id is required")
	}
	if in.CategoryID == "" {
		return fmt.Errorf("category_id is required")
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		return fmt.Errorf("latitude out of range")
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return fmt.Errorf("longitude out of range")
	}
	return nil
}

// CreateRequest creates a new pending request with its initial history row
func (s *RequestService) CreateRequest(ctx context.Context, in *CreateRequestInput) (*model.ServiceRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	req := &model.ServiceRequest{
		RequesterID: in.RequesterID,
		CategoryID:  in.CategoryID,
		Description: in.Description,
		PhotoURLs:   in.PhotoURLs,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}

	if err := s.requests.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("request created",
		zap.String("request_id", req.ID),
		zap.String("category_id", req.CategoryID))

	return req, nil
}

// GetRequest gets a request by ID
func (s *RequestService) GetRequest(ctx context.Context, requestID string) (*model.ServiceRequest, error) {
	return s.requests.GetRequestByID(ctx, requestID)
}

// GetRequestHistory returns the status-history trail for a request
func (s *RequestService) GetRequestHistory(ctx context.Context, requestID string) ([]model.StatusHistory, error) {
	if _, err := s.requests.GetRequestByID(ctx, requestID); err != nil {
		return nil, err
	}
	return s.requests.GetStatusHistory(ctx, requestID)
}

// UpdateStatus transitions a request to in_progress or completed. Residents
// are notified on completion.
func (s *RequestService) UpdateStatus(ctx context.Context, requestID string, status model.RequestStatus, changedBy, notes string) (*model.ServiceRequest, error) {
	if status != model.StatusInProgress && status != model.StatusCompleted {
		return nil, fmt.Errorf("status %q cannot be set through this operation", status)
	}

	if err := s.requests.UpdateRequestStatus(ctx, requestID, status, changedBy, notes); err != nil {
		return nil, err
	}

	req, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if status == model.StatusCompleted {
		n := &model.Notification{
			RecipientID: req.RequesterID,
			Type:        model.NotificationTypeRequestCompleted,
			Title:       "Request completed",
			Message:     "Your service request has been completed",
			ReferenceID: req.ID,
		}
		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			s.logger.Error("failed to notify resident of completion",
				zap.String("request_id", req.ID), zap.Error(err))
		}
	}

	return req, nil
}

// CancelRequest cancels a pending or assigned request. When a provider was
// already assigned, it stays recorded on the request for audit and is
// notified of the cancellation.
func (s *RequestService) CancelRequest(ctx context.Context, requestID, cancelledBy, reason string) (*model.ServiceRequest, error) {
	before, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.requests.UpdateRequestStatus(ctx, requestID, model.StatusCancelled, cancelledBy, reason); err != nil {
		return nil, err
	}

	req, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if before.ProviderID != nil && *before.ProviderID != cancelledBy {
		n := &model.Notification{
			RecipientID: *before.ProviderID,
			Type:        model.NotificationTypeRequestCancelled,
			Title:       "Request cancelled",
			Message:     "A request assigned to you has been cancelled",
			ReferenceID: req.ID,
		}
		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			s.logger.Error("failed to notify provider of cancellation",
				zap.String("request_id", req.ID), zap.Error(err))
		}
	}

	if before.RequesterID != cancelledBy {
		n := &model.Notification{
			RecipientID: before.RequesterID,
			Type:        model.NotificationTypeRequestCancelled,
			Title:       "Request cancelled",
			Message:     "Your service request has been cancelled",
			ReferenceID: req.ID,
		}
		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			s.logger.Error("failed to notify resident of cancellation",
				zap.String("request_id", req.ID), zap.Error(err))
		}
	}

	return req, nil
}

// ListRequesterRequests lists a resident's requests
func (s *RequestService) ListRequesterRequests(ctx context.Context, requesterID string, page, limit int, status model.RequestStatus) ([]*model.ServiceRequest, int, error) {
	return s.requests.ListRequesterRequests(ctx, requesterID, page, limit, status)
}

// ListProviderRequests lists a provider's assigned requests
func (s *RequestService) ListProviderRequests(ctx context.Context, providerID string, page, limit int, status model.RequestStatus) ([]*model.ServiceRequest, int, error) {
	return s.requests.ListProviderRequests(ctx, providerID, page, limit, status)
}

// ListNotifications lists a user's notifications, newest first
func (s *RequestService) ListNotifications(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error) {
	return s.notifications.ListNotifications(ctx, recipientID, limit)
}
