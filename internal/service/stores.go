package service

import (
	"context"
	"time"

	"github.com/repair-match-api/internal/model"
	"github.com/repair-match-api/internal/repository"
)

// RequestStore is the persistence interface for service requests
type RequestStore interface {
	CreateRequest(ctx context.Context, req *model.ServiceRequest) error
	GetRequestByID(ctx context.Context, requestID string) (*model.ServiceRequest, error)
	AssignProvider(ctx context.Context, requestID, providerID, notes string) (time.Time, error)
	UpdateRequestStatus(ctx context.Context, requestID string, status model.RequestStatus, changedBy, notes string) error
	GetStatusHistory(ctx context.Context, requestID string) ([]model.StatusHistory, error)
	ListPendingByCategories(ctx context.Context, categoryIDs []string) ([]*model.ServiceRequest, error)
	ListRequesterRequests(ctx context.Context, requesterID string, page, limit int, status model.RequestStatus) ([]*model.ServiceRequest, int, error)
	ListProviderRequests(ctx context.Context, providerID string, page, limit int, status model.RequestStatus) ([]*model.ServiceRequest, int, error)
}

// ProviderStore is the persistence interface for providers and profiles
type ProviderStore interface {
	FindCandidates(ctx context.Context, categoryID string) ([]repository.CandidateRow, int, error)
	GetProviderProfile(ctx context.Context, providerID string) (*model.ProviderProfile, error)
	GetProfile(ctx context.Context, profileID string) (*model.Profile, error)
	SetAvailability(ctx context.Context, providerID string, available bool) error
	ListProviderCategories(ctx context.Context, providerID string) ([]string, error)
	ListAdminIDs(ctx context.Context) ([]string, error)
}

// NotificationStore is the persistence interface for notifications
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	CreateNotificationBatch(ctx context.Context, notifications []*model.Notification) error
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error)
}
