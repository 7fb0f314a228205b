package model

import (
	"time"
)

// RequestStatus represents the status of a service request
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusAssigned   RequestStatus = "assigned"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// CanTransitionTo reports whether a status change is allowed by the request
// lifecycle: pending -> assigned -> in_progress -> completed, with
// cancellation allowed from pending and assigned. Completed and cancelled
// are terminal.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusAssigned || next == StatusCancelled
	case StatusAssigned:
		return next == StatusInProgress || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ServiceRequest represents a home-repair service request in the system
type ServiceRequest struct {
	ID          string        `json:"id"`
	RequesterID string        `json:"requester_id"`
	CategoryID  string        `json:"category_id"`
	ProviderID  *string       `json:"provider_id,omitempty"`
	Description string        `json:"description"`
	PhotoURLs   []string      `json:"photo_urls,omitempty"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	AssignedAt  *time.Time    `json:"assigned_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// TableName returns the table name for the ServiceRequest model
func (ServiceRequest) TableName() string {
	return "service_requests"
}

// StatusHistory represents one row in the append-only audit trail of a
// request's status transitions
type StatusHistory struct {
	ID        string        `json:"id"`
	RequestID string        `json:"request_id"`
	Status    RequestStatus `json:"status"`
	ChangedBy string        `json:"changed_by"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// TableName returns the table name for the StatusHistory model
func (StatusHistory) TableName() string {
	return "request_status_history"
}
