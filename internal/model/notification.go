package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// NotificationType defines the type of notification
type NotificationType string

const (
	// NotificationTypeRequestAssigned tells a resident their request has a provider
	NotificationTypeRequestAssigned NotificationType = "REQUEST_ASSIGNED"

	// NotificationTypeJobAssigned tells a provider they received a new job
	NotificationTypeJobAssigned NotificationType = "JOB_ASSIGNED"

	// NotificationTypeNoProviderFound warns admins that a request could not be matched
	NotificationTypeNoProviderFound NotificationType = "NO_PROVIDER_FOUND"

	// NotificationTypeRequestCompleted tells a resident their request is done
	NotificationTypeRequestCompleted NotificationType = "REQUEST_COMPLETED"

	// NotificationTypeRequestCancelled tells the counterparty a request was cancelled
	NotificationTypeRequestCancelled NotificationType = "REQUEST_CANCELLED"
)

// Payload is a map of string keys to interface{} values for flexible notification payloads
type Payload map[string]interface{}

// Value implements the driver.Valuer interface for JSON serialization
func (p Payload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for JSON deserialization
func (p *Payload) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, p)
}

// Notification represents a message delivered to a user about a request event
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Payload     Payload          `json:"payload,omitempty"`
	ReferenceID string           `json:"reference_id"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
	ReadAt      *time.Time       `json:"read_at,omitempty"`
}

// TableName returns the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
