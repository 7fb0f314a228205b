package model

import (
	"time"
)

// Role represents the role a profile holds in the system
type Role string

const (
	RoleResident Role = "resident"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// DefaultServiceRadiusKm is the service radius applied to provider profiles
// that have not configured one.
const DefaultServiceRadiusKm = 10.0

// Profile represents a person (resident or provider) in the system
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Role        Role      `json:"role"`
	LocationLat *float64  `json:"location_lat,omitempty"`
	LocationLng *float64  `json:"location_lng,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}

// HasLocation reports whether both coordinates are present
func (p *Profile) HasLocation() bool {
	return p.LocationLat != nil && p.LocationLng != nil
}

// ProviderProfile extends a Profile with provider-specific attributes.
// One-to-one with Profile via ProfileID.
type ProviderProfile struct {
	ProfileID       string    `json:"profile_id"`
	ServiceRadiusKm float64   `json:"service_radius_km"`
	IsAvailable     bool      `json:"is_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the table name for the ProviderProfile model
func (ProviderProfile) TableName() string {
	return "provider_profiles"
}

// ServiceCategory represents a named service type, e.g. Plumbing.
// Immutable reference data.
type ServiceCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TableName returns the table name for the ServiceCategory model
func (ServiceCategory) TableName() string {
	return "service_categories"
}
