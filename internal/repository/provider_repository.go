package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/repair-match-api/internal/model"
	"github.com/repair-match-api/pkg/database"
)

// ProviderRepository handles database operations for providers and profiles
type ProviderRepository struct {
	db *database.PostgresDB
}

// NewProviderRepository creates a new provider repository
func NewProviderRepository(db *database.PostgresDB) *ProviderRepository {
	return &ProviderRepository{
		db: db,
	}
}

// CandidateRow is one provider considered for assignment: an available
// provider offering the category, whose owning profile has a coordinate
type CandidateRow struct {
	ProviderID      string
	Name            string
	Latitude        float64
	Longitude       float64
	ServiceRadiusKm float64
}

// FindCandidates returns the candidate providers for a category along with
// the total number of providers registered for it. Registered providers
// that are unavailable or lack a location are silently excluded from the
// candidate rows but still counted, so callers can tell "nobody offers this
// category" apart from "nobody is currently eligible". Rows come back
// ordered by provider ID so the fetch order is deterministic.
func (r *ProviderRepository) FindCandidates(ctx context.Context, categoryID string) ([]CandidateRow, int, error) {
	var registered int
	countQuery := `SELECT COUNT(*) FROM provider_categories WHERE category_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, categoryID).Scan(&registered); err != nil {
		return nil, 0, fmt.Errorf("failed to count registered providers: %w", err)
	}

	if registered == 0 {
		return []CandidateRow{}, 0, nil
	}

	query := `
		SELECT p.id, p.name, p.location_lat, p.location_lng, pp.service_radius_km
		FROM provider_categories pc
		JOIN provider_profiles pp ON pp.profile_id = pc.provider_id
		JOIN profiles p ON p.id = pp.profile_id
		WHERE pc.category_id = $1
		  AND pp.is_available = true
		  AND p.location_lat IS NOT NULL
		  AND p.location_lng IS NOT NULL
		ORDER BY p.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []CandidateRow{}
	for rows.Next() {
		var c CandidateRow
		err := rows.Scan(&c.ProviderID, &c.Name, &c.Latitude, &c.Longitude, &c.ServiceRadiusKm)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating candidates: %w", err)
	}

	return candidates, registered, nil
}

// GetProviderProfile gets a provider profile by its owning profile ID
func (r *ProviderRepository) GetProviderProfile(ctx context.Context, providerID string) (*model.ProviderProfile, error) {
	query := `
		SELECT profile_id, service_radius_km, is_available, created_at, updated_at
		FROM provider_profiles
		WHERE profile_id = $1
	`

	var pp model.ProviderProfile
	err := r.db.QueryRowContext(ctx, query, providerID).Scan(
		&pp.ProfileID,
		&pp.ServiceRadiusKm,
		&pp.IsAvailable,
		&pp.CreatedAt,
		&pp.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider profile: %w", err)
	}

	return &pp, nil
}

// GetProfile gets a profile by ID
func (r *ProviderRepository) GetProfile(ctx context.Context, profileID string) (*model.Profile, error) {
	query := `
		SELECT id, name, email, phone, role, location_lat, location_lng, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var p model.Profile
	err := r.db.QueryRowContext(ctx, query, profileID).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Role,
		&p.LocationLat,
		&p.LocationLng,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// SetAvailability updates a provider's availability flag
func (r *ProviderRepository) SetAvailability(ctx context.Context, providerID string, available bool) error {
	query := `
		UPDATE provider_profiles
		SET is_available = $2, updated_at = $3
		WHERE profile_id = $1
	`

	ct, err := r.db.ExecContext(ctx, query, providerID, available, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return ErrProviderNotFound
	}

	return nil
}

// ListProviderCategories returns the category IDs a provider offers
func (r *ProviderRepository) ListProviderCategories(ctx context.Context, providerID string) ([]string, error) {
	query := `SELECT category_id FROM provider_categories WHERE provider_id = $1`

	rows, err := r.db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// ListAdminIDs returns the profile IDs of every user holding the admin role
func (r *ProviderRepository) ListAdminIDs(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM profiles WHERE role = $1`

	rows, err := r.db.QueryContext(ctx, query, model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	defer rows.Close()

	admins := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan admin ID: %w", err)
		}
		admins = append(admins, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}

	return admins, nil
}
