package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/repair-match-api/internal/model"
	"github.com/repair-match-api/pkg/database"
)

// RequestRepository handles database operations for service requests
type RequestRepository struct {
	db *database.PostgresDB
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *database.PostgresDB) *RequestRepository {
	return &RequestRepository{
		db: db,
	}
}

const requestColumns = `
	id, requester_id, category_id, provider_id, description, photo_urls,
	location_lat, location_lng, status, created_at, updated_at,
	assigned_at, completed_at
`

func scanRequest(row pgx.Row) (*model.ServiceRequest, error) {
	req := &model.ServiceRequest{}
	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.CategoryID,
		&req.ProviderID,
		&req.Description,
		&req.PhotoURLs,
		&req.Latitude,
		&req.Longitude,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.AssignedAt,
		&req.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// CreateRequest inserts a new pending request together with its initial
// status-history row. The insert and the history row commit atomically, so
// a freshly created request always has exactly one history entry.
func (r *RequestRepository) CreateRequest(ctx context.Context, req *model.ServiceRequest) error {
	if req.RequesterID == "" || req.CategoryID == "" {
		return ErrInvalidData
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	now := time.Now()
	req.Status = model.StatusPending
	req.CreatedAt = now
	req.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO service_requests (
			id, requester_id, category_id, provider_id, description, photo_urls,
			location_lat, location_lng, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11
		)
	`

	_, err = tx.Exec(ctx, query,
		req.ID,
		req.RequesterID,
		req.CategoryID,
		nil,
		req.Description,
		req.PhotoURLs,
		req.Latitude,
		req.Longitude,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if err := insertHistory(ctx, tx, req.ID, model.StatusPending, req.RequesterID, "Request created"); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRequestByID gets a service request by its ID
func (r *RequestRepository) GetRequestByID(ctx context.Context, requestID string) (*model.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`

	req, err := scanRequest(r.db.QueryRowContext(ctx, query, requestID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// AssignProvider atomically binds a provider to a pending request. The
// status and provider_id preconditions live in the same UPDATE statement as
// the value change, so at most one concurrent invocation can win; all others
// get ErrAssignmentConflict. assigned_at is written through COALESCE so it is
// set exactly once over the request's lifetime. The assigned history row
// commits in the same transaction as the update and can never be skipped.
func (r *RequestRepository) AssignProvider(ctx context.Context, requestID, providerID, notes string) (time.Time, error) {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE service_requests
		SET provider_id = $2,
		    status = $3,
		    assigned_at = COALESCE(assigned_at, now()),
		    updated_at = now()
		WHERE id = $1 AND status = $4 AND provider_id IS NULL
		RETURNING assigned_at
	`

	var assignedAt time.Time
	err = tx.QueryRow(ctx, query, requestID, providerID, model.StatusAssigned, model.StatusPending).Scan(&assignedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return time.Time{}, ErrAssignmentConflict
		}
		return time.Time{}, fmt.Errorf("failed to assign provider: %w", err)
	}

	if err := insertHistory(ctx, tx, requestID, model.StatusAssigned, "system", notes); err != nil {
		return time.Time{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return time.Time{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return assignedAt, nil
}

// UpdateRequestStatus transitions a request to a new status, appending
// exactly one history row in the same transaction. The current row is locked
// so concurrent transitions serialize, and the lifecycle rules in
// model.RequestStatus gate the change. completed_at is COALESCE-set on the
// first transition into completed.
func (r *RequestRepository) UpdateRequestStatus(ctx context.Context, requestID string, status model.RequestStatus, changedBy, notes string) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current model.RequestStatus
	err = tx.QueryRow(ctx, `SELECT status FROM service_requests WHERE id = $1 FOR UPDATE`, requestID).Scan(&current)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrRequestNotFound
		}
		return fmt.Errorf("failed to get request: %w", err)
	}

	if !current.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	query := `
		UPDATE service_requests
		SET status = $2,
		    completed_at = CASE WHEN $2 = 'completed' THEN COALESCE(completed_at, now()) ELSE completed_at END,
		    updated_at = now()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, query, requestID, status); err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	if err := insertHistory(ctx, tx, requestID, status, changedBy, notes); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetStatusHistory returns the append-only audit trail for a request,
// oldest first
func (r *RequestRepository) GetStatusHistory(ctx context.Context, requestID string) ([]model.StatusHistory, error) {
	query := `
		SELECT id, request_id, status, changed_by, notes, created_at
		FROM request_status_history
		WHERE request_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	history := []model.StatusHistory{}
	for rows.Next() {
		var h model.StatusHistory
		err := rows.Scan(&h.ID, &h.RequestID, &h.Status, &h.ChangedBy, &h.Notes, &h.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return history, nil
}

// ListPendingByCategories returns pending, unassigned requests in any of the
// given categories, oldest first
func (r *RequestRepository) ListPendingByCategories(ctx context.Context, categoryIDs []string) ([]*model.ServiceRequest, error) {
	if len(categoryIDs) == 0 {
		return []*model.ServiceRequest{}, nil
	}

	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE status = 'pending' AND provider_id IS NULL AND category_id = ANY($1)
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending requests: %w", err)
	}
	defer rows.Close()

	requests := []*model.ServiceRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return requests, nil
}

// listRequestsBy gets a page of requests for a requester or provider column
func (r *RequestRepository) listRequestsBy(ctx context.Context, column, id string, page, limit int, status model.RequestStatus) ([]*model.ServiceRequest, int, error) {
	var whereClause string
	var args []interface{}
	args = append(args, id)

	if status != "" {
		whereClause = " AND status = $2"
		args = append(args, status)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM service_requests WHERE %s = $1%s`, column, whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	offset := (page - 1) * limit
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT `+requestColumns+`
		FROM service_requests
		WHERE %s = $1%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, column, whereClause, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	requests := []*model.ServiceRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating requests: %w", err)
	}

	return requests, total, nil
}

// ListRequesterRequests gets all requests created by a resident
func (r *RequestRepository) ListRequesterRequests(ctx context.Context, requesterID string, page, limit int, status model.RequestStatus) ([]*model.ServiceRequest, int, error) {
	return r.listRequestsBy(ctx, "requester_id", requesterID, page, limit, status)
}

// ListProviderRequests gets all requests assigned to a provider
func (r *RequestRepository) ListProviderRequests(ctx context.Context, providerID string, page, limit int, status model.RequestStatus) ([]*model.ServiceRequest, int, error) {
	return r.listRequestsBy(ctx, "provider_id", providerID, page, limit, status)
}

func insertHistory(ctx context.Context, tx pgx.Tx, requestID string, status model.RequestStatus, changedBy, notes string) error {
	query := `
		INSERT INTO request_status_history (id, request_id, status, changed_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`

	_, err := tx.Exec(ctx, query, uuid.New().String(), requestID, status, changedBy, notes)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}

	return nil
}
