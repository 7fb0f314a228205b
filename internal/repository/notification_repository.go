package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/repair-match-api/internal/model"
	"github.com/repair-match-api/pkg/database"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *database.PostgresDB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.PostgresDB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

// CreateNotification inserts a single notification
func (r *NotificationRepository) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n.RecipientID == "" {
		return ErrInvalidData
	}

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO notifications (
			id, recipient_id, type, title, message, payload, reference_id, read, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.Type,
		n.Title,
		n.Message,
		n.Payload,
		n.ReferenceID,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// CreateNotificationBatch inserts many notifications in one round trip using
// the COPY protocol. Used for admin broadcasts so latency stays bounded as
// the admin count grows.
func (r *NotificationRepository) CreateNotificationBatch(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([][]interface{}, 0, len(notifications))
	for _, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		payload, err := n.Payload.Value()
		if err != nil {
			return fmt.Errorf("failed to encode notification payload: %w", err)
		}
		rows = append(rows, []interface{}{
			n.ID, n.RecipientID, n.Type, n.Title, n.Message, payload, n.ReferenceID, n.Read, n.CreatedAt,
		})
	}

	columns := []string{"id", "recipient_id", "type", "title", "message", "payload", "reference_id", "read", "created_at"}
	if _, err := r.db.CopyFrom(ctx, "notifications", columns, rows); err != nil {
		return fmt.Errorf("failed to batch insert notifications: %w", err)
	}

	return nil
}

// ListNotifications gets notifications for a recipient, newest first
func (r *NotificationRepository) ListNotifications(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, recipient_id, type, title, message, payload, reference_id, read, created_at, read_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*model.Notification{}
	for rows.Next() {
		n := &model.Notification{}
		err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Payload,
			&n.ReferenceID,
			&n.Read,
			&n.CreatedAt,
			&n.ReadAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}
