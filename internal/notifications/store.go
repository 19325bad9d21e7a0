package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/foresight/internal/db"
)

// ListFilter controls which notifications are returned by List.
type ListFilter struct {
	SetID     string
	Delivered *bool
	Since     time.Time
	Limit     int
}

// Store persists notifications.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a notification, assigning an id and creation time when
// they are unset, and returns the stored value.
func (s *Store) Create(ctx context.Context, n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, set_id, topic, revision, message, delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.SetID, n.Topic, n.Revision, n.Message, n.Delivered, n.CreatedAt,
	)
	if err != nil {
		return Notification{}, fmt.Errorf("inserting notification: %w", err)
	}
	return n, nil
}

// List returns notifications matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Notification, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.SetID != "" {
		clauses = append(clauses, "set_id = ?")
		args = append(args, filter.SetID)
	}
	if filter.Delivered != nil {
		clauses = append(clauses, "delivered = ?")
		args = append(args, *filter.Delivered)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := "SELECT id, set_id, topic, revision, message, delivered, created_at FROM notifications"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	result := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.SetID, &n.Topic, &n.Revision, &n.Message, &n.Delivered, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// Pending returns all undelivered notifications.
func (s *Store) Pending(ctx context.Context) ([]Notification, error) {
	delivered := false
	return s.List(ctx, ListFilter{Delivered: &delivered})
}

// MarkDelivered flags the given notifications as delivered.
func (s *Store) MarkDelivered(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET delivered = 1 WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("marking notifications delivered: %w", err)
	}
	return nil
}
