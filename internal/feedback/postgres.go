package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// PostgresEventStore implements EventStore using the feedback_events
// table.
type PostgresEventStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresEventStore creates a new PostgresEventStore.
func NewPostgresEventStore(db *sql.DB, logger *slog.Logger) *PostgresEventStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEventStore{
		db:     db,
		logger: logger,
	}
}

// Append inserts one event. The table is append-only; there is no
// update or delete path.
func (s *PostgresEventStore) Append(ctx context.Context, event Event) error {
	query := `INSERT INTO feedback_events (id, user_id, item_id, label, weight, factors, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.ItemID,
		event.Label,
		event.Weight,
		pq.Array(event.Factors),
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback event: %w", err)
	}

	s.logger.Debug("feedback event persisted",
		slog.String("event_id", event.ID),
		slog.String("user_id", event.UserID))
	return nil
}

// RecentByUser returns the newest events for a user, newest first.
func (s *PostgresEventStore) RecentByUser(ctx context.Context, userID string, limit int) ([]Event, error) {
	query := `SELECT id, user_id, item_id, label, weight, factors, created_at
	          FROM feedback_events
	          WHERE user_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemID, &e.Label, &e.Weight, pq.Array(&e.Factors), &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan feedback event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback events: %w", err)
	}
	return events, nil
}

// Users returns the distinct user ids with recorded events.
func (s *PostgresEventStore) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM feedback_events`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback users: %w", err)
	}
	return users, nil
}
