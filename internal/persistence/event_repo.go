package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Link event kinds as stored in the link_events table.
const (
	EventLinkStatus = "link_status"
	EventButton     = "button"
	EventAlert      = "alert"
	EventPasskey    = "passkey"
)

type LinkEvent struct {
	ID         int64
	Kind       string
	Detail     string
	OccurredAt time.Time
}

type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Insert(ctx context.Context, event LinkEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO link_events(kind, detail, occurred_at)
		VALUES (?, ?, ?)
	`, event.Kind, event.Detail, toUnixMillis(event.OccurredAt))
	if err != nil {
		return fmt.Errorf("insert link event: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first. An empty kind
// matches every kind.
func (r *EventRepo) ListRecent(ctx context.Context, kind string, limit int) ([]LinkEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, kind, detail, occurred_at
		FROM link_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`
	args := []any{limit}
	if kind != "" {
		query = `
			SELECT id, kind, detail, occurred_at
			FROM link_events
			WHERE kind = ?
			ORDER BY occurred_at DESC, id DESC
			LIMIT ?
		`
		args = []any{kind, limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query link events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []LinkEvent
	for rows.Next() {
		var (
			event    LinkEvent
			occurred int64
		)
		if err := rows.Scan(&event.ID, &event.Kind, &event.Detail, &occurred); err != nil {
			return nil, fmt.Errorf("scan link event: %w", err)
		}
		event.OccurredAt = fromUnixMillis(occurred)
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate link events: %w", err)
	}
	return out, nil
}
