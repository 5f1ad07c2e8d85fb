package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"betpool/database"
	"betpool/models"
	"betpool/service"

	"github.com/jackc/pgx/v5"
)

// EventRepository implements the event store
type EventRepository struct {
	q queryable
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{q: db.Pool}
}

// newEventRepositoryWithTx creates a new event repository with a transaction
func newEventRepositoryWithTx(tx queryable) *EventRepository {
	return &EventRepository{q: tx}
}

const eventColumns = `
	id, owner_account_id, title, description, category, quota_price,
	start_time, end_time, event_date, status, winning_outcome, rejection_message,
	created_at, updated_at, settled_at`

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (
			owner_account_id, title, description, category, quota_price,
			start_time, end_time, event_date, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		event.OwnerAccountID,
		event.Title,
		event.Description,
		event.Category,
		event.QuotaPrice,
		event.StartTime,
		event.EndTime,
		event.EventDate,
		event.Status,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", classify(err))
	}

	return nil
}

// GetByID retrieves an event by its ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return r.getByID(ctx, id, "")
}

// GetByIDForUpdate retrieves an event and locks the row exclusively
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	return r.getByID(ctx, id, "FOR UPDATE")
}

// GetByIDForShare retrieves an event and blocks concurrent exclusive lockers
func (r *EventRepository) GetByIDForShare(ctx context.Context, id int64) (*models.Event, error) {
	return r.getByID(ctx, id, "FOR SHARE")
}

func (r *EventRepository) getByID(ctx context.Context, id int64, lock string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 ` + lock

	event, err := scanEvent(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", id, classify(err))
	}

	return event, nil
}

// Update persists the mutable lifecycle fields of an event
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET status = $1,
			winning_outcome = $2,
			rejection_message = $3,
			settled_at = $4,
			updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		event.Status,
		event.WinningOutcome,
		event.RejectionMessage,
		event.SettledAt,
		event.ID,
	).Scan(&event.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("event %d: %w", event.ID, service.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update event %d: %w", event.ID, classify(err))
	}

	return nil
}

// List returns events ordered by event date, optionally filtered by status
func (r *EventRepository) List(ctx context.Context, status *models.EventStatus) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var args []any

	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY event_date, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", classify(err))
	}
	defer rows.Close()

	return collectEvents(rows)
}

// Search matches term as a literal substring of title, description or category
func (r *EventRepository) Search(ctx context.Context, term string, status models.EventStatus) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE status = $1
		  AND (title ILIKE $2 ESCAPE '\' OR description ILIKE $2 ESCAPE '\' OR category ILIKE $2 ESCAPE '\')
		ORDER BY event_date, id`

	pattern := "%" + escapeLike(term) + "%"
	rows, err := r.q.Query(ctx, query, status, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", classify(err))
	}
	defer rows.Close()

	return collectEvents(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE metacharacters
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID,
		&e.OwnerAccountID,
		&e.Title,
		&e.Description,
		&e.Category,
		&e.QuotaPrice,
		&e.StartTime,
		&e.EndTime,
		&e.EventDate,
		&e.Status,
		&e.WinningOutcome,
		&e.RejectionMessage,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]*models.Event, error) {
	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", classify(err))
	}

	return events, nil
}
