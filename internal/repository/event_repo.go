package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/pkg/database"
)

// EventRepository handles event database operations.
type EventRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *database.DB, logger *zap.Logger) *EventRepository {
	return &EventRepository{db: db, logger: logger}
}

const eventColumns = `id, title, location, start_date, end_date, treasurer, iban,
	status, meal_days, subsidy_days, created_at, updated_at`

// Create inserts a new event.
func (r *EventRepository) Create(event *models.Event) error {
	query := `
		INSERT INTO events (
			title, location, start_date, end_date, treasurer, iban,
			status, meal_days, subsidy_days
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		event.Title,
		event.Location,
		event.StartDate,
		event.EndDate,
		event.Treasurer,
		event.IBAN,
		event.Status,
		event.MealDays,
		event.SubsidyDays,
	)
	if err != nil {
		r.logger.Error("Failed to create event", zap.Error(err))
		return fmt.Errorf("failed to create event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	event.ID = id
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	return nil
}

// GetByID retrieves an event by ID. Returns nil when not found.
func (r *EventRepository) GetByID(id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	event, err := scanEvent(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get event by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// List retrieves all events ordered by start date descending.
func (r *EventRepository) List() ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_date DESC, id DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list events", zap.Error(err))
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Update updates an event's mutable fields.
func (r *EventRepository) Update(event *models.Event) error {
	query := `
		UPDATE events
		SET title = ?, location = ?, start_date = ?, end_date = ?, treasurer = ?,
			iban = ?, status = ?, meal_days = ?, subsidy_days = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		event.Title,
		event.Location,
		event.StartDate,
		event.EndDate,
		event.Treasurer,
		event.IBAN,
		event.Status,
		event.MealDays,
		event.SubsidyDays,
		event.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update event", zap.Int64("id", event.ID), zap.Error(err))
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// Delete removes an event and all its expense entries in one transaction.
func (r *EventRepository) Delete(id int64) error {
	return r.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM expense_entries WHERE event_id = ?`, id); err != nil {
			r.logger.Error("Failed to delete event entries", zap.Int64("event_id", id), zap.Error(err))
			return fmt.Errorf("failed to delete event entries: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM events WHERE id = ?`, id); err != nil {
			r.logger.Error("Failed to delete event", zap.Int64("id", id), zap.Error(err))
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Location,
		&event.StartDate,
		&event.EndDate,
		&event.Treasurer,
		&event.IBAN,
		&event.Status,
		&event.MealDays,
		&event.SubsidyDays,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
