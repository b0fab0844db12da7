package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/pkg/database"
)

// EntryRepository handles expense entry database operations. Amounts are
// stored as decimal strings so no cent is lost to binary floats.
type EntryRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewEntryRepository creates a new entry repository.
func NewEntryRepository(db *database.DB, logger *zap.Logger) *EntryRepository {
	return &EntryRepository{db: db, logger: logger}
}

const entryColumns = `id, event_id, category, amount, description, entry_date,
	submitter_name, submitter_group, receipt_file, status, mileage, created_at, updated_at`

// Create inserts a new expense entry.
func (r *EntryRepository) Create(entry *models.ExpenseEntry) error {
	mileage, err := encodeMileage(entry.Mileage)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO expense_entries (
			event_id, category, amount, description, entry_date,
			submitter_name, submitter_group, receipt_file, status, mileage
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		entry.EventID,
		string(entry.Category),
		entry.Amount.StringFixed(2),
		entry.Description,
		entry.EntryDate,
		entry.SubmitterName,
		entry.SubmitterGroup,
		entry.ReceiptFile,
		entry.Status,
		mileage,
	)
	if err != nil {
		r.logger.Error("Failed to create entry", zap.Error(err))
		return fmt.Errorf("failed to create entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	return nil
}

// GetByID retrieves an entry by ID. Returns nil when not found.
func (r *EntryRepository) GetByID(id int64) (*models.ExpenseEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM expense_entries WHERE id = ?`

	entry, err := scanEntry(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get entry by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// GetByEventID retrieves all entries for an event in insertion order.
func (r *EntryRepository) GetByEventID(eventID int64) ([]*models.ExpenseEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM expense_entries WHERE event_id = ? ORDER BY id ASC`

	rows, err := r.db.Query(query, eventID)
	if err != nil {
		r.logger.Error("Failed to get entries by event ID", zap.Int64("event_id", eventID), zap.Error(err))
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.ExpenseEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Update updates an entry's mutable fields. Only administrators mutate
// entries after creation.
func (r *EntryRepository) Update(entry *models.ExpenseEntry) error {
	mileage, err := encodeMileage(entry.Mileage)
	if err != nil {
		return err
	}

	query := `
		UPDATE expense_entries
		SET category = ?, amount = ?, description = ?, entry_date = ?,
			submitter_name = ?, submitter_group = ?, receipt_file = ?,
			status = ?, mileage = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err = r.db.Exec(query,
		string(entry.Category),
		entry.Amount.StringFixed(2),
		entry.Description,
		entry.EntryDate,
		entry.SubmitterName,
		entry.SubmitterGroup,
		entry.ReceiptFile,
		entry.Status,
		mileage,
		entry.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update entry", zap.Int64("id", entry.ID), zap.Error(err))
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return nil
}

// UpdateStatus changes an entry's status.
func (r *EntryRepository) UpdateStatus(id int64, status string) error {
	query := `UPDATE expense_entries SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := r.db.Exec(query, status, id); err != nil {
		r.logger.Error("Failed to update entry status",
			zap.Int64("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update entry status: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (r *EntryRepository) Delete(id int64) error {
	if _, err := r.db.Exec(`DELETE FROM expense_entries WHERE id = ?`, id); err != nil {
		r.logger.Error("Failed to delete entry", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

func scanEntry(row rowScanner) (*models.ExpenseEntry, error) {
	var entry models.ExpenseEntry
	var category, amount string
	var mileage sql.NullString

	err := row.Scan(
		&entry.ID,
		&entry.EventID,
		&category,
		&amount,
		&entry.Description,
		&entry.EntryDate,
		&entry.SubmitterName,
		&entry.SubmitterGroup,
		&entry.ReceiptFile,
		&entry.Status,
		&mileage,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Category = models.Category(category)
	entry.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("stored amount %q is not decimal: %w", amount, err)
	}
	if mileage.Valid && mileage.String != "" {
		var details models.MileageDetails
		if err := json.Unmarshal([]byte(mileage.String), &details); err != nil {
			return nil, fmt.Errorf("failed to decode mileage details: %w", err)
		}
		entry.Mileage = &details
	}
	return &entry, nil
}

func encodeMileage(details *models.MileageDetails) (sql.NullString, error) {
	if details == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode mileage details: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}
