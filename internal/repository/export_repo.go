package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/pkg/database"
)

// ExportRepository handles export record database operations.
type ExportRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewExportRepository creates a new export repository.
func NewExportRepository(db *database.DB, logger *zap.Logger) *ExportRepository {
	return &ExportRepository{db: db, logger: logger}
}

// RecordExport inserts the export record and marks the included submitted
// entries as sent, atomically. An export that fails to record leaves entry
// statuses untouched.
func (r *ExportRepository) RecordExport(record *models.ExportRecord, sentEntryIDs []int64) error {
	return r.db.WithTransaction(func(tx *sql.Tx) error {
		query := `
			INSERT INTO export_records (
				event_id, reference_number, statement_path, workbook_path,
				entry_count, income_total, expense_total, balance, skipped_receipts
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		result, err := tx.Exec(query,
			record.EventID,
			record.ReferenceNumber,
			record.StatementPath,
			record.WorkbookPath,
			record.EntryCount,
			record.IncomeTotal,
			record.ExpenseTotal,
			record.Balance,
			record.SkippedReceipts,
		)
		if err != nil {
			r.logger.Error("Failed to insert export record",
				zap.String("reference", record.ReferenceNumber),
				zap.Error(err))
			return fmt.Errorf("failed to insert export record: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		record.ID = id
		record.CreatedAt = time.Now()

		if len(sentEntryIDs) == 0 {
			return nil
		}

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sentEntryIDs)), ",")
		args := make([]interface{}, 0, len(sentEntryIDs)+1)
		args = append(args, models.EntryStatusSent)
		for _, entryID := range sentEntryIDs {
			args = append(args, entryID)
		}

		update := fmt.Sprintf(
			`UPDATE expense_entries SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id IN (%s)`,
			placeholders)
		if _, err := tx.Exec(update, args...); err != nil {
			r.logger.Error("Failed to mark entries as sent",
				zap.String("reference", record.ReferenceNumber),
				zap.Error(err))
			return fmt.Errorf("failed to mark entries as sent: %w", err)
		}
		return nil
	})
}

// GetByEventID retrieves all export records for an event, newest first.
func (r *ExportRepository) GetByEventID(eventID int64) ([]*models.ExportRecord, error) {
	query := `
		SELECT id, event_id, reference_number, statement_path, workbook_path,
			entry_count, income_total, expense_total, balance, skipped_receipts,
			emailed_to, emailed_at, created_at
		FROM export_records
		WHERE event_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(query, eventID)
	if err != nil {
		r.logger.Error("Failed to get export records", zap.Int64("event_id", eventID), zap.Error(err))
		return nil, fmt.Errorf("failed to get export records: %w", err)
	}
	defer rows.Close()

	var records []*models.ExportRecord
	for rows.Next() {
		var record models.ExportRecord
		var emailedTo sql.NullString
		var emailedAt sql.NullTime

		err := rows.Scan(
			&record.ID,
			&record.EventID,
			&record.ReferenceNumber,
			&record.StatementPath,
			&record.WorkbookPath,
			&record.EntryCount,
			&record.IncomeTotal,
			&record.ExpenseTotal,
			&record.Balance,
			&record.SkippedReceipts,
			&emailedTo,
			&emailedAt,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export record: %w", err)
		}

		if emailedTo.Valid {
			record.EmailedTo = emailedTo.String
		}
		if emailedAt.Valid {
			record.EmailedAt = &emailedAt.Time
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// UpdateEmailSent records a successful mail delivery for an export.
func (r *ExportRepository) UpdateEmailSent(id int64, emailedTo string, emailedAt time.Time) error {
	query := `UPDATE export_records SET emailed_to = ?, emailed_at = ? WHERE id = ?`

	if _, err := r.db.Exec(query, emailedTo, emailedAt, id); err != nil {
		r.logger.Error("Failed to update export email status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update export email status: %w", err)
	}
	return nil
}
