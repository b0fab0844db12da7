package models

import "time"

// ExportRecord represents one generated statement package for an event.
type ExportRecord struct {
	ID              int64      `json:"id"`
	EventID         int64      `json:"event_id"`
	ReferenceNumber string     `json:"reference_number"`
	StatementPath   string     `json:"statement_path"`
	WorkbookPath    string     `json:"workbook_path"`
	EntryCount      int        `json:"entry_count"`
	IncomeTotal     string     `json:"income_total"`
	ExpenseTotal    string     `json:"expense_total"`
	Balance         string     `json:"balance"`
	SkippedReceipts string     `json:"skipped_receipts,omitempty"` // JSON list of skipped receipt files
	EmailedTo       string     `json:"emailed_to,omitempty"`
	EmailedAt       *time.Time `json:"emailed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
