package export

import (
	"context"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/internal/statement"
	"github.com/jugendwerk/aktionsabrechnung/internal/summary"
)

// EventRepositoryInterface provides event lookups for export.
type EventRepositoryInterface interface {
	GetByID(id int64) (*models.Event, error)
}

// EntryRepositoryInterface provides entry lookups for export.
type EntryRepositoryInterface interface {
	GetByEventID(eventID int64) ([]*models.ExpenseEntry, error)
}

// ExportStoreInterface persists the export record and, in the same
// transaction, marks the included submitted entries as sent.
type ExportStoreInterface interface {
	RecordExport(record *models.ExportRecord, sentEntryIDs []int64) error
}

// ComposerInterface builds the statement structure.
type ComposerInterface interface {
	Compose(event *models.Event, entries []*models.ExpenseEntry, sum *summary.CategorySummary) (*statement.Statement, error)
}

// MailerInterface delivers a finished export package to the treasury.
type MailerInterface interface {
	SendStatement(ctx context.Context, event *models.Event, record *models.ExportRecord, attachments []string) error
}
