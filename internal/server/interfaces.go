package server

import (
	"context"
	"io"

	"github.com/jugendwerk/aktionsabrechnung/internal/export"
	"github.com/jugendwerk/aktionsabrechnung/internal/models"
)

// EventStoreInterface defines the event persistence operations the handlers use.
type EventStoreInterface interface {
	Create(event *models.Event) error
	GetByID(id int64) (*models.Event, error)
	List() ([]*models.Event, error)
	Update(event *models.Event) error
	Delete(id int64) error
}

// EntryStoreInterface defines the entry persistence operations the handlers use.
type EntryStoreInterface interface {
	Create(entry *models.ExpenseEntry) error
	GetByID(id int64) (*models.ExpenseEntry, error)
	GetByEventID(eventID int64) ([]*models.ExpenseEntry, error)
	Update(entry *models.ExpenseEntry) error
	UpdateStatus(id int64, status string) error
	Delete(id int64) error
}

// ExportStoreInterface defines the export record reads the handlers use.
type ExportStoreInterface interface {
	GetByEventID(eventID int64) ([]*models.ExportRecord, error)
}

// ReceiptStoreInterface defines the receipt file operations the handlers use.
type ReceiptStoreInterface interface {
	SaveReceipt(eventID int64, originalName string, r io.Reader) (string, error)
	DeleteEventReceipts(eventID int64) error
}

// ExporterInterface runs the statement export pipeline.
type ExporterInterface interface {
	Export(ctx context.Context, eventID int64, opts export.Options) (*export.Result, error)
}
