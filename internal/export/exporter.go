package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/internal/statement"
	"github.com/jugendwerk/aktionsabrechnung/internal/summary"
)

// FolderManagerInterface provides the filesystem layout for exports and
// uploaded receipts.
type FolderManagerInterface interface {
	CreateExportFolder(reference string) (string, error)
	ReceiptPath(eventID int64, filename string) string
}

// Exporter orchestrates the full export pipeline for one event: aggregate,
// compose, render the PDF statement, merge receipts, write the treasury
// workbook, record the export, and optionally email the package.
type Exporter struct {
	eventRepo  EventRepositoryInterface
	entryRepo  EntryRepositoryInterface
	store      ExportStoreInterface
	aggregator *summary.Aggregator
	composer   ComposerInterface
	renderer   *statement.PDFRenderer
	merger     *statement.ReceiptMerger
	excel      *ExcelWriter
	folders    FolderManagerInterface
	mailer     MailerInterface // nil when mail delivery is disabled
	logger     *zap.Logger
}

// NewExporter creates a new Exporter. mailer may be nil.
func NewExporter(
	eventRepo EventRepositoryInterface,
	entryRepo EntryRepositoryInterface,
	store ExportStoreInterface,
	aggregator *summary.Aggregator,
	composer ComposerInterface,
	renderer *statement.PDFRenderer,
	merger *statement.ReceiptMerger,
	excel *ExcelWriter,
	folders FolderManagerInterface,
	mailer MailerInterface,
	logger *zap.Logger,
) *Exporter {
	return &Exporter{
		eventRepo:  eventRepo,
		entryRepo:  entryRepo,
		store:      store,
		aggregator: aggregator,
		composer:   composer,
		renderer:   renderer,
		merger:     merger,
		excel:      excel,
		folders:    folders,
		mailer:     mailer,
		logger:     logger,
	}
}

// Options customizes export behavior.
type Options struct {
	SendEmail bool // deliver the package to the treasury after writing it
}

// Result is the outcome of one export run.
type Result struct {
	Record    *models.ExportRecord   `json:"record"`
	Merge     *statement.MergeResult `json:"merge"`
	Statement *statement.Statement   `json:"-"`
}

// Export runs the export pipeline for one event.
//
// Draft and rejected entries are excluded; submitted entries are marked sent
// in the same transaction that records the export. Receipt merge failures do
// not abort the export: they are reported on the result.
func (e *Exporter) Export(ctx context.Context, eventID int64, opts Options) (*Result, error) {
	e.logger.Info("Starting statement export", zap.Int64("event_id", eventID))

	event, err := e.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event not found: %d", eventID)
	}

	all, err := e.entryRepo.GetByEventID(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	entries := make([]*models.ExpenseEntry, 0, len(all))
	var submittedIDs []int64
	for _, entry := range all {
		switch entry.Status {
		case models.EntryStatusSubmitted:
			submittedIDs = append(submittedIDs, entry.ID)
			entries = append(entries, entry)
		case models.EntryStatusSent:
			entries = append(entries, entry)
		}
	}

	sum := e.aggregator.Aggregate(entries)
	st, err := e.composer.Compose(event, entries, sum)
	if err != nil {
		return nil, fmt.Errorf("failed to compose statement: %w", err)
	}

	pdf, err := e.renderer.Render(st)
	if err != nil {
		return nil, fmt.Errorf("failed to render statement: %w", err)
	}

	mergeResult := e.merger.Append(pdf, e.receiptPaths(entries))
	if !mergeResult.Complete() {
		e.logger.Warn("Some receipts could not be merged",
			zap.Int64("event_id", eventID),
			zap.Int("skipped_count", len(mergeResult.Skipped)))
	}

	reference := newReference(time.Now())
	folderPath, err := e.folders.CreateExportFolder(reference)
	if err != nil {
		return nil, fmt.Errorf("failed to create export folder: %w", err)
	}

	statementPath := filepath.Join(folderPath, fmt.Sprintf("abrechnung_%s.pdf", reference))
	out, err := os.Create(statementPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create statement file: %w", err)
	}
	if err := pdf.Output(out); err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to write statement PDF: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to close statement file: %w", err)
	}

	workbookPath := filepath.Join(folderPath, fmt.Sprintf("abrechnung_%s.xlsx", reference))
	if err := e.excel.WriteWorkbook(st, workbookPath); err != nil {
		return nil, fmt.Errorf("failed to write treasury workbook: %w", err)
	}

	record := &models.ExportRecord{
		EventID:         eventID,
		ReferenceNumber: reference,
		StatementPath:   statementPath,
		WorkbookPath:    workbookPath,
		EntryCount:      len(entries),
		IncomeTotal:     sum.IncomeTotal.StringFixed(2),
		ExpenseTotal:    sum.ExpenseTotal.StringFixed(2),
		Balance:         sum.Balance.StringFixed(2),
	}
	if len(mergeResult.Skipped) > 0 {
		skipped, err := json.Marshal(mergeResult.Skipped)
		if err != nil {
			return nil, fmt.Errorf("failed to encode skipped receipts: %w", err)
		}
		record.SkippedReceipts = string(skipped)
	}

	if err := e.store.RecordExport(record, submittedIDs); err != nil {
		return nil, fmt.Errorf("failed to record export: %w", err)
	}

	result := &Result{Record: record, Merge: mergeResult, Statement: st}

	if opts.SendEmail && e.mailer != nil {
		if err := e.mailer.SendStatement(ctx, event, record, []string{statementPath, workbookPath}); err != nil {
			// The package is already written and recorded; delivery can be retried.
			e.logger.Error("Failed to email export package",
				zap.String("reference", reference),
				zap.Error(err))
			return result, fmt.Errorf("export written but mail delivery failed: %w", err)
		}
	}

	e.logger.Info("Statement export complete",
		zap.Int64("event_id", eventID),
		zap.String("reference", reference),
		zap.Int("entry_count", len(entries)),
		zap.Int("skipped_receipts", len(mergeResult.Skipped)))

	return result, nil
}

func (e *Exporter) receiptPaths(entries []*models.ExpenseEntry) []string {
	var paths []string
	for _, entry := range entries {
		if entry.ReceiptFile == "" {
			continue
		}
		paths = append(paths, e.folders.ReceiptPath(entry.EventID, entry.ReceiptFile))
	}
	return paths
}

// newReference generates a structured export reference, e.g. AB-2026-08-7F3K21A9.
func newReference(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("AB-%s-%s", now.Format("2006-01"), suffix)
}
