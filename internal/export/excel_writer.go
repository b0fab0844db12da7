package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/statement"
)

// ExcelWriter writes the treasury workbook: one overview sheet mirroring the
// statement cover and one itemized sheet per category with entries.
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates a new ExcelWriter.
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// WriteWorkbook writes the workbook for a composed statement to outputPath.
func (w *ExcelWriter) WriteWorkbook(st *statement.Statement, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	const overview = "Übersicht"
	if err := f.SetSheetName("Sheet1", overview); err != nil {
		return fmt.Errorf("failed to rename overview sheet: %w", err)
	}

	w.writeOverview(f, overview, st)

	for _, section := range st.Sections {
		if section.Empty {
			continue
		}
		if err := w.writeSectionSheet(f, section); err != nil {
			return err
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Treasury workbook written", zap.String("output_path", outputPath))
	return nil
}

func (w *ExcelWriter) writeOverview(f *excelize.File, sheet string, st *statement.Statement) {
	event := st.Event
	cover := st.Cover

	w.setCell(f, sheet, "A1", "Aktion")
	w.setCell(f, sheet, "B1", event.Title)
	w.setCell(f, sheet, "A2", "Ort")
	w.setCell(f, sheet, "B2", event.Location)
	w.setCell(f, sheet, "A3", "Zeitraum")
	w.setCell(f, sheet, "B3", fmt.Sprintf("%s - %s",
		event.StartDate.Format("02.01.2006"), event.EndDate.Format("02.01.2006")))
	w.setCell(f, sheet, "A4", "Kassenverantwortung")
	w.setCell(f, sheet, "B4", event.Treasurer)

	row := 6
	w.setCell(f, sheet, fmt.Sprintf("A%d", row), "Einnahmen")
	row++
	for _, line := range cover.IncomeLines {
		w.setCell(f, sheet, fmt.Sprintf("A%d", row), line.Label)
		w.setCell(f, sheet, fmt.Sprintf("B%d", row), line.Amount.StringFixed(2))
		row++
	}
	w.setCell(f, sheet, fmt.Sprintf("A%d", row), "Summe Einnahmen")
	w.setCell(f, sheet, fmt.Sprintf("B%d", row), cover.IncomeTotal.StringFixed(2))
	row += 2

	w.setCell(f, sheet, fmt.Sprintf("A%d", row), "Ausgaben")
	row++
	for _, line := range cover.ExpenseLines {
		w.setCell(f, sheet, fmt.Sprintf("A%d", row), line.Label)
		w.setCell(f, sheet, fmt.Sprintf("B%d", row), line.Amount.StringFixed(2))
		row++
	}
	w.setCell(f, sheet, fmt.Sprintf("A%d", row), "Summe Ausgaben")
	w.setCell(f, sheet, fmt.Sprintf("B%d", row), cover.ExpenseTotal.StringFixed(2))
	row += 2

	w.setCell(f, sheet, fmt.Sprintf("A%d", row), "Saldo")
	w.setCell(f, sheet, fmt.Sprintf("B%d", row), cover.Balance.StringFixed(2))
	row++
	if cover.Deficit && cover.ReimbursementIBAN != "" {
		w.setCell(f, sheet, fmt.Sprintf("A%d", row), "Erstattungskonto")
		w.setCell(f, sheet, fmt.Sprintf("B%d", row), cover.ReimbursementIBAN)
		row++
	}

	if st.Grant != nil {
		row++
		w.setCell(f, sheet, fmt.Sprintf("A%d", row), "Erwarteter Zuschuss")
		w.setCell(f, sheet, fmt.Sprintf("B%d", row), st.Grant.ExpectedGrant.StringFixed(2))
		row++
		w.setCell(f, sheet, fmt.Sprintf("A%d", row), "Saldo inkl. Zuschuss")
		w.setCell(f, sheet, fmt.Sprintf("B%d", row), st.Grant.BalanceWithGrant.StringFixed(2))
	}
}

func (w *ExcelWriter) writeSectionSheet(f *excelize.File, section statement.CategorySection) error {
	sheet := sheetName(section.Label)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	w.setCell(f, sheet, "A1", "Datum")
	w.setCell(f, sheet, "B1", "Name")
	w.setCell(f, sheet, "C1", "Beschreibung")
	w.setCell(f, sheet, "D1", "Betrag")

	row := 2
	for _, entry := range section.Rows {
		w.setCell(f, sheet, fmt.Sprintf("A%d", row), entry.Date.Format("02.01.2006"))
		w.setCell(f, sheet, fmt.Sprintf("B%d", row), entry.Name)
		w.setCell(f, sheet, fmt.Sprintf("C%d", row), entry.Description)
		w.setCell(f, sheet, fmt.Sprintf("D%d", row), entry.Amount.StringFixed(2))
		row++
	}

	w.setCell(f, sheet, fmt.Sprintf("A%d", row), "Zwischensumme")
	w.setCell(f, sheet, fmt.Sprintf("D%d", row), section.Subtotal.StringFixed(2))
	return nil
}

// setCell sets a cell value, logging rather than failing on cell errors.
func (w *ExcelWriter) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

// sheetName trims a label to excelize's 31-character sheet name limit.
func sheetName(label string) string {
	runes := []rune(label)
	if len(runes) > 31 {
		return string(runes[:31])
	}
	return label
}
