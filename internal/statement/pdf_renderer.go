package statement

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PDFRenderer renders a composed statement into a PDF document.
type PDFRenderer struct {
	orgName string
	logger  *zap.Logger
}

// NewPDFRenderer creates a renderer that stamps the organization name on the
// cover section.
func NewPDFRenderer(orgName string, logger *zap.Logger) *PDFRenderer {
	return &PDFRenderer{orgName: orgName, logger: logger}
}

// Render produces the statement document. The returned *gofpdf.Fpdf is left
// open so the receipt merger can append pages before output.
func (r *PDFRenderer) Render(st *Statement) (*gofpdf.Fpdf, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	r.renderCover(pdf, tr, st)
	for _, section := range st.Sections {
		r.renderSection(pdf, tr, section)
	}
	if st.Grant != nil {
		r.renderGrant(pdf, tr, st)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("failed to render statement: %w", pdf.Error())
	}

	r.logger.Debug("Statement rendered",
		zap.Int64("event_id", st.Event.ID),
		zap.Int("page_count", pdf.PageCount()))

	return pdf, nil
}

// RenderBytes renders the statement and closes the document.
func (r *PDFRenderer) RenderBytes(st *Statement) ([]byte, error) {
	pdf, err := r.Render(st)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write statement PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) renderCover(pdf *gofpdf.Fpdf, tr func(string) string, st *Statement) {
	event := st.Event
	cover := st.Cover

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Abrechnung: "+event.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(r.orgName), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	r.metaLine(pdf, tr, "Ort", event.Location)
	r.metaLine(pdf, tr, "Zeitraum", fmt.Sprintf("%s - %s",
		formatDate(event.StartDate), formatDate(event.EndDate)))
	r.metaLine(pdf, tr, "Kassenverantwortung", event.Treasurer)
	pdf.Ln(6)

	r.totalBlock(pdf, tr, "Einnahmen", cover.IncomeLines, cover.IncomeTotal)
	pdf.Ln(4)
	r.totalBlock(pdf, tr, "Ausgaben", cover.ExpenseLines, cover.ExpenseTotal)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, tr("Saldo"), "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, formatAmount(cover.Balance), "T", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if cover.Deficit {
		pdf.Ln(2)
		pdf.CellFormat(0, 6, tr("Fehlbetrag: Erstattung an die abrechnende Person."), "", 1, "L", false, 0, "")
		if cover.ReimbursementIBAN != "" {
			pdf.CellFormat(0, 6, tr("Erstattungskonto (IBAN): "+cover.ReimbursementIBAN), "", 1, "L", false, 0, "")
		}
	} else {
		pdf.Ln(2)
		pdf.CellFormat(0, 6, tr("Überschuss: Abführung an die Landeskasse."), "", 1, "L", false, 0, "")
	}
}

func (r *PDFRenderer) renderSection(pdf *gofpdf.Fpdf, tr func(string) string, section CategorySection) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, tr(section.Label), "B", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	if section.Empty {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 7, tr("Keine Buchungen in dieser Kategorie."), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	} else {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(25, 7, tr("Datum"), "B", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, tr("Name"), "B", 0, "L", false, 0, "")
		pdf.CellFormat(85, 7, tr("Beschreibung"), "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, tr("Betrag"), "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, row := range section.Rows {
			pdf.CellFormat(25, 6, formatDate(row.Date), "", 0, "L", false, 0, "")
			pdf.CellFormat(45, 6, tr(clip(row.Name, 28)), "", 0, "L", false, 0, "")
			pdf.CellFormat(85, 6, tr(clip(row.Description, 54)), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, formatAmount(row.Amount), "", 1, "R", false, 0, "")
		}
	}

	pdf.Ln(1)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(155, 7, tr("Zwischensumme "+section.Label), "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, formatAmount(section.Subtotal), "T", 1, "R", false, 0, "")
}

func (r *PDFRenderer) renderGrant(pdf *gofpdf.Fpdf, tr func(string) string, st *Statement) {
	grant := st.Grant

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, tr("Zuschussberechnung"), "B", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	r.metaLine(pdf, tr, "Verpflegungstage", fmt.Sprintf("%d", grant.MealDays))
	r.metaLine(pdf, tr, "Zuschusstage", fmt.Sprintf("%d", grant.SubsidyDays))
	r.metaLine(pdf, tr, "Obergrenze nach Tagen", formatAmount(grant.DayCap))
	r.metaLine(pdf, tr, "Obergrenze nach Eigenanteil", formatAmount(grant.LocalShareCap))
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(120, 8, tr("Erwarteter Zuschuss"), "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, formatAmount(grant.ExpectedGrant), "T", 1, "R", false, 0, "")
	pdf.CellFormat(120, 8, tr("Saldo inkl. Zuschuss"), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, formatAmount(grant.BalanceWithGrant), "", 1, "R", false, 0, "")
}

func (r *PDFRenderer) metaLine(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(55, 6, tr(label+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

func (r *PDFRenderer) totalBlock(pdf *gofpdf.Fpdf, tr func(string) string, title string, lines []TotalLine, total decimal.Decimal) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range lines {
		pdf.CellFormat(120, 6, tr(line.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, formatAmount(line.Amount), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(120, 7, tr("Summe "+title), "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, formatAmount(total), "T", 1, "R", false, 0, "")
}

// formatAmount formats a Euro amount with German decimal separator.
func formatAmount(amount decimal.Decimal) string {
	return strings.Replace(amount.StringFixed(2), ".", ",", 1) + " EUR"
}

// formatDate formats a date as DD.MM.YYYY.
func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
