package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/internal/statement"
	"github.com/jugendwerk/aktionsabrechnung/internal/summary"
)

func TestWriteWorkbook(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	writer := NewExcelWriter(logger)

	policy, err := statement.NewGrantPolicy(statement.DefaultGrantConfig())
	require.NoError(t, err)
	composer := statement.NewComposer(policy, logger)

	event := &models.Event{
		ID:        1,
		Title:     "Sommerzeltlager",
		Location:  "Altensteig",
		StartDate: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
		Treasurer: "Jonas Keller",
		IBAN:      "DE89370400440532013000",
		Status:    models.EventStatusActive,
	}
	entries := []*models.ExpenseEntry{
		{
			EventID: 1, Category: models.CategoryParticipationFees,
			Amount: decimal.RequireFromString("120.00"), Description: "Teilnahmebeiträge",
			EntryDate: event.StartDate, SubmitterName: "Jonas Keller",
			Status: models.EntryStatusSubmitted,
		},
		{
			EventID: 1, Category: models.CategoryFood,
			Amount: decimal.RequireFromString("830.50"), Description: "Lebensmittel",
			EntryDate: event.StartDate, SubmitterName: "Mara Schmitt",
			Status: models.EntryStatusSubmitted,
		},
	}
	sum := summary.NewAggregator(logger).Aggregate(entries)
	st, err := composer.Compose(event, entries, sum)
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "abrechnung.xlsx")
	require.NoError(t, writer.WriteWorkbook(st, outputPath))

	f, err := excelize.OpenFile(outputPath)
	require.NoError(t, err)
	defer f.Close()

	// Overview sheet plus one sheet per non-empty category
	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Übersicht")
	assert.Contains(t, sheets, "Teilnahmebeiträge")
	assert.Contains(t, sheets, "Verpflegung")
	assert.NotContains(t, sheets, "Unterkunft")

	title, err := f.GetCellValue("Übersicht", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Sommerzeltlager", title)

	// Deficit events show the reimbursement account
	rows, err := f.GetRows("Übersicht")
	require.NoError(t, err)
	flat := ""
	for _, row := range rows {
		for _, cell := range row {
			flat += cell + "|"
		}
	}
	assert.Contains(t, flat, "Erstattungskonto")
	assert.Contains(t, flat, "DE89370400440532013000")
	assert.Contains(t, flat, "-710.50")

	// Section sheet carries the subtotal
	foodRows, err := f.GetRows("Verpflegung")
	require.NoError(t, err)
	last := foodRows[len(foodRows)-1]
	assert.Equal(t, "Zwischensumme", last[0])
	assert.Equal(t, "830.50", last[len(last)-1])
}
