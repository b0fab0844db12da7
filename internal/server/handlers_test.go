package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/export"
	"github.com/jugendwerk/aktionsabrechnung/internal/mileage"
	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/internal/rates"
	"github.com/jugendwerk/aktionsabrechnung/internal/summary"
)

// MockEventStore implements EventStoreInterface for testing
type MockEventStore struct {
	events map[int64]*models.Event
	nextID int64
	err    error
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{events: map[int64]*models.Event{}, nextID: 1}
}

func (m *MockEventStore) Create(event *models.Event) error {
	if m.err != nil {
		return m.err
	}
	event.ID = m.nextID
	m.nextID++
	m.events[event.ID] = event
	return nil
}

func (m *MockEventStore) GetByID(id int64) (*models.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.events[id], nil
}

func (m *MockEventStore) List() ([]*models.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.Event
	for _, e := range m.events {
		out = append(out, e)
	}
	return out, nil
}

func (m *MockEventStore) Update(event *models.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events[event.ID] = event
	return nil
}

func (m *MockEventStore) Delete(id int64) error {
	if m.err != nil {
		return m.err
	}
	delete(m.events, id)
	return nil
}

// MockEntryStore implements EntryStoreInterface for testing
type MockEntryStore struct {
	entries map[int64]*models.ExpenseEntry
	nextID  int64
	err     error
}

func NewMockEntryStore() *MockEntryStore {
	return &MockEntryStore{entries: map[int64]*models.ExpenseEntry{}, nextID: 1}
}

func (m *MockEntryStore) Create(entry *models.ExpenseEntry) error {
	if m.err != nil {
		return m.err
	}
	entry.ID = m.nextID
	m.nextID++
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockEntryStore) GetByID(id int64) (*models.ExpenseEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[id], nil
}

func (m *MockEntryStore) GetByEventID(eventID int64) ([]*models.ExpenseEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.ExpenseEntry
	for _, e := range m.entries {
		if e.EventID == eventID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEntryStore) Update(entry *models.ExpenseEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockEntryStore) UpdateStatus(id int64, status string) error {
	if m.err != nil {
		return m.err
	}
	if e, ok := m.entries[id]; ok {
		e.Status = status
	}
	return nil
}

func (m *MockEntryStore) Delete(id int64) error {
	if m.err != nil {
		return m.err
	}
	delete(m.entries, id)
	return nil
}

// MockExportRecordStore implements ExportStoreInterface for testing
type MockExportRecordStore struct {
	records map[int64][]*models.ExportRecord
}

func (m *MockExportRecordStore) GetByEventID(eventID int64) ([]*models.ExportRecord, error) {
	return m.records[eventID], nil
}

// MockReceiptStore implements ReceiptStoreInterface for testing
type MockReceiptStore struct {
	saved   map[string][]byte
	deleted []int64
	err     error
}

func NewMockReceiptStore() *MockReceiptStore {
	return &MockReceiptStore{saved: map[string][]byte{}}
}

func (m *MockReceiptStore) SaveReceipt(eventID int64, originalName string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	content, _ := io.ReadAll(r)
	stored := fmt.Sprintf("stored_%s", originalName)
	m.saved[stored] = content
	return stored, nil
}

func (m *MockReceiptStore) DeleteEventReceipts(eventID int64) error {
	m.deleted = append(m.deleted, eventID)
	return nil
}

// MockExporter implements ExporterInterface for testing
type MockExporter struct {
	result *export.Result
	err    error
}

func (m *MockExporter) Export(ctx context.Context, eventID int64, opts export.Options) (*export.Result, error) {
	return m.result, m.err
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type handlerFixture struct {
	router   *gin.Engine
	events   *MockEventStore
	entries  *MockEntryStore
	receipts *MockReceiptStore
	exporter *MockExporter
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	table, err := rates.NewTable(rates.DefaultConfig())
	require.NoError(t, err)

	f := &handlerFixture{
		events:   NewMockEventStore(),
		entries:  NewMockEntryStore(),
		receipts: NewMockReceiptStore(),
		exporter: &MockExporter{},
	}
	handlers := NewHandlers(
		f.events,
		f.entries,
		&MockExportRecordStore{records: map[int64][]*models.ExportRecord{}},
		f.receipts,
		mileage.NewCalculator(table),
		summary.NewAggregator(logger),
		table,
		f.exporter,
		logger,
	)
	f.router = NewRouter(handlers, logger)
	return f
}

func (f *handlerFixture) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *handlerFixture) activeEvent() *models.Event {
	event := &models.Event{
		Title:     "Sommerzeltlager",
		StartDate: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
		Status:    models.EventStatusActive,
	}
	_ = f.events.Create(event)
	return event
}

func TestCreateEvent(t *testing.T) {
	f := newHandlerFixture(t)

	t.Run("valid event", func(t *testing.T) {
		w := f.request(t, http.MethodPost, "/api/v1/events", gin.H{
			"title":      "Sommerzeltlager",
			"start_date": "2026-08-03",
			"end_date":   "2026-08-14",
			"iban":       "de89 3704 0044 0532 0130 00",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Data models.Event `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.EventStatusActive, resp.Data.Status)
		// IBAN is normalized before validation
		assert.Equal(t, "DE89370400440532013000", resp.Data.IBAN)
	})

	t.Run("end before start", func(t *testing.T) {
		w := f.request(t, http.MethodPost, "/api/v1/events", gin.H{
			"title":      "Kaputt",
			"start_date": "2026-08-14",
			"end_date":   "2026-08-03",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad date format", func(t *testing.T) {
		w := f.request(t, http.MethodPost, "/api/v1/events", gin.H{
			"title":      "Kaputt",
			"start_date": "03.08.2026",
			"end_date":   "14.08.2026",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreateEntry(t *testing.T) {
	f := newHandlerFixture(t)
	event := f.activeEvent()

	t.Run("manual amount", func(t *testing.T) {
		w := f.request(t, http.MethodPost, "/api/v1/entries", gin.H{
			"event_id":    event.ID,
			"category":    "FOOD",
			"amount":      "12.50",
			"description": "Lebensmittel",
			"entry_date":  "2026-08-04",
			"submit":      true,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Data models.ExpenseEntry `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.EntryStatusSubmitted, resp.Data.Status)
	})

	t.Run("mileage amount is computed", func(t *testing.T) {
		w := f.request(t, http.MethodPost, "/api/v1/entries", gin.H{
			"event_id":    event.ID,
			"description": "Fahrt zum Zeltplatz",
			"entry_date":  "2026-08-03",
			"mileage": gin.H{
				"distance_km":  "250",
				"vehicle_type": "car",
				"surcharges":   []string{"camp-leadership"},
			},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Data models.ExpenseEntry `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.CategoryTravel, resp.Data.Category)
		assert.Equal(t, "87.50", resp.Data.Amount.String())
		assert.Equal(t, models.EntryStatusDraft, resp.Data.Status)
	})

	t.Run("missing amount without mileage", func(t *testing.T) {
		w := f.request(t, http.MethodPost, "/api/v1/entries", gin.H{
			"event_id":    event.ID,
			"category":    "FOOD",
			"description": "ohne Betrag",
			"entry_date":  "2026-08-04",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown event", func(t *testing.T) {
		w := f.request(t, http.MethodPost, "/api/v1/entries", gin.H{
			"event_id":    int64(99),
			"category":    "FOOD",
			"amount":      "1.00",
			"description": "x",
			"entry_date":  "2026-08-04",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("inactive event rejects entries", func(t *testing.T) {
		inactive := &models.Event{
			Title:     "Abgeschlossen",
			StartDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
			Status:    models.EventStatusCompleted,
		}
		require.NoError(t, f.events.Create(inactive))

		w := f.request(t, http.MethodPost, "/api/v1/entries", gin.H{
			"event_id":    inactive.ID,
			"category":    "FOOD",
			"amount":      "1.00",
			"description": "zu spät",
			"entry_date":  "2026-08-04",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestUpdateEntryStatus(t *testing.T) {
	f := newHandlerFixture(t)
	event := f.activeEvent()

	entry := &models.ExpenseEntry{
		EventID:     event.ID,
		Category:    models.CategoryFood,
		Amount:      mustDecimal("10.00"),
		Description: "Test",
		EntryDate:   event.StartDate,
		Status:      models.EntryStatusDraft,
	}
	require.NoError(t, f.entries.Create(entry))

	t.Run("allowed transition", func(t *testing.T) {
		w := f.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/entries/%d/status", entry.ID),
			gin.H{"status": models.EntryStatusSubmitted})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, models.EntryStatusSubmitted, f.entries.entries[entry.ID].Status)
	})

	t.Run("forbidden transition", func(t *testing.T) {
		w := f.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/entries/%d/status", entry.ID),
			gin.H{"status": models.EntryStatusDraft})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown entry", func(t *testing.T) {
		w := f.request(t, http.MethodPatch, "/api/v1/entries/999/status",
			gin.H{"status": models.EntryStatusSubmitted})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteEntry(t *testing.T) {
	f := newHandlerFixture(t)
	event := f.activeEvent()

	draft := &models.ExpenseEntry{
		EventID: event.ID, Category: models.CategoryFood, Amount: mustDecimal("1.00"),
		Description: "d", EntryDate: event.StartDate, Status: models.EntryStatusDraft,
	}
	submitted := &models.ExpenseEntry{
		EventID: event.ID, Category: models.CategoryFood, Amount: mustDecimal("2.00"),
		Description: "s", EntryDate: event.StartDate, Status: models.EntryStatusSubmitted,
	}
	require.NoError(t, f.entries.Create(draft))
	require.NoError(t, f.entries.Create(submitted))

	w := f.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/entries/%d", draft.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/entries/%d", submitted.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetSummary(t *testing.T) {
	f := newHandlerFixture(t)
	event := f.activeEvent()

	require.NoError(t, f.entries.Create(&models.ExpenseEntry{
		EventID: event.ID, Category: models.CategoryParticipationFees,
		Amount: mustDecimal("120.00"), Description: "TN", EntryDate: event.StartDate,
		Status: models.EntryStatusSubmitted,
	}))
	require.NoError(t, f.entries.Create(&models.ExpenseEntry{
		EventID: event.ID, Category: models.CategoryFood,
		Amount: mustDecimal("830.50"), Description: "Essen", EntryDate: event.StartDate,
		Status: models.EntryStatusSubmitted,
	}))

	w := f.request(t, http.MethodGet, fmt.Sprintf("/api/v1/events/%d/summary", event.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data summary.CategorySummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "-710.50", resp.Data.Balance.String())
}

func TestPreviewMileage(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/mileage/preview", gin.H{
		"distance_km":  "180",
		"vehicle_type": "van",
		"surcharges":   []string{"material", "trailer"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data mileage.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "90.00", resp.Data.Amount.String())

	w = f.request(t, http.MethodPost, "/api/v1/mileage/preview", gin.H{
		"distance_km":  "10",
		"vehicle_type": "spaceship",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRates(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/rates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "car")
	assert.Contains(t, w.Body.String(), "camp-leadership")
	assert.Contains(t, w.Body.String(), "FOOD")
}

func TestUploadReceipt(t *testing.T) {
	f := newHandlerFixture(t)
	event := f.activeEvent()

	entry := &models.ExpenseEntry{
		EventID: event.ID, Category: models.CategoryFood, Amount: mustDecimal("10.00"),
		Description: "mit Beleg", EntryDate: event.StartDate, Status: models.EntryStatusDraft,
	}
	require.NoError(t, f.entries.Create(entry))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "beleg.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake png bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/entries/%d/receipt", entry.ID), &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "stored_beleg.png", f.entries.entries[entry.ID].ReceiptFile)
}

func TestExportStatementEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	event := f.activeEvent()

	f.exporter.result = &export.Result{
		Record: &models.ExportRecord{ID: 1, EventID: event.ID, ReferenceNumber: "AB-2026-08-AAAAAAAA"},
	}

	w := f.request(t, http.MethodPost, fmt.Sprintf("/api/v1/events/%d/export", event.ID),
		gin.H{"send_email": false})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "AB-2026-08-AAAAAAAA")

	w = f.request(t, http.MethodPost, "/api/v1/events/999/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEventCleansReceipts(t *testing.T) {
	f := newHandlerFixture(t)
	event := f.activeEvent()

	w := f.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/events/%d", event.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, f.receipts.deleted, event.ID)
}
