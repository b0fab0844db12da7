package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/mileage"
	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/internal/rates"
	"github.com/jugendwerk/aktionsabrechnung/internal/summary"
	"github.com/jugendwerk/aktionsabrechnung/pkg/utils"
)

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	events     EventStoreInterface
	entries    EntryStoreInterface
	exports    ExportStoreInterface
	receipts   ReceiptStoreInterface
	calculator *mileage.Calculator
	aggregator *summary.Aggregator
	table      *rates.Table
	exporter   ExporterInterface
	logger     *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	events EventStoreInterface,
	entries EntryStoreInterface,
	exports ExportStoreInterface,
	receipts ReceiptStoreInterface,
	calculator *mileage.Calculator,
	aggregator *summary.Aggregator,
	table *rates.Table,
	exporter ExporterInterface,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		events:     events,
		entries:    entries,
		exports:    exports,
		receipts:   receipts,
		calculator: calculator,
		aggregator: aggregator,
		table:      table,
		exporter:   exporter,
		logger:     logger,
	}
}

const dateLayout = "2006-01-02"

// GetRates returns the active rate table for form rendering.
func (h *Handlers) GetRates(c *gin.Context) {
	vehicles := make([]gin.H, 0)
	for _, name := range h.table.VehicleTypes() {
		rate, err := h.table.BaseRate(name, 0)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to resolve rate table")
			return
		}
		vehicles = append(vehicles, gin.H{"name": name, "base_rate": rate})
	}
	surcharges := make([]gin.H, 0)
	for _, name := range h.table.SurchargeNames() {
		rate, err := h.table.SurchargeRate(name)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to resolve rate table")
			return
		}
		surcharges = append(surcharges, gin.H{"name": name, "rate": rate})
	}

	respondOK(c, gin.H{
		"max_rate":   h.table.MaxRate(),
		"vehicles":   vehicles,
		"surcharges": surcharges,
		"categories": models.Categories(),
	})
}

type eventRequest struct {
	Title       string `json:"title" binding:"required"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Treasurer   string `json:"treasurer"`
	IBAN        string `json:"iban"`
	Status      string `json:"status"`
	MealDays    int    `json:"meal_days"`
	SubsidyDays int    `json:"subsidy_days"`
}

func (req *eventRequest) toEvent() (*models.Event, error) {
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD", models.ErrInvalidInput)
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date must be YYYY-MM-DD", models.ErrInvalidInput)
	}

	status := req.Status
	if status == "" {
		status = models.EventStatusActive
	}

	event := &models.Event{
		Title:       req.Title,
		Location:    req.Location,
		StartDate:   start,
		EndDate:     end,
		Treasurer:   req.Treasurer,
		IBAN:        utils.NormalizeIBAN(req.IBAN),
		Status:      status,
		MealDays:    req.MealDays,
		SubsidyDays: req.SubsidyDays,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// CreateEvent creates a new event.
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := req.toEvent()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.events.Create(event); err != nil {
		h.logger.Error("Failed to create event", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to create event")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": event})
}

// ListEvents lists all events, newest first.
func (h *Handlers) ListEvents(c *gin.Context) {
	events, err := h.events.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	respondOK(c, events)
}

// GetEvent returns one event.
func (h *Handlers) GetEvent(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}
	respondOK(c, event)
}

// UpdateEvent updates an event's fields.
func (h *Handlers) UpdateEvent(c *gin.Context) {
	existing, ok := h.loadEvent(c)
	if !ok {
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := req.toEvent()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	event.ID = existing.ID

	if err := h.events.Update(event); err != nil {
		h.logger.Error("Failed to update event", zap.Int64("id", event.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to update event")
		return
	}
	respondOK(c, event)
}

// DeleteEvent removes an event, its entries, and its stored receipts.
func (h *Handlers) DeleteEvent(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}

	if err := h.events.Delete(event.ID); err != nil {
		h.logger.Error("Failed to delete event", zap.Int64("id", event.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to delete event")
		return
	}
	if err := h.receipts.DeleteEventReceipts(event.ID); err != nil {
		// Rows are already gone; orphaned files are logged, not fatal.
		h.logger.Warn("Failed to delete event receipts", zap.Int64("id", event.ID), zap.Error(err))
	}
	respondOK(c, gin.H{"deleted": event.ID})
}

// GetSummary returns the per-category financial summary of an event. The
// summary is recomputed from the current entry set on every call.
func (h *Handlers) GetSummary(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}

	entries, err := h.entries.GetByEventID(event.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load entries")
		return
	}
	respondOK(c, h.aggregator.Aggregate(entries))
}

// ListExports lists the export records of an event.
func (h *Handlers) ListExports(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}

	records, err := h.exports.GetByEventID(event.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load export records")
		return
	}
	if records == nil {
		records = []*models.ExportRecord{}
	}
	respondOK(c, records)
}

// loadEvent resolves the :id path parameter to an event, writing the error
// response itself when that fails.
func (h *Handlers) loadEvent(c *gin.Context) (*models.Event, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid event id")
		return nil, false
	}

	event, err := h.events.GetByID(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load event")
		return nil, false
	}
	if event == nil {
		respondError(c, http.StatusNotFound, "event not found")
		return nil, false
	}
	return event, true
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	if errors.Is(err, models.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
