package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jugendwerk/aktionsabrechnung/internal/export"
	"github.com/jugendwerk/aktionsabrechnung/internal/mileage"
	"github.com/jugendwerk/aktionsabrechnung/internal/models"
	"github.com/jugendwerk/aktionsabrechnung/pkg/utils"
)

type mileageRequest struct {
	DistanceKm  string   `json:"distance_km" binding:"required"`
	VehicleType string   `json:"vehicle_type" binding:"required"`
	Passengers  int      `json:"passengers"`
	Surcharges  []string `json:"surcharges"`
}

func (req *mileageRequest) toDetails() (*models.MileageDetails, error) {
	distance, err := decimal.NewFromString(req.DistanceKm)
	if err != nil {
		return nil, fmt.Errorf("%w: distance_km is not a decimal number", models.ErrInvalidInput)
	}
	return &models.MileageDetails{
		DistanceKm:  distance,
		VehicleType: req.VehicleType,
		Passengers:  req.Passengers,
		Surcharges:  req.Surcharges,
	}, nil
}

type entryRequest struct {
	EventID        int64           `json:"event_id" binding:"required"`
	Category       string          `json:"category"`
	Amount         string          `json:"amount"`
	Description    string          `json:"description" binding:"required"`
	EntryDate      string          `json:"entry_date" binding:"required"`
	SubmitterName  string          `json:"submitter_name"`
	SubmitterGroup string          `json:"submitter_group"`
	Submit         bool            `json:"submit"` // create directly as SUBMITTED
	Mileage        *mileageRequest `json:"mileage"`
}

// toEntry converts the request into a validated entry. For mileage entries
// the amount is always computed from the rate table; a manually supplied
// amount is ignored.
func (h *Handlers) toEntry(req *entryRequest) (*models.ExpenseEntry, error) {
	entryDate, err := time.Parse(dateLayout, req.EntryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: entry_date must be YYYY-MM-DD", models.ErrInvalidInput)
	}

	entry := &models.ExpenseEntry{
		EventID:        req.EventID,
		Category:       models.Category(req.Category),
		Description:    utils.SanitizeString(req.Description),
		EntryDate:      entryDate,
		SubmitterName:  req.SubmitterName,
		SubmitterGroup: req.SubmitterGroup,
		Status:         models.EntryStatusDraft,
	}
	if req.Submit {
		entry.Status = models.EntryStatusSubmitted
	}

	if req.Mileage != nil {
		details, err := req.Mileage.toDetails()
		if err != nil {
			return nil, err
		}
		if entry.Category == "" {
			entry.Category = models.CategoryTravel
		}
		result, err := h.calculator.CalculateEntry(details)
		if err != nil {
			return nil, err
		}
		entry.Mileage = details
		entry.Amount = result.Amount
	} else {
		if req.Amount == "" {
			return nil, fmt.Errorf("%w: amount is required for non-mileage entries", models.ErrInvalidInput)
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: amount is not a decimal number", models.ErrInvalidInput)
		}
		entry.Amount = amount
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateEntry creates a new expense entry for an active event.
func (h *Handlers) CreateEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.GetByID(req.EventID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load event")
		return
	}
	if event == nil {
		respondError(c, http.StatusNotFound, "event not found")
		return
	}
	if !event.AcceptsEntries() {
		respondError(c, http.StatusConflict, "event does not accept new entries")
		return
	}

	entry, err := h.toEntry(&req)
	if err != nil {
		respondError(c, statusForError(err), err.Error())
		return
	}

	if err := h.entries.Create(entry); err != nil {
		h.logger.Error("Failed to create entry", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to create entry")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": entry})
}

// GetEntry returns one expense entry.
func (h *Handlers) GetEntry(c *gin.Context) {
	entry, ok := h.loadEntry(c)
	if !ok {
		return
	}
	respondOK(c, entry)
}

// ListEntries lists all entries of an event in insertion order.
func (h *Handlers) ListEntries(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}

	entries, err := h.entries.GetByEventID(event.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load entries")
		return
	}
	if entries == nil {
		entries = []*models.ExpenseEntry{}
	}
	respondOK(c, entries)
}

// UpdateEntry updates an entry that has not been sent yet. Submitters never
// edit entries after creation; this is an administrator operation.
func (h *Handlers) UpdateEntry(c *gin.Context) {
	existing, ok := h.loadEntry(c)
	if !ok {
		return
	}
	if existing.Status == models.EntryStatusSent {
		respondError(c, http.StatusConflict, "sent entries are immutable")
		return
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.EventID = existing.EventID // entries never move between events

	entry, err := h.toEntry(&req)
	if err != nil {
		respondError(c, statusForError(err), err.Error())
		return
	}
	entry.ID = existing.ID
	entry.ReceiptFile = existing.ReceiptFile
	entry.Status = existing.Status

	if err := h.entries.Update(entry); err != nil {
		h.logger.Error("Failed to update entry", zap.Int64("id", entry.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to update entry")
		return
	}
	respondOK(c, entry)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateEntryStatus performs an administrator status transition.
func (h *Handlers) UpdateEntryStatus(c *gin.Context) {
	entry, ok := h.loadEntry(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !models.CanTransitionEntry(entry.Status, req.Status) {
		respondError(c, http.StatusConflict,
			fmt.Sprintf("cannot transition entry from %s to %s", entry.Status, req.Status))
		return
	}

	if err := h.entries.UpdateStatus(entry.ID, req.Status); err != nil {
		h.logger.Error("Failed to update entry status", zap.Int64("id", entry.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to update entry status")
		return
	}
	entry.Status = req.Status
	respondOK(c, entry)
}

// DeleteEntry removes a draft entry. Entries past draft stay for the record.
func (h *Handlers) DeleteEntry(c *gin.Context) {
	entry, ok := h.loadEntry(c)
	if !ok {
		return
	}
	if entry.Status != models.EntryStatusDraft {
		respondError(c, http.StatusConflict, "only draft entries can be deleted")
		return
	}

	if err := h.entries.Delete(entry.ID); err != nil {
		h.logger.Error("Failed to delete entry", zap.Int64("id", entry.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to delete entry")
		return
	}
	respondOK(c, gin.H{"deleted": entry.ID})
}

// UploadReceipt stores a receipt file for an entry.
func (h *Handlers) UploadReceipt(c *gin.Context) {
	entry, ok := h.loadEntry(c)
	if !ok {
		return
	}
	if entry.Status == models.EntryStatusSent {
		respondError(c, http.StatusConflict, "sent entries are immutable")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing receipt file")
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to open uploaded file")
		return
	}
	defer file.Close()

	stored, err := h.receipts.SaveReceipt(entry.EventID, header.Filename, file)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	entry.ReceiptFile = stored
	if err := h.entries.Update(entry); err != nil {
		h.logger.Error("Failed to attach receipt to entry", zap.Int64("id", entry.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to attach receipt")
		return
	}
	respondOK(c, entry)
}

// PreviewMileage computes a mileage amount without creating an entry, for
// live display in the submission form.
func (h *Handlers) PreviewMileage(c *gin.Context) {
	var req mileageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	details, err := req.toDetails()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.calculator.Calculate(mileage.Input{
		DistanceKm:  details.DistanceKm,
		VehicleType: details.VehicleType,
		Passengers:  details.Passengers,
		Surcharges:  details.Surcharges,
	})
	if err != nil {
		respondError(c, statusForError(err), err.Error())
		return
	}
	respondOK(c, result)
}

type exportRequest struct {
	SendEmail bool `json:"send_email"`
}

// ExportStatement runs the export pipeline for an event and returns the
// export record together with any skipped receipts.
func (h *Handlers) ExportStatement(c *gin.Context) {
	event, ok := h.loadEvent(c)
	if !ok {
		return
	}

	var req exportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	result, err := h.exporter.Export(c.Request.Context(), event.ID, export.Options{SendEmail: req.SendEmail})
	if err != nil {
		if result != nil {
			// The package was written; only delivery failed.
			c.JSON(http.StatusAccepted, gin.H{
				"success": false,
				"data":    result,
				"error":   err.Error(),
			})
			return
		}
		h.logger.Error("Export failed", zap.Int64("event_id", event.ID), zap.Error(err))
		respondError(c, statusForError(err), err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": result})
}

// loadEntry resolves the :id path parameter to an entry, writing the error
// response itself when that fails.
func (h *Handlers) loadEntry(c *gin.Context) (*models.ExpenseEntry, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid entry id")
		return nil, false
	}

	entry, err := h.entries.GetByID(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load entry")
		return nil, false
	}
	if entry == nil {
		respondError(c, http.StatusNotFound, "entry not found")
		return nil, false
	}
	return entry, true
}
