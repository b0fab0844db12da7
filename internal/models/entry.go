package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseEntry represents an Abrechnung: one claimed cost or income line item
// attributed to an event.
type ExpenseEntry struct {
	ID             int64           `json:"id"`
	EventID        int64           `json:"event_id"`
	Category       Category        `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	EntryDate      time.Time       `json:"entry_date"`
	SubmitterName  string          `json:"submitter_name,omitempty"`
	SubmitterGroup string          `json:"submitter_group,omitempty"`
	ReceiptFile    string          `json:"receipt_file,omitempty"` // stored receipt filename, if uploaded
	Status         string          `json:"status"`                 // DRAFT, SUBMITTED, SENT, REJECTED
	Mileage        *MileageDetails `json:"mileage,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// MileageDetails carries the inputs of a mileage-based entry. The amount of
// such an entry is computed from these fields, never entered directly.
type MileageDetails struct {
	DistanceKm  decimal.Decimal `json:"distance_km"`
	VehicleType string          `json:"vehicle_type"`
	Passengers  int             `json:"passengers"`
	Surcharges  []string        `json:"surcharges,omitempty"`
}

// Entry status constants
const (
	EntryStatusDraft     = "DRAFT"
	EntryStatusSubmitted = "SUBMITTED"
	EntryStatusSent      = "SENT"
	EntryStatusRejected  = "REJECTED"
)

// MaxDistanceKm is the sanity ceiling for a single trip.
var MaxDistanceKm = decimal.NewFromInt(10000)

// entryTransitions lists the allowed status transitions. All transitions are
// performed by an administrator; submitters never mutate an entry after
// creation.
var entryTransitions = map[string][]string{
	EntryStatusDraft:     {EntryStatusSubmitted},
	EntryStatusSubmitted: {EntryStatusSent, EntryStatusRejected},
	EntryStatusRejected:  {EntryStatusSubmitted},
}

// CanTransitionEntry reports whether an entry status change is allowed.
func CanTransitionEntry(from, to string) bool {
	for _, next := range entryTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Validate checks entry field invariants.
func (e *ExpenseEntry) Validate() error {
	if !e.Category.Known() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, e.Category)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be strictly positive", ErrInvalidInput)
	}
	if !e.Amount.Equal(e.Amount.Round(2)) {
		return fmt.Errorf("%w: amount has more than two decimal places", ErrInvalidInput)
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("%w: description must not be empty", ErrInvalidInput)
	}
	switch e.Status {
	case EntryStatusDraft, EntryStatusSubmitted, EntryStatusSent, EntryStatusRejected:
	default:
		return fmt.Errorf("%w: unknown entry status %q", ErrInvalidInput, e.Status)
	}
	if e.Mileage != nil {
		if err := e.Mileage.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks mileage field invariants. Vehicle type and surcharge names
// are checked against the rate table by the calculator, not here.
func (m *MileageDetails) Validate() error {
	if !m.DistanceKm.IsPositive() {
		return fmt.Errorf("%w: distance must be positive", ErrInvalidInput)
	}
	if m.DistanceKm.GreaterThan(MaxDistanceKm) {
		return fmt.Errorf("%w: distance %s km exceeds single-trip ceiling of %s km",
			ErrInvalidInput, m.DistanceKm.String(), MaxDistanceKm.String())
	}
	if m.Passengers < 0 {
		return fmt.Errorf("%w: passenger count must not be negative", ErrInvalidInput)
	}
	if strings.TrimSpace(m.VehicleType) == "" {
		return fmt.Errorf("%w: vehicle type must not be empty", ErrInvalidInput)
	}
	return nil
}
