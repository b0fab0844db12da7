package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Event represents an Aktion: a time-boxed activity expense entries are
// attributed to.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Treasurer   string    `json:"treasurer"` // responsible person for the cash box
	IBAN        string    `json:"iban,omitempty"`
	Status      string    `json:"status"` // ACTIVE, INACTIVE, COMPLETED
	MealDays    int       `json:"meal_days"`    // person-days eligible for meal subsidy
	SubsidyDays int       `json:"subsidy_days"` // person-days eligible for day subsidy
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event status constants
const (
	EventStatusActive    = "ACTIVE"
	EventStatusInactive  = "INACTIVE"
	EventStatusCompleted = "COMPLETED"
)

var ibanPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)

// Validate checks event field invariants.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: event title must not be empty", ErrInvalidInput)
	}
	if e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("%w: event end date before start date", ErrInvalidInput)
	}
	switch e.Status {
	case EventStatusActive, EventStatusInactive, EventStatusCompleted:
	default:
		return fmt.Errorf("%w: unknown event status %q", ErrInvalidInput, e.Status)
	}
	if e.IBAN != "" && !ibanPattern.MatchString(strings.ReplaceAll(e.IBAN, " ", "")) {
		return fmt.Errorf("%w: account identifier is not IBAN-shaped", ErrInvalidInput)
	}
	if e.MealDays < 0 || e.SubsidyDays < 0 {
		return fmt.Errorf("%w: day counts must not be negative", ErrInvalidInput)
	}
	return nil
}

// AcceptsEntries reports whether new entries may be attributed to the event.
// Only ACTIVE events accept new submissions; entries created earlier remain
// attributed regardless of later status changes.
func (e *Event) AcceptsEntries() bool {
	return e.Status == EventStatusActive
}

// HasGrantData reports whether the event carries the day counts required for
// the grant eligibility section of the statement.
func (e *Event) HasGrantData() bool {
	return e.MealDays > 0 || e.SubsidyDays > 0
}
