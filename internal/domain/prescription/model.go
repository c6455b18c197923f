package prescription

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a prescription.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusDraft:     true,
	StatusActive:    true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// Slot identifies a time-of-day dosing slot.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotNight     Slot = "night"
)

var validSlots = map[Slot]bool{
	SlotMorning:   true,
	SlotAfternoon: true,
	SlotNight:     true,
}

// SlotTime returns the wall-clock hour and minute a slot is scheduled at.
func SlotTime(s Slot) (hour, minute int) {
	switch s {
	case SlotMorning:
		return 8, 0
	case SlotAfternoon:
		return 13, 0
	case SlotNight:
		return 20, 0
	}
	return 0, 0
}

// Medication is a single drug line on a prescription.
type Medication struct {
	ID             uuid.UUID `json:"id"`
	PrescriptionID uuid.UUID `json:"prescription_id"`
	DrugName       string    `json:"drug_name"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency"`
	Timing         []Slot    `json:"timing"`
	Instructions   string    `json:"instructions,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate checks the medication fields and normalizes Timing by removing
// duplicate slots while preserving order.
func (m *Medication) Validate() error {
	if m.DrugName == "" {
		return fmt.Errorf("drug_name is required")
	}
	if m.Dosage == "" {
		return fmt.Errorf("dosage is required")
	}
	seen := make(map[Slot]bool, len(m.Timing))
	deduped := m.Timing[:0]
	for _, s := range m.Timing {
		if !validSlots[s] {
			return fmt.Errorf("invalid timing slot: %s", s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		deduped = append(deduped, s)
	}
	m.Timing = deduped
	return nil
}

// Prescription is a doctor-authored course of medications for a patient
// over a closed date range.
type Prescription struct {
	ID          uuid.UUID    `json:"id"`
	PatientID   uuid.UUID    `json:"patient_id"`
	DoctorID    uuid.UUID    `json:"doctor_id"`
	Status      Status       `json:"status"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	Notes       string       `json:"notes,omitempty"`
	Medications []Medication `json:"medications,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Validate checks the prescription fields. Dates are compared at day
// granularity; the end date is inclusive.
func (p *Prescription) Validate() error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if p.Status != "" && !validStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return fmt.Errorf("start_date and end_date are required")
	}
	if dateOnly(p.EndDate).Before(dateOnly(p.StartDate)) {
		return fmt.Errorf("end_date must not be before start_date")
	}
	return nil
}

// DurationDays returns the number of calendar days the prescription covers,
// counting both endpoints.
func (p *Prescription) DurationDays() int {
	start := dateOnly(p.StartDate)
	end := dateOnly(p.EndDate)
	return int(end.Sub(start).Hours()/24) + 1
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
