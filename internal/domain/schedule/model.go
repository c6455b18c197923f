package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/prescription"
)

// DoseStatus is the state of a single scheduled dose.
type DoseStatus string

const (
	StatusPending DoseStatus = "pending"
	StatusTaken   DoseStatus = "taken"
	StatusMissed  DoseStatus = "missed"
	StatusSkipped DoseStatus = "skipped"
)

// Terminal reports whether a status can no longer change. Only pending
// doses accept transitions.
func (s DoseStatus) Terminal() bool {
	return s == StatusTaken || s == StatusMissed || s == StatusSkipped
}

// DoseEvent is one scheduled intake of one medication at one slot on one day.
type DoseEvent struct {
	ID             uuid.UUID         `json:"id"`
	PrescriptionID uuid.UUID         `json:"prescription_id"`
	MedicationID   uuid.UUID         `json:"medication_id"`
	PatientID      uuid.UUID         `json:"patient_id"`
	DrugName       string            `json:"drug_name"`
	Dosage         string            `json:"dosage"`
	Slot           prescription.Slot `json:"slot"`
	ScheduledAt    time.Time         `json:"scheduled_at"`
	Status         DoseStatus        `json:"status"`
	RecordedAt     *time.Time        `json:"recorded_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Window is a closed date range used for adherence queries. Both endpoints
// are inclusive.
type Window struct {
	From time.Time
	To   time.Time
}

// ParseWindow builds a window from YYYY-MM-DD strings. The To bound is
// widened to the end of its day so events on the final day are included.
func ParseWindow(from, to string) (Window, error) {
	f, err := prescription.ParseDate(from)
	if err != nil {
		return Window{}, err
	}
	t, err := prescription.ParseDate(to)
	if err != nil {
		return Window{}, err
	}
	if t.Before(f) {
		return Window{}, fmt.Errorf("window end %s is before start %s", to, from)
	}
	return Window{From: f, To: t.AddDate(0, 0, 1).Add(-time.Nanosecond)}, nil
}
