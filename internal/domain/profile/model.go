package profile

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PatientProfile holds the demographic and clinical context used when
// assessing new prescriptions.
type PatientProfile struct {
	ID                 uuid.UUID `json:"id"`
	PatientID          uuid.UUID `json:"patient_id"`
	FullName           string    `json:"full_name"`
	DateOfBirth        time.Time `json:"date_of_birth"`
	Gender             string    `json:"gender,omitempty"`
	ConsultationReason string    `json:"consultation_reason,omitempty"`
	PastMedications    []string  `json:"past_medications,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Validate checks required profile fields.
func (p *PatientProfile) Validate() error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if p.DateOfBirth.IsZero() {
		return fmt.Errorf("date_of_birth is required")
	}
	if p.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("date_of_birth cannot be in the future")
	}
	return nil
}

// Age returns the patient's age in whole years at the given time, never
// negative.
func (p *PatientProfile) Age(at time.Time) int {
	years := at.Year() - p.DateOfBirth.Year()
	anniversary := p.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// HistoryItem is one known complication or condition on a patient's record.
type HistoryItem struct {
	ID           uuid.UUID `json:"id"`
	PatientID    uuid.UUID `json:"patient_id"`
	Complication string    `json:"complication"`
	Description  string    `json:"description,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

func (h *HistoryItem) Validate() error {
	if h.Complication == "" {
		return fmt.Errorf("complication is required")
	}
	return nil
}

// DoctorPatientLink records that a doctor treats a patient. Doctors may only
// view profiles of patients they are linked to.
type DoctorPatientLink struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id"`
	CreatedAt time.Time `json:"created_at"`
}
