package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

// ErrNotFound is returned when a prescription or medication does not exist.
var ErrNotFound = errors.New("prescription not found")

// Repository defines storage operations for prescriptions and their
// medication lines.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, params pagination.Params) ([]Prescription, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, params pagination.Params) ([]Prescription, int, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddMedication(ctx context.Context, m *Medication) error
	RemoveMedication(ctx context.Context, prescriptionID, medicationID uuid.UUID) error
	ListMedications(ctx context.Context, prescriptionID uuid.UUID) ([]Medication, error)
}
