package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

var (
	// ErrNotFound is returned when a profile or history item does not exist.
	ErrNotFound = errors.New("profile not found")
	// ErrAlreadyExists is returned when creating a profile for a patient
	// that already has one.
	ErrAlreadyExists = errors.New("profile already exists")
)

// Repository defines storage operations for patient profiles, history and
// doctor-patient links.
type Repository interface {
	Create(ctx context.Context, p *PatientProfile) error
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*PatientProfile, error)
	Update(ctx context.Context, p *PatientProfile) error

	AddHistoryItem(ctx context.Context, item *HistoryItem) error
	ListHistory(ctx context.Context, patientID uuid.UUID) ([]HistoryItem, error)
	RemoveHistoryItem(ctx context.Context, patientID, itemID uuid.UUID) error

	Link(ctx context.Context, doctorID, patientID uuid.UUID) error
	Unlink(ctx context.Context, doctorID, patientID uuid.UUID) error
	Linked(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
	ListPatients(ctx context.Context, doctorID uuid.UUID, params pagination.Params) ([]PatientProfile, int, error)
}
