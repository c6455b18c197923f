package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

// ErrNotFound is returned when a dose event does not exist.
var ErrNotFound = errors.New("dose event not found")

// Repository defines storage operations for dose events.
type Repository interface {
	BulkInsert(ctx context.Context, events []DoseEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*DoseEvent, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, w Window, params pagination.Params) ([]DoseEvent, int, error)
	ListForSummary(ctx context.Context, patientID uuid.UUID, w Window) ([]DoseEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status DoseStatus, recordedAt time.Time) error
	DeletePending(ctx context.Context, prescriptionID uuid.UUID) (int64, error)
	MarkOverdueMissed(ctx context.Context, cutoff time.Time) (int64, error)
}
