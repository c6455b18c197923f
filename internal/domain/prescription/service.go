package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

var (
	// ErrInvalidTransition is returned when a lifecycle operation is
	// attempted from a status that does not allow it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrEmptySchedule is returned by Finalize when no medication carries a
	// timing slot, so there would be nothing to materialize.
	ErrEmptySchedule = errors.New("prescription has no medications with timing slots")
)

// Scheduler materializes and discards dose events for a prescription. It is
// implemented by the schedule service and injected at wiring time.
type Scheduler interface {
	Materialize(ctx context.Context, p *Prescription) (int, error)
	DiscardPending(ctx context.Context, prescriptionID uuid.UUID) (int64, error)
}

// Service implements prescription business logic.
type Service struct {
	repo      Repository
	scheduler Scheduler
	logger    zerolog.Logger
}

func NewService(repo Repository, scheduler Scheduler, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		scheduler: scheduler,
		logger:    logger.With().Str("component", "prescription-service").Logger(),
	}
}

// CreateDraft creates a new prescription in draft status.
func (s *Service) CreateDraft(ctx context.Context, p *Prescription) (*Prescription, error) {
	p.Status = StatusDraft
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("prescription_id", p.ID.String()).
		Str("patient_id", p.PatientID.String()).
		Msg("prescription draft created")
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, params pagination.Params) ([]Prescription, int, error) {
	return s.repo.ListByPatient(ctx, patientID, params)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, params pagination.Params) ([]Prescription, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, params)
}

// UpdateDraft updates the dates and notes of a draft prescription. Active or
// terminal prescriptions cannot be edited.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, startDate, endDate string, notes *string) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusDraft {
		return nil, fmt.Errorf("%w: cannot edit %s prescription", ErrInvalidTransition, p.Status)
	}
	if startDate != "" {
		t, err := ParseDate(startDate)
		if err != nil {
			return nil, err
		}
		p.StartDate = t
	}
	if endDate != "" {
		t, err := ParseDate(endDate)
		if err != nil {
			return nil, err
		}
		p.EndDate = t
	}
	if notes != nil {
		p.Notes = *notes
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddMedication adds a medication line to a draft prescription.
func (s *Service) AddMedication(ctx context.Context, prescriptionID uuid.UUID, m *Medication) (*Medication, error) {
	p, err := s.repo.GetByID(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusDraft {
		return nil, fmt.Errorf("%w: cannot add medication to %s prescription", ErrInvalidTransition, p.Status)
	}
	m.PrescriptionID = prescriptionID
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.AddMedication(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RemoveMedication removes a medication line from a draft prescription.
func (s *Service) RemoveMedication(ctx context.Context, prescriptionID, medicationID uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, prescriptionID)
	if err != nil {
		return err
	}
	if p.Status != StatusDraft {
		return fmt.Errorf("%w: cannot remove medication from %s prescription", ErrInvalidTransition, p.Status)
	}
	return s.repo.RemoveMedication(ctx, prescriptionID, medicationID)
}

// Finalize activates a draft prescription and materializes its dose
// schedule. The prescription must carry at least one medication with at
// least one timing slot.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) (*Prescription, int, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if p.Status != StatusDraft {
		return nil, 0, fmt.Errorf("%w: cannot finalize %s prescription", ErrInvalidTransition, p.Status)
	}

	slots := 0
	for _, m := range p.Medications {
		slots += len(m.Timing)
	}
	if slots == 0 {
		return nil, 0, ErrEmptySchedule
	}

	p.Status = StatusActive
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, 0, err
	}

	created, err := s.scheduler.Materialize(ctx, p)
	if err != nil {
		// Roll the status back so finalize can be retried.
		p.Status = StatusDraft
		if rbErr := s.repo.Update(ctx, p); rbErr != nil {
			s.logger.Error().Err(rbErr).
				Str("prescription_id", p.ID.String()).
				Msg("failed to roll back prescription status")
		}
		return nil, 0, fmt.Errorf("materializing dose schedule: %w", err)
	}

	s.logger.Info().
		Str("prescription_id", p.ID.String()).
		Int("dose_events", created).
		Msg("prescription finalized")
	return p, created, nil
}

// Cancel cancels a draft or active prescription and discards its pending
// dose events.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusDraft && p.Status != StatusActive {
		return nil, fmt.Errorf("%w: cannot cancel %s prescription", ErrInvalidTransition, p.Status)
	}

	wasActive := p.Status == StatusActive
	p.Status = StatusCancelled
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	if wasActive {
		discarded, err := s.scheduler.DiscardPending(ctx, p.ID)
		if err != nil {
			s.logger.Error().Err(err).
				Str("prescription_id", p.ID.String()).
				Msg("failed to discard pending dose events")
		} else {
			s.logger.Info().
				Str("prescription_id", p.ID.String()).
				Int64("discarded", discarded).
				Msg("prescription cancelled")
		}
	}
	return p, nil
}

// Complete marks an active prescription as completed. Recorded dose events
// are kept for adherence history.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusActive {
		return nil, fmt.Errorf("%w: cannot complete %s prescription", ErrInvalidTransition, p.Status)
	}
	p.Status = StatusCompleted
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a draft prescription. Non-draft prescriptions must be
// cancelled instead so their history is preserved.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != StatusDraft {
		return fmt.Errorf("%w: only draft prescriptions can be deleted", ErrInvalidTransition)
	}
	return s.repo.Delete(ctx, id)
}
