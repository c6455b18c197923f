package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/prescription"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

// ErrTerminalStatus is returned when a dose event that has already been
// resolved is marked again.
var ErrTerminalStatus = errors.New("dose event already resolved")

// ErrNotOwner is returned when a patient acts on another patient's dose.
var ErrNotOwner = errors.New("dose event belongs to another patient")

// Service implements dose schedule business logic.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "schedule-service").Logger(),
	}
}

// Materialize expands a prescription into dose events and stores them.
// It satisfies the prescription package's Scheduler interface.
func (s *Service) Materialize(ctx context.Context, p *prescription.Prescription) (int, error) {
	events, err := Expand(p)
	if err != nil {
		return 0, err
	}
	if err := s.repo.BulkInsert(ctx, events); err != nil {
		return 0, err
	}
	s.logger.Info().
		Str("prescription_id", p.ID.String()).
		Int("count", len(events)).
		Msg("dose schedule materialized")
	return len(events), nil
}

// DiscardPending removes pending dose events for a prescription, leaving
// resolved events in place for adherence history.
func (s *Service) DiscardPending(ctx context.Context, prescriptionID uuid.UUID) (int64, error) {
	return s.repo.DeletePending(ctx, prescriptionID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*DoseEvent, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, w Window, params pagination.Params) ([]DoseEvent, int, error) {
	return s.repo.ListByPatient(ctx, patientID, w, params)
}

// MarkTaken records a dose as taken. Only the owning patient (or an admin,
// enforced at the route level) may record, and only pending doses accept it.
func (s *Service) MarkTaken(ctx context.Context, id, callerID uuid.UUID) (*DoseEvent, error) {
	return s.mark(ctx, id, callerID, StatusTaken)
}

// MarkMissed records a dose as missed.
func (s *Service) MarkMissed(ctx context.Context, id, callerID uuid.UUID) (*DoseEvent, error) {
	return s.mark(ctx, id, callerID, StatusMissed)
}

// MarkSkipped records a dose as administratively skipped. Skipped doses are
// excluded from the adherence denominator. Ownership is not checked; the
// route restricts this to admins.
func (s *Service) MarkSkipped(ctx context.Context, id uuid.UUID) (*DoseEvent, error) {
	return s.mark(ctx, id, uuid.Nil, StatusSkipped)
}

func (s *Service) mark(ctx context.Context, id, callerID uuid.UUID, status DoseStatus) (*DoseEvent, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID != uuid.Nil && e.PatientID != callerID {
		return nil, ErrNotOwner
	}
	if e.Status.Terminal() {
		return nil, fmt.Errorf("%w: status is %s", ErrTerminalStatus, e.Status)
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, err
	}
	e.Status = status
	e.RecordedAt = &now
	return e, nil
}

// AdherenceSummary computes the adherence summary for a patient over a
// window.
func (s *Service) AdherenceSummary(ctx context.Context, patientID uuid.UUID, w Window) (Summary, error) {
	events, err := s.repo.ListForSummary(ctx, patientID, w)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(events), nil
}

// SweepOverdue marks pending doses whose scheduled time is more than
// olderThan in the past as missed. It is invoked periodically by the server.
func (s *Service) SweepOverdue(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	n, err := s.repo.MarkOverdueMissed(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("overdue doses marked missed")
	}
	return n, nil
}
