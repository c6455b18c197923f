package profile

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

// Service implements profile business logic.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "profile-service").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, p *PatientProfile) (*PatientProfile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("patient_id", p.PatientID.String()).Msg("profile created")
	return p, nil
}

func (s *Service) Get(ctx context.Context, patientID uuid.UUID) (*PatientProfile, error) {
	return s.repo.GetByPatient(ctx, patientID)
}

func (s *Service) Update(ctx context.Context, p *PatientProfile) (*PatientProfile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) AddHistoryItem(ctx context.Context, item *HistoryItem) (*HistoryItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	// History items attach to an existing profile only.
	if _, err := s.repo.GetByPatient(ctx, item.PatientID); err != nil {
		return nil, err
	}
	if err := s.repo.AddHistoryItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) ListHistory(ctx context.Context, patientID uuid.UUID) ([]HistoryItem, error) {
	return s.repo.ListHistory(ctx, patientID)
}

func (s *Service) RemoveHistoryItem(ctx context.Context, patientID, itemID uuid.UUID) error {
	return s.repo.RemoveHistoryItem(ctx, patientID, itemID)
}

func (s *Service) LinkPatient(ctx context.Context, doctorID, patientID uuid.UUID) error {
	if _, err := s.repo.GetByPatient(ctx, patientID); err != nil {
		return err
	}
	if err := s.repo.Link(ctx, doctorID, patientID); err != nil {
		return err
	}
	s.logger.Info().
		Str("doctor_id", doctorID.String()).
		Str("patient_id", patientID.String()).
		Msg("doctor linked to patient")
	return nil
}

func (s *Service) UnlinkPatient(ctx context.Context, doctorID, patientID uuid.UUID) error {
	return s.repo.Unlink(ctx, doctorID, patientID)
}

func (s *Service) Linked(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	return s.repo.Linked(ctx, doctorID, patientID)
}

func (s *Service) ListPatients(ctx context.Context, doctorID uuid.UUID, params pagination.Params) ([]PatientProfile, int, error) {
	return s.repo.ListPatients(ctx, doctorID, params)
}
