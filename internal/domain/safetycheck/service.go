package safetycheck

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/prescription"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/profile"
)

// systemPrompt instructs the advisory model to act as a drug safety
// reviewer and to answer with the exact JSON shape the interpreter expects.
const systemPrompt = `You are a clinical drug safety reviewer. Given a patient's age, gender, consultation reason, known complications, past medications, and a list of newly prescribed drugs, assess the combined prescription for drug-drug interactions, contraindications against the patient's history, and dosage concerns.

Respond with a single JSON object and nothing else, in this exact shape:
{"overall_assessment": "Safe" | "Caution" | "High-Risk", "flags": [{"problematic_drug": "...", "issue": "...", "explanation": "...", "suggested_alternative": "..."}]}

Use an empty flags array when the prescription is safe.`

// PrescriptionSource provides stored prescriptions for assessment.
type PrescriptionSource interface {
	Get(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error)
}

// ProfileSource provides patient context for assessment.
type ProfileSource interface {
	Get(ctx context.Context, patientID uuid.UUID) (*profile.PatientProfile, error)
	ListHistory(ctx context.Context, patientID uuid.UUID) ([]profile.HistoryItem, error)
}

// Service runs safety checks against the advisory model.
type Service struct {
	advisor       Advisor
	prescriptions PrescriptionSource
	profiles      ProfileSource
	logger        zerolog.Logger
}

func NewService(advisor Advisor, prescriptions PrescriptionSource, profiles ProfileSource, logger zerolog.Logger) *Service {
	return &Service{
		advisor:       advisor,
		prescriptions: prescriptions,
		profiles:      profiles,
		logger:        logger.With().Str("component", "safetycheck-service").Logger(),
	}
}

// Check sends an assembled request to the advisory model and interprets the
// response. Failures surface as an error verdict, never as a Go error, so
// callers always get an assessment to act on.
func (s *Service) Check(ctx context.Context, req Request) RiskAssessment {
	payload, err := json.Marshal(req)
	if err != nil {
		return errorAssessment("encoding assessment request failed")
	}

	content, err := s.advisor.Complete(ctx, systemPrompt, string(payload))
	if err != nil {
		s.logger.Error().Err(err).Msg("advisory call failed")
		return errorAssessment("advisory service unavailable")
	}

	result := Interpret(content)
	s.logger.Info().
		Str("verdict", string(result.Verdict)).
		Int("flags", len(result.Flags)).
		Msg("safety check completed")
	return result
}

// CheckPrescription assembles the request from a stored prescription and the
// patient's profile, then runs the check.
func (s *Service) CheckPrescription(ctx context.Context, prescriptionID uuid.UUID) (RiskAssessment, error) {
	p, err := s.prescriptions.Get(ctx, prescriptionID)
	if err != nil {
		return RiskAssessment{}, err
	}
	prof, err := s.profiles.Get(ctx, p.PatientID)
	if err != nil {
		return RiskAssessment{}, err
	}
	history, err := s.profiles.ListHistory(ctx, p.PatientID)
	if err != nil {
		return RiskAssessment{}, err
	}

	req := BuildRequest(prof, history, p.Medications)
	return s.Check(ctx, req), nil
}
