package safetycheck

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/prescription"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/profile"
)

func testProfile() *profile.PatientProfile {
	return &profile.PatientProfile{
		PatientID:          uuid.New(),
		FullName:           "Jane Roe",
		DateOfBirth:        time.Now().AddDate(-40, 0, -1),
		Gender:             "female",
		ConsultationReason: "chest pain",
		PastMedications:    []string{"Aspirin", "Metformin"},
	}
}

func TestBuildRequest(t *testing.T) {
	p := testProfile()
	history := []profile.HistoryItem{
		{Complication: "Diabetes", Description: "type 2, diagnosed 2019"},
		{Complication: "Hypertension"},
	}
	meds := []prescription.Medication{
		{DrugName: "Warfarin", Dosage: "5mg", Timing: []prescription.Slot{prescription.SlotMorning, prescription.SlotAfternoon}},
		{DrugName: "Lisinopril", Dosage: "10mg", Frequency: "once daily"},
	}

	req := BuildRequest(p, history, meds)

	if req.Patient.Age != 40 {
		t.Errorf("expected age 40, got %d", req.Patient.Age)
	}
	if req.Patient.Gender != "female" {
		t.Errorf("expected gender preserved, got %q", req.Patient.Gender)
	}
	want := "Diabetes: type 2, diagnosed 2019; Hypertension"
	if req.History.KnownComplications != want {
		t.Errorf("known_complications = %q, want %q", req.History.KnownComplications, want)
	}
	if req.History.PastMedications != "Aspirin, Metformin" {
		t.Errorf("past_medications = %q", req.History.PastMedications)
	}
	if len(req.NewPrescriptions) != 2 {
		t.Fatalf("expected 2 prescriptions, got %d", len(req.NewPrescriptions))
	}
	if req.NewPrescriptions[0].Frequency != "Morning, Afternoon" {
		t.Errorf("frequency = %q, want %q", req.NewPrescriptions[0].Frequency, "Morning, Afternoon")
	}
	// Explicit frequency wins over timing.
	if req.NewPrescriptions[1].Frequency != "once daily" {
		t.Errorf("frequency = %q, want %q", req.NewPrescriptions[1].Frequency, "once daily")
	}
}

func TestBuildRequest_Sentinels(t *testing.T) {
	p := testProfile()
	p.Gender = ""
	p.ConsultationReason = "  "
	p.PastMedications = []string{"", "  "}

	meds := []prescription.Medication{{DrugName: "X", Dosage: "1"}}
	req := BuildRequest(p, nil, meds)

	if req.Patient.Gender != "Not specified" {
		t.Errorf("gender = %q, want %q", req.Patient.Gender, "Not specified")
	}
	if req.Patient.ConsultationReason != "Not specified" {
		t.Errorf("consultation_reason = %q, want %q", req.Patient.ConsultationReason, "Not specified")
	}
	if req.History.KnownComplications != "None provided" {
		t.Errorf("known_complications = %q, want %q", req.History.KnownComplications, "None provided")
	}
	if req.History.PastMedications != "None provided" {
		t.Errorf("past_medications = %q, want %q", req.History.PastMedications, "None provided")
	}
	if req.NewPrescriptions[0].Frequency != "As directed" {
		t.Errorf("frequency = %q, want %q", req.NewPrescriptions[0].Frequency, "As directed")
	}
}

func TestBuildRequest_AgeNeverNegative(t *testing.T) {
	p := testProfile()
	p.DateOfBirth = time.Now().AddDate(1, 0, 0)
	req := BuildRequest(p, nil, nil)
	if req.Patient.Age != 0 {
		t.Errorf("expected age clamped to 0, got %d", req.Patient.Age)
	}
}
