package prescription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

type mockRepo struct {
	prescriptions map[uuid.UUID]*Prescription
	medications   map[uuid.UUID][]Medication
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		prescriptions: make(map[uuid.UUID]*Prescription),
		medications:   make(map[uuid.UUID][]Medication),
	}
}

func (r *mockRepo) Create(_ context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.prescriptions[p.ID] = &cp
	return nil
}

func (r *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := r.prescriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.Medications = r.medications[id]
	return &cp, nil
}

func (r *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _ pagination.Params) ([]Prescription, int, error) {
	var out []Prescription
	for _, p := range r.prescriptions {
		if p.PatientID == patientID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (r *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, _ pagination.Params) ([]Prescription, int, error) {
	var out []Prescription
	for _, p := range r.prescriptions {
		if p.DoctorID == doctorID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (r *mockRepo) Update(_ context.Context, p *Prescription) error {
	if _, ok := r.prescriptions[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	cp.Medications = nil
	r.prescriptions[p.ID] = &cp
	return nil
}

func (r *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.prescriptions[id]; !ok {
		return ErrNotFound
	}
	delete(r.prescriptions, id)
	return nil
}

func (r *mockRepo) AddMedication(_ context.Context, m *Medication) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.medications[m.PrescriptionID] = append(r.medications[m.PrescriptionID], *m)
	return nil
}

func (r *mockRepo) RemoveMedication(_ context.Context, prescriptionID, medicationID uuid.UUID) error {
	meds := r.medications[prescriptionID]
	for i, m := range meds {
		if m.ID == medicationID {
			r.medications[prescriptionID] = append(meds[:i], meds[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *mockRepo) ListMedications(_ context.Context, prescriptionID uuid.UUID) ([]Medication, error) {
	return r.medications[prescriptionID], nil
}

type mockScheduler struct {
	materialized int
	discarded    int64
	failNext     bool
}

func (s *mockScheduler) Materialize(_ context.Context, p *Prescription) (int, error) {
	if s.failNext {
		return 0, errors.New("schedule store unavailable")
	}
	n := 0
	for _, m := range p.Medications {
		n += len(m.Timing) * p.DurationDays()
	}
	s.materialized += n
	return n, nil
}

func (s *mockScheduler) DiscardPending(_ context.Context, _ uuid.UUID) (int64, error) {
	s.discarded++
	return 3, nil
}

func newTestService() (*Service, *mockRepo, *mockScheduler) {
	repo := newMockRepo()
	sched := &mockScheduler{}
	return NewService(repo, sched, zerolog.Nop()), repo, sched
}

func draftPrescription() *Prescription {
	return &Prescription{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateDraft(t *testing.T) {
	svc, _, _ := newTestService()
	p, err := svc.CreateDraft(context.Background(), draftPrescription())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != StatusDraft {
		t.Errorf("expected draft status, got %s", p.Status)
	}
	if p.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
}

func TestCreateDraft_InvalidDates(t *testing.T) {
	svc, _, _ := newTestService()
	p := draftPrescription()
	p.EndDate = p.StartDate.AddDate(0, 0, -1)
	if _, err := svc.CreateDraft(context.Background(), p); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestFinalize(t *testing.T) {
	svc, _, sched := newTestService()
	p, err := svc.CreateDraft(context.Background(), draftPrescription())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddMedication(context.Background(), p.ID, &Medication{
		DrugName: "Amoxicillin", Dosage: "500mg", Timing: []Slot{SlotMorning, SlotNight},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	finalized, created, err := svc.Finalize(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finalized.Status != StatusActive {
		t.Errorf("expected active status, got %s", finalized.Status)
	}
	// 3 days x 2 slots
	if created != 6 {
		t.Errorf("expected 6 dose events, got %d", created)
	}
	if sched.materialized != 6 {
		t.Errorf("scheduler saw %d events", sched.materialized)
	}
}

func TestFinalize_NoMedications(t *testing.T) {
	svc, _, _ := newTestService()
	p, _ := svc.CreateDraft(context.Background(), draftPrescription())
	_, _, err := svc.Finalize(context.Background(), p.ID)
	if !errors.Is(err, ErrEmptySchedule) {
		t.Fatalf("expected ErrEmptySchedule, got %v", err)
	}
	got, _ := svc.Get(context.Background(), p.ID)
	if got.Status != StatusDraft {
		t.Errorf("prescription should stay draft, got %s", got.Status)
	}
}

func TestFinalize_AlreadyActive(t *testing.T) {
	svc, _, _ := newTestService()
	p, _ := svc.CreateDraft(context.Background(), draftPrescription())
	svc.AddMedication(context.Background(), p.ID, &Medication{
		DrugName: "X", Dosage: "1", Timing: []Slot{SlotMorning},
	})
	if _, _, err := svc.Finalize(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, err := svc.Finalize(context.Background(), p.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestFinalize_SchedulerFailureRollsBack(t *testing.T) {
	svc, repo, sched := newTestService()
	p, _ := svc.CreateDraft(context.Background(), draftPrescription())
	svc.AddMedication(context.Background(), p.ID, &Medication{
		DrugName: "X", Dosage: "1", Timing: []Slot{SlotMorning},
	})
	sched.failNext = true

	if _, _, err := svc.Finalize(context.Background(), p.ID); err == nil {
		t.Fatal("expected error from scheduler")
	}
	stored, _ := repo.GetByID(context.Background(), p.ID)
	if stored.Status != StatusDraft {
		t.Errorf("expected status rolled back to draft, got %s", stored.Status)
	}
}

func TestAddMedication_NonDraft(t *testing.T) {
	svc, _, _ := newTestService()
	p, _ := svc.CreateDraft(context.Background(), draftPrescription())
	svc.AddMedication(context.Background(), p.ID, &Medication{
		DrugName: "X", Dosage: "1", Timing: []Slot{SlotMorning},
	})
	svc.Finalize(context.Background(), p.ID)

	_, err := svc.AddMedication(context.Background(), p.ID, &Medication{
		DrugName: "Y", Dosage: "2", Timing: []Slot{SlotNight},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancel_DiscardsPendingWhenActive(t *testing.T) {
	svc, _, sched := newTestService()
	p, _ := svc.CreateDraft(context.Background(), draftPrescription())
	svc.AddMedication(context.Background(), p.ID, &Medication{
		DrugName: "X", Dosage: "1", Timing: []Slot{SlotMorning},
	})
	svc.Finalize(context.Background(), p.ID)

	cancelled, err := svc.Cancel(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected cancelled status, got %s", cancelled.Status)
	}
	if sched.discarded != 1 {
		t.Error("expected pending dose events to be discarded")
	}
}

func TestCancel_DraftSkipsDiscard(t *testing.T) {
	svc, _, sched := newTestService()
	p, _ := svc.CreateDraft(context.Background(), draftPrescription())
	if _, err := svc.Cancel(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.discarded != 0 {
		t.Error("draft cancel should not touch the schedule")
	}
}

func TestComplete(t *testing.T) {
	svc, _, _ := newTestService()
	p, _ := svc.CreateDraft(context.Background(), draftPrescription())

	// Completing a draft is a conflict.
	if _, err := svc.Complete(context.Background(), p.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	svc.AddMedication(context.Background(), p.ID, &Medication{
		DrugName: "X", Dosage: "1", Timing: []Slot{SlotMorning},
	})
	svc.Finalize(context.Background(), p.ID)

	done, err := svc.Complete(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", done.Status)
	}
}

func TestDelete_OnlyDraft(t *testing.T) {
	svc, _, _ := newTestService()
	p, _ := svc.CreateDraft(context.Background(), draftPrescription())
	svc.AddMedication(context.Background(), p.ID, &Medication{
		DrugName: "X", Dosage: "1", Timing: []Slot{SlotMorning},
	})
	svc.Finalize(context.Background(), p.ID)

	if err := svc.Delete(context.Background(), p.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Get(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
