package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/prescription"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

type mockRepo struct {
	events map[uuid.UUID]*DoseEvent
}

func newMockRepo() *mockRepo {
	return &mockRepo{events: make(map[uuid.UUID]*DoseEvent)}
}

func (r *mockRepo) BulkInsert(_ context.Context, events []DoseEvent) error {
	for i := range events {
		cp := events[i]
		r.events[cp.ID] = &cp
	}
	return nil
}

func (r *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*DoseEvent, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, w Window, _ pagination.Params) ([]DoseEvent, int, error) {
	events, err := r.ListForSummary(context.Background(), patientID, w)
	return events, len(events), err
}

func (r *mockRepo) ListForSummary(_ context.Context, patientID uuid.UUID, w Window) ([]DoseEvent, error) {
	var out []DoseEvent
	for _, e := range r.events {
		if e.PatientID != patientID {
			continue
		}
		if e.ScheduledAt.Before(w.From) || e.ScheduledAt.After(w.To) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status DoseStatus, recordedAt time.Time) error {
	e, ok := r.events[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	e.RecordedAt = &recordedAt
	return nil
}

func (r *mockRepo) DeletePending(_ context.Context, prescriptionID uuid.UUID) (int64, error) {
	var n int64
	for id, e := range r.events {
		if e.PrescriptionID == prescriptionID && e.Status == StatusPending {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

func (r *mockRepo) MarkOverdueMissed(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, e := range r.events {
		if e.Status == StatusPending && e.ScheduledAt.Before(cutoff) {
			e.Status = StatusMissed
			n++
		}
	}
	return n, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func seedEvent(repo *mockRepo, patientID uuid.UUID, status DoseStatus, scheduledAt time.Time) uuid.UUID {
	id := uuid.New()
	repo.events[id] = &DoseEvent{
		ID:             id,
		PrescriptionID: uuid.New(),
		PatientID:      patientID,
		DrugName:       "Test",
		Dosage:         "1",
		Slot:           prescription.SlotMorning,
		ScheduledAt:    scheduledAt,
		Status:         status,
	}
	return id
}

func TestMaterialize(t *testing.T) {
	svc, repo := newTestService()
	p := testPrescription(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		prescription.Medication{ID: uuid.New(), DrugName: "A", Dosage: "1",
			Timing: []prescription.Slot{prescription.SlotMorning, prescription.SlotNight}},
	)

	n, err := svc.Materialize(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 events, got %d", n)
	}
	if len(repo.events) != 4 {
		t.Errorf("expected 4 stored events, got %d", len(repo.events))
	}
}

func TestMarkTaken(t *testing.T) {
	svc, repo := newTestService()
	patientID := uuid.New()
	id := seedEvent(repo, patientID, StatusPending, time.Now().UTC())

	e, err := svc.MarkTaken(context.Background(), id, patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Status != StatusTaken {
		t.Errorf("expected taken, got %s", e.Status)
	}
	if e.RecordedAt == nil {
		t.Error("expected recorded_at to be set")
	}
}

func TestMarkTaken_TerminalStatusRejected(t *testing.T) {
	svc, repo := newTestService()
	patientID := uuid.New()
	id := seedEvent(repo, patientID, StatusPending, time.Now().UTC())

	if _, err := svc.MarkTaken(context.Background(), id, patientID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.MarkMissed(context.Background(), id, patientID)
	if !errors.Is(err, ErrTerminalStatus) {
		t.Errorf("expected ErrTerminalStatus, got %v", err)
	}
}

func TestMarkTaken_WrongPatient(t *testing.T) {
	svc, repo := newTestService()
	id := seedEvent(repo, uuid.New(), StatusPending, time.Now().UTC())

	_, err := svc.MarkTaken(context.Background(), id, uuid.New())
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestMarkSkipped_IgnoresOwnership(t *testing.T) {
	svc, repo := newTestService()
	id := seedEvent(repo, uuid.New(), StatusPending, time.Now().UTC())

	e, err := svc.MarkSkipped(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Status != StatusSkipped {
		t.Errorf("expected skipped, got %s", e.Status)
	}
}

func TestAdherenceSummary(t *testing.T) {
	svc, repo := newTestService()
	patientID := uuid.New()
	day := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)

	seedEvent(repo, patientID, StatusTaken, day)
	seedEvent(repo, patientID, StatusTaken, day.Add(12*time.Hour))
	seedEvent(repo, patientID, StatusMissed, day.AddDate(0, 0, 1))
	seedEvent(repo, patientID, StatusSkipped, day.AddDate(0, 0, 1).Add(12*time.Hour))
	// Outside the window and for another patient; both excluded.
	seedEvent(repo, patientID, StatusMissed, day.AddDate(0, 1, 0))
	seedEvent(repo, uuid.New(), StatusMissed, day)

	w, err := ParseWindow("2025-01-01", "2025-01-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err := svc.AdherenceSummary(context.Background(), patientID, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Summary{Total: 4, Taken: 2, Missed: 1, Skipped: 1, Percent: 67}
	if s != want {
		t.Errorf("AdherenceSummary() = %+v, want %+v", s, want)
	}
}

func TestSweepOverdue(t *testing.T) {
	svc, repo := newTestService()
	patientID := uuid.New()
	now := time.Now().UTC()

	stale := seedEvent(repo, patientID, StatusPending, now.Add(-48*time.Hour))
	fresh := seedEvent(repo, patientID, StatusPending, now.Add(-1*time.Hour))
	taken := seedEvent(repo, patientID, StatusTaken, now.Add(-72*time.Hour))

	n, err := svc.SweepOverdue(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 swept event, got %d", n)
	}
	if repo.events[stale].Status != StatusMissed {
		t.Error("expected stale pending event marked missed")
	}
	if repo.events[fresh].Status != StatusPending {
		t.Error("expected recent pending event untouched")
	}
	if repo.events[taken].Status != StatusTaken {
		t.Error("expected resolved event untouched")
	}
}

func TestDiscardPending(t *testing.T) {
	svc, repo := newTestService()
	patientID := uuid.New()
	prescriptionID := uuid.New()

	for i, status := range []DoseStatus{StatusPending, StatusPending, StatusTaken} {
		id := seedEvent(repo, patientID, status, time.Now().UTC().Add(time.Duration(i)*time.Hour))
		repo.events[id].PrescriptionID = prescriptionID
	}

	n, err := svc.DiscardPending(context.Background(), prescriptionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 discarded events, got %d", n)
	}
	if len(repo.events) != 1 {
		t.Errorf("expected resolved event kept, have %d events", len(repo.events))
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("2025-01-01", "2025-01-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lastDay := time.Date(2025, 1, 3, 20, 0, 0, 0, time.UTC)
	if lastDay.After(w.To) {
		t.Error("expected window to include the whole final day")
	}

	if _, err := ParseWindow("2025-01-05", "2025-01-01"); err == nil {
		t.Error("expected error for inverted window")
	}
}
