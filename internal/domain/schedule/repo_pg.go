package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

// PgRepository is a PostgreSQL-backed dose event repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) BulkInsert(ctx context.Context, events []DoseEvent) error {
	if len(events) == 0 {
		return nil
	}
	now := time.Now().UTC()

	rows := make([][]interface{}, len(events))
	for i, e := range events {
		rows[i] = []interface{}{
			e.ID, e.PrescriptionID, e.MedicationID, e.PatientID,
			e.DrugName, e.Dosage, string(e.Slot), e.ScheduledAt, string(e.Status), now,
		}
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"dose_event"},
		[]string{"id", "prescription_id", "medication_id", "patient_id", "drug_name", "dosage", "slot", "scheduled_at", "status", "created_at"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("bulk inserting dose events: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*DoseEvent, error) {
	var e DoseEvent
	err := r.pool.QueryRow(ctx, `
		SELECT id, prescription_id, medication_id, patient_id, drug_name, dosage, slot, scheduled_at, status, recorded_at, created_at
		FROM dose_event WHERE id = $1`, id).
		Scan(&e.ID, &e.PrescriptionID, &e.MedicationID, &e.PatientID, &e.DrugName, &e.Dosage, &e.Slot, &e.ScheduledAt, &e.Status, &e.RecordedAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying dose event: %w", err)
	}
	return &e, nil
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, w Window, params pagination.Params) ([]DoseEvent, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM dose_event
		WHERE patient_id = $1 AND scheduled_at BETWEEN $2 AND $3`,
		patientID, w.From, w.To).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting dose events: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, prescription_id, medication_id, patient_id, drug_name, dosage, slot, scheduled_at, status, recorded_at, created_at
		FROM dose_event
		WHERE patient_id = $1 AND scheduled_at BETWEEN $2 AND $3
		ORDER BY scheduled_at, drug_name
		LIMIT $4 OFFSET $5`,
		patientID, w.From, w.To, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing dose events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *PgRepository) ListForSummary(ctx context.Context, patientID uuid.UUID, w Window) ([]DoseEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, prescription_id, medication_id, patient_id, drug_name, dosage, slot, scheduled_at, status, recorded_at, created_at
		FROM dose_event
		WHERE patient_id = $1 AND scheduled_at BETWEEN $2 AND $3
		ORDER BY scheduled_at, drug_name`,
		patientID, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("listing dose events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]DoseEvent, error) {
	var events []DoseEvent
	for rows.Next() {
		var e DoseEvent
		if err := rows.Scan(&e.ID, &e.PrescriptionID, &e.MedicationID, &e.PatientID, &e.DrugName, &e.Dosage, &e.Slot, &e.ScheduledAt, &e.Status, &e.RecordedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning dose event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status DoseStatus, recordedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE dose_event SET status = $2, recorded_at = $3 WHERE id = $1`,
		id, status, recordedAt)
	if err != nil {
		return fmt.Errorf("updating dose event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) DeletePending(ctx context.Context, prescriptionID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM dose_event WHERE prescription_id = $1 AND status = $2`,
		prescriptionID, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("deleting pending dose events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) MarkOverdueMissed(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE dose_event SET status = $1, recorded_at = $2
		WHERE status = $3 AND scheduled_at < $4`,
		StatusMissed, time.Now().UTC(), StatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("marking overdue dose events: %w", err)
	}
	return tag.RowsAffected(), nil
}
