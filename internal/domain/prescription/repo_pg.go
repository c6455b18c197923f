package prescription

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

// PgRepository is a PostgreSQL-backed prescription repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = StatusDraft
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO prescription (id, patient_id, doctor_id, status, start_date, end_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.PatientID, p.DoctorID, p.Status, p.StartDate, p.EndDate, p.Notes, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting prescription: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	var p Prescription
	err := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, status, start_date, end_date, notes, created_at, updated_at
		FROM prescription WHERE id = $1`, id).
		Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.Status, &p.StartDate, &p.EndDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying prescription: %w", err)
	}

	meds, err := r.ListMedications(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Medications = meds
	return &p, nil
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, params pagination.Params) ([]Prescription, int, error) {
	return r.list(ctx, "patient_id", patientID, params)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, params pagination.Params) ([]Prescription, int, error) {
	return r.list(ctx, "doctor_id", doctorID, params)
}

func (r *PgRepository) list(ctx context.Context, column string, id uuid.UUID, params pagination.Params) ([]Prescription, int, error) {
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM prescription WHERE %s = $1`, column)
	if err := r.pool.QueryRow(ctx, countQuery, id).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting prescriptions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, patient_id, doctor_id, status, start_date, end_date, notes, created_at, updated_at
		FROM prescription WHERE %s = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, column)
	rows, err := r.pool.Query(ctx, query, id, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing prescriptions: %w", err)
	}
	defer rows.Close()

	var results []Prescription
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.Status, &p.StartDate, &p.EndDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning prescription: %w", err)
		}
		results = append(results, p)
	}
	return results, total, rows.Err()
}

func (r *PgRepository) Update(ctx context.Context, p *Prescription) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescription
		SET status = $2, start_date = $3, end_date = $4, notes = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, p.Status, p.StartDate, p.EndDate, p.Notes, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) AddMedication(ctx context.Context, m *Medication) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now().UTC()

	timing := make([]string, len(m.Timing))
	for i, s := range m.Timing {
		timing[i] = string(s)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO prescription_medication (id, prescription_id, drug_name, dosage, frequency, timing, instructions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.PrescriptionID, m.DrugName, m.Dosage, m.Frequency, timing, m.Instructions, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting medication: %w", err)
	}
	return nil
}

func (r *PgRepository) RemoveMedication(ctx context.Context, prescriptionID, medicationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM prescription_medication WHERE id = $1 AND prescription_id = $2`,
		medicationID, prescriptionID)
	if err != nil {
		return fmt.Errorf("deleting medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) ListMedications(ctx context.Context, prescriptionID uuid.UUID) ([]Medication, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, prescription_id, drug_name, dosage, frequency, timing, instructions, created_at
		FROM prescription_medication WHERE prescription_id = $1
		ORDER BY created_at`, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("listing medications: %w", err)
	}
	defer rows.Close()

	var meds []Medication
	for rows.Next() {
		var m Medication
		var timing []string
		if err := rows.Scan(&m.ID, &m.PrescriptionID, &m.DrugName, &m.Dosage, &m.Frequency, &timing, &m.Instructions, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning medication: %w", err)
		}
		m.Timing = make([]Slot, len(timing))
		for i, s := range timing {
			m.Timing[i] = Slot(s)
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}
