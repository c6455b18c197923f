package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// PgRepository is a PostgreSQL-backed profile repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, p *PatientProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient_profile (id, patient_id, full_name, date_of_birth, gender, consultation_reason, past_medications, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.PatientID, p.FullName, p.DateOfBirth, p.Gender, p.ConsultationReason, p.PastMedications, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByPatient(ctx context.Context, patientID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	err := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, full_name, date_of_birth, gender, consultation_reason, past_medications, created_at, updated_at
		FROM patient_profile WHERE patient_id = $1`, patientID).
		Scan(&p.ID, &p.PatientID, &p.FullName, &p.DateOfBirth, &p.Gender, &p.ConsultationReason, &p.PastMedications, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &p, nil
}

func (r *PgRepository) Update(ctx context.Context, p *PatientProfile) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE patient_profile
		SET full_name = $2, date_of_birth = $3, gender = $4, consultation_reason = $5, past_medications = $6, updated_at = $7
		WHERE patient_id = $1`,
		p.PatientID, p.FullName, p.DateOfBirth, p.Gender, p.ConsultationReason, p.PastMedications, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) AddHistoryItem(ctx context.Context, item *HistoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.RecordedAt.IsZero() {
		item.RecordedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profile_history_item (id, patient_id, complication, description, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.PatientID, item.Complication, item.Description, item.RecordedAt)
	if err != nil {
		return fmt.Errorf("inserting history item: %w", err)
	}
	return nil
}

func (r *PgRepository) ListHistory(ctx context.Context, patientID uuid.UUID) ([]HistoryItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, complication, description, recorded_at
		FROM profile_history_item WHERE patient_id = $1
		ORDER BY recorded_at`, patientID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var items []HistoryItem
	for rows.Next() {
		var item HistoryItem
		if err := rows.Scan(&item.ID, &item.PatientID, &item.Complication, &item.Description, &item.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning history item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PgRepository) RemoveHistoryItem(ctx context.Context, patientID, itemID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM profile_history_item WHERE id = $1 AND patient_id = $2`,
		itemID, patientID)
	if err != nil {
		return fmt.Errorf("deleting history item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) Link(ctx context.Context, doctorID, patientID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctor_patient_link (doctor_id, patient_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (doctor_id, patient_id) DO NOTHING`,
		doctorID, patientID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("linking doctor to patient: %w", err)
	}
	return nil
}

func (r *PgRepository) Unlink(ctx context.Context, doctorID, patientID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM doctor_patient_link WHERE doctor_id = $1 AND patient_id = $2`,
		doctorID, patientID)
	if err != nil {
		return fmt.Errorf("unlinking doctor from patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) Linked(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM doctor_patient_link WHERE doctor_id = $1 AND patient_id = $2)`,
		doctorID, patientID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking doctor-patient link: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) ListPatients(ctx context.Context, doctorID uuid.UUID, params pagination.Params) ([]PatientProfile, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM doctor_patient_link WHERE doctor_id = $1`, doctorID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting linked patients: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.patient_id, p.full_name, p.date_of_birth, p.gender, p.consultation_reason, p.past_medications, p.created_at, p.updated_at
		FROM patient_profile p
		JOIN doctor_patient_link l ON l.patient_id = p.patient_id
		WHERE l.doctor_id = $1
		ORDER BY p.full_name
		LIMIT $2 OFFSET $3`,
		doctorID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing linked patients: %w", err)
	}
	defer rows.Close()

	var profiles []PatientProfile
	for rows.Next() {
		var p PatientProfile
		if err := rows.Scan(&p.ID, &p.PatientID, &p.FullName, &p.DateOfBirth, &p.Gender, &p.ConsultationReason, &p.PastMedications, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}
