package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/repository"
	"github.com/adsdental/clinic-api/pkg/apperror"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{BaseRepository: NewBaseRepository(db)}
}

const patientColumns = `
	id, user_id, patient_no, first_name, last_name, phone, email, address_id, created_at, updated_at
`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient, address *model.Address) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if address != nil {
			if err := insertAddress(ctx, tx, address); err != nil {
				return err
			}
			patient.AddressID = &address.ID
		}
		return insertPatient(ctx, tx, patient)
	})
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT` + patientColumns + `FROM patients WHERE id = $1`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("patient")
		}
		return nil, apperror.Storage(fmt.Errorf("failed to get patient: %w", err))
	}

	if err := r.loadAddress(ctx, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	query := `SELECT` + patientColumns + `FROM patients WHERE user_id = $1`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ProfileNotFound("patient")
		}
		return nil, apperror.Storage(fmt.Errorf("failed to get patient by user: %w", err))
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT` + patientColumns + `FROM patients ORDER BY last_name ASC`

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to list patients: %w", err))
	}
	return patients, nil
}

func (r *patientRepository) Search(ctx context.Context, term string) ([]*model.Patient, error) {
	query := `SELECT` + patientColumns + `
		FROM patients
		WHERE first_name ILIKE $1
		   OR last_name ILIKE $1
		   OR patient_no ILIKE $1
		   OR email ILIKE $1
		   OR phone ILIKE $1
		ORDER BY last_name ASC
	`
	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, "%"+term+"%"); err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to search patients: %w", err))
	}
	return patients, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $1, last_name = $2, phone = $3, email = $4, address_id = $5, updated_at = $6
		WHERE id = $7
	`
	patient.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		patient.FirstName,
		patient.LastName,
		patient.Phone,
		patient.Email,
		patient.AddressID,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to update patient: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperror.NotFound("patient")
	}
	return nil
}

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to delete patient: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperror.NotFound("patient")
	}
	return nil
}

func (r *patientRepository) loadAddress(ctx context.Context, patient *model.Patient) error {
	if patient.AddressID == nil {
		return nil
	}

	var address model.Address
	query := `SELECT id, street, city, state, zip_code, created_at, updated_at FROM addresses WHERE id = $1`
	if err := r.db.GetContext(ctx, &address, query, *patient.AddressID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return apperror.Storage(fmt.Errorf("failed to load address: %w", err))
	}
	patient.Address = &address
	return nil
}
