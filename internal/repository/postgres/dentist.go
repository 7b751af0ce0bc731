package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/repository"
	"github.com/adsdental/clinic-api/pkg/apperror"
)

type dentistRepository struct {
	BaseRepository
}

func NewDentistRepository(db *sqlx.DB) repository.DentistRepository {
	return &dentistRepository{BaseRepository: NewBaseRepository(db)}
}

const dentistColumns = `
	id, user_id, first_name, last_name, phone, email, specialization, surgery_id, created_at, updated_at
`

func (r *dentistRepository) Get(ctx context.Context, id uuid.UUID) (*model.Dentist, error) {
	query := `SELECT` + dentistColumns + `FROM dentists WHERE id = $1`

	var dentist model.Dentist
	if err := r.db.GetContext(ctx, &dentist, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("dentist")
		}
		return nil, apperror.Storage(fmt.Errorf("failed to get dentist: %w", err))
	}
	return &dentist, nil
}

func (r *dentistRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Dentist, error) {
	query := `SELECT` + dentistColumns + `FROM dentists WHERE user_id = $1`

	var dentist model.Dentist
	if err := r.db.GetContext(ctx, &dentist, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ProfileNotFound("dentist")
		}
		return nil, apperror.Storage(fmt.Errorf("failed to get dentist by user: %w", err))
	}
	return &dentist, nil
}

func (r *dentistRepository) List(ctx context.Context) ([]*model.Dentist, error) {
	query := `SELECT` + dentistColumns + `FROM dentists ORDER BY last_name ASC`

	var dentists []*model.Dentist
	if err := r.db.SelectContext(ctx, &dentists, query); err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to list dentists: %w", err))
	}
	return dentists, nil
}
