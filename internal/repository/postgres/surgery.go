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

type surgeryRepository struct {
	BaseRepository
}

func NewSurgeryRepository(db *sqlx.DB) repository.SurgeryRepository {
	return &surgeryRepository{BaseRepository: NewBaseRepository(db)}
}

// surgeryRow flattens the surgery/address join.
type surgeryRow struct {
	model.Surgery
	Street  string `db:"street"`
	City    string `db:"city"`
	State   string `db:"state"`
	ZipCode string `db:"zip_code"`
}

func (row *surgeryRow) toSurgery() *model.Surgery {
	s := row.Surgery
	s.Address = &model.Address{
		Base:    model.Base{ID: s.AddressID},
		Street:  row.Street,
		City:    row.City,
		State:   row.State,
		ZipCode: row.ZipCode,
	}
	return &s
}

const surgeryQuery = `
	SELECT s.id, s.surgery_no, s.name, s.phone, s.address_id, s.created_at, s.updated_at,
	       a.street, a.city, a.state, a.zip_code
	FROM surgeries s
	JOIN addresses a ON a.id = s.address_id
`

func (r *surgeryRepository) Get(ctx context.Context, id uuid.UUID) (*model.Surgery, error) {
	var row surgeryRow
	if err := r.db.GetContext(ctx, &row, surgeryQuery+` WHERE s.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("surgery")
		}
		return nil, apperror.Storage(fmt.Errorf("failed to get surgery: %w", err))
	}
	return row.toSurgery(), nil
}

func (r *surgeryRepository) List(ctx context.Context) ([]*model.Surgery, error) {
	var rows []surgeryRow
	if err := r.db.SelectContext(ctx, &rows, surgeryQuery+` ORDER BY s.surgery_no ASC`); err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to list surgeries: %w", err))
	}

	surgeries := make([]*model.Surgery, 0, len(rows))
	for i := range rows {
		surgeries = append(surgeries, rows[i].toSurgery())
	}
	return surgeries, nil
}

type addressRepository struct {
	BaseRepository
}

func NewAddressRepository(db *sqlx.DB) repository.AddressRepository {
	return &addressRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *addressRepository) List(ctx context.Context) ([]*model.Address, error) {
	query := `SELECT id, street, city, state, zip_code, created_at, updated_at FROM addresses ORDER BY city ASC`

	var addresses []*model.Address
	if err := r.db.SelectContext(ctx, &addresses, query); err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to list addresses: %w", err))
	}
	return addresses, nil
}
