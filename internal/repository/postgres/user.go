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

type userRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hash, enabled, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, apperror.Storage(fmt.Errorf("failed to get user: %w", err))
	}

	if err := r.loadRoles(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hash, enabled, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, apperror.Storage(fmt.Errorf("failed to get user by email: %w", err))
	}

	if err := r.loadRoles(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT id, username, email, password_hash, enabled, created_at, updated_at
		FROM users
		ORDER BY created_at ASC
	`
	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to list users: %w", err))
	}

	for _, u := range users {
		if err := r.loadRoles(ctx, u); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User, roleName string) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		return linkRole(ctx, tx, user.ID, roleName)
	})
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, enabled = $4, updated_at = $5
		WHERE id = $6
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Enabled,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return apperror.AlreadyExists("username or email already in use")
		}
		return apperror.Storage(fmt.Errorf("failed to update user: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperror.NotFound("user")
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Profiles keep their rows; the FK detaches them via ON DELETE SET NULL.
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to delete user: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperror.NotFound("user")
	}
	return nil
}

func (r *userRepository) ReplaceRoles(ctx context.Context, id uuid.UUID, roleNames []string) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
			return apperror.Storage(fmt.Errorf("failed to check user: %w", err))
		}
		if !exists {
			return apperror.NotFound("user")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
			return apperror.Storage(fmt.Errorf("failed to clear roles: %w", err))
		}

		for _, name := range roleNames {
			if err := linkRole(ctx, tx, id, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *userRepository) RegisterPatient(ctx context.Context, user *model.User, patient *model.Patient, address *model.Address) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		if err := linkRole(ctx, tx, user.ID, model.RolePatient); err != nil {
			return err
		}
		if address != nil {
			if err := insertAddress(ctx, tx, address); err != nil {
				return err
			}
			patient.AddressID = &address.ID
		}
		patient.UserID = &user.ID
		return insertPatient(ctx, tx, patient)
	})
}

func (r *userRepository) RegisterDentist(ctx context.Context, user *model.User, dentist *model.Dentist) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		if err := linkRole(ctx, tx, user.ID, model.RoleDentist); err != nil {
			return err
		}

		query := `
			INSERT INTO dentists (id, user_id, first_name, last_name, phone, email, specialization, surgery_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		dentist.ID = uuid.New()
		dentist.UserID = &user.ID
		dentist.CreatedAt = time.Now()
		dentist.UpdatedAt = dentist.CreatedAt

		_, err := tx.ExecContext(ctx, query,
			dentist.ID,
			dentist.UserID,
			dentist.FirstName,
			dentist.LastName,
			dentist.Phone,
			dentist.Email,
			dentist.Specialization,
			dentist.SurgeryID,
			dentist.CreatedAt,
			dentist.UpdatedAt,
		)
		if err != nil {
			return apperror.Storage(fmt.Errorf("failed to create dentist profile: %w", err))
		}
		return nil
	})
}

// Roles are ordered by assignment time so the first-assigned role stays
// primary.
func (r *userRepository) loadRoles(ctx context.Context, user *model.User) error {
	query := `
		SELECT ro.id, ro.name, ro.created_at, ro.updated_at
		FROM roles ro
		JOIN user_roles ur ON ur.role_id = ro.id
		WHERE ur.user_id = $1
		ORDER BY ur.assigned_at ASC
	`
	if err := r.db.SelectContext(ctx, &user.Roles, query, user.ID); err != nil {
		return apperror.Storage(fmt.Errorf("failed to load roles: %w", err))
	}
	return nil
}

func insertUser(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := tx.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Enabled,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return apperror.AlreadyExists("username or email already registered")
		}
		return apperror.Storage(fmt.Errorf("failed to create user: %w", err))
	}
	return nil
}

func linkRole(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, roleName string) error {
	var roleID uuid.UUID
	if err := tx.GetContext(ctx, &roleID, `SELECT id FROM roles WHERE name = $1`, roleName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("role")
		}
		return apperror.Storage(fmt.Errorf("failed to look up role: %w", err))
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id, assigned_at) VALUES ($1, $2, $3)`,
		userID, roleID, time.Now(),
	)
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to assign role: %w", err))
	}
	return nil
}

func insertAddress(ctx context.Context, tx *sqlx.Tx, address *model.Address) error {
	query := `
		INSERT INTO addresses (id, street, city, state, zip_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	address.ID = uuid.New()
	address.CreatedAt = time.Now()
	address.UpdatedAt = address.CreatedAt

	_, err := tx.ExecContext(ctx, query,
		address.ID,
		address.Street,
		address.City,
		address.State,
		address.ZipCode,
		address.CreatedAt,
		address.UpdatedAt,
	)
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to create address: %w", err))
	}
	return nil
}

func insertPatient(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, user_id, patient_no, first_name, last_name, phone, email, address_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt

	_, err := tx.ExecContext(ctx, query,
		patient.ID,
		patient.UserID,
		patient.PatientNo,
		patient.FirstName,
		patient.LastName,
		patient.Phone,
		patient.Email,
		patient.AddressID,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return apperror.AlreadyExists("patient number already in use")
		}
		return apperror.Storage(fmt.Errorf("failed to create patient: %w", err))
	}
	return nil
}
