package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/repository"
	"github.com/adsdental/clinic-api/pkg/apperror"
)

// slotConstraint is the partial unique index over
// (dentist_id, appointment_date, appointment_time) for non-cancelled
// appointments. It is the sole guard against concurrent double-booking:
// two bookers racing past any application-side check still serialize
// here.
const slotConstraint = "uq_dentist_slot"

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: NewBaseRepository(db)}
}

const appointmentColumns = `
	id, patient_id, dentist_id, surgery_id, appointment_date, appointment_time, status, created_at, updated_at
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO appointments (
				id, patient_id, dentist_id, surgery_id,
				appointment_date, appointment_time, status,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		appointment.ID = uuid.New()
		appointment.CreatedAt = time.Now()
		appointment.UpdatedAt = appointment.CreatedAt

		_, err := tx.ExecContext(ctx, query,
			appointment.ID,
			appointment.PatientID,
			appointment.DentistID,
			appointment.SurgeryID,
			appointment.Date,
			appointment.TimeOfDay,
			appointment.Status,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err, slotConstraint) {
				return apperror.SlotConflict("dentist already booked for this slot")
			}
			return apperror.Storage(fmt.Errorf("failed to create appointment: %w", err))
		}

		return insertOutboxEvent(ctx, tx, model.EventAppointmentBooked, appointment)
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT` + appointmentColumns + `FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("appointment")
		}
		return nil, apperror.Storage(fmt.Errorf("failed to get appointment: %w", err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListAll(ctx context.Context) ([]*model.Appointment, error) {
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		ORDER BY appointment_date ASC, appointment_time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query); err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to list appointments: %w", err))
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByDentist(ctx context.Context, dentistID uuid.UUID) ([]*model.Appointment, error) {
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE dentist_id = $1
		ORDER BY appointment_date ASC, appointment_time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, dentistID); err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to list dentist appointments: %w", err))
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_date ASC, appointment_time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to list patient appointments: %w", err))
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET status = $1, updated_at = $2
			WHERE id = $3
			RETURNING` + appointmentColumns

		var appointment model.Appointment
		if err := tx.GetContext(ctx, &appointment, query, status, time.Now(), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("appointment")
			}
			return apperror.Storage(fmt.Errorf("failed to update appointment status: %w", err))
		}

		eventType := model.EventAppointmentCancelled
		if status == model.AppointmentStatusCompleted {
			eventType = model.EventAppointmentCompleted
		}
		return insertOutboxEvent(ctx, tx, eventType, &appointment)
	})
}

func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to marshal outbox payload: %w", err))
	}

	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, retry_count, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
	`
	_, err = tx.ExecContext(ctx, query, uuid.New(), eventType, body, model.OutboxStatusPending, time.Now())
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to create outbox event: %w", err))
	}
	return nil
}
