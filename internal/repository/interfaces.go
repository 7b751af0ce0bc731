package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/adsdental/clinic-api/internal/model"
)

// Repositories return apperror values for domain-meaningful outcomes
// (NotFound, AlreadyExists, SlotConflict) and wrap everything else as a
// storage failure.

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	// Create inserts the account and links it to the named role in one
	// transaction.
	Create(ctx context.Context, user *model.User, roleName string) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceRoles(ctx context.Context, id uuid.UUID, roleNames []string) error

	// RegisterPatient creates account, PATIENT role link, optional
	// address, and patient profile as a single all-or-nothing write.
	RegisterPatient(ctx context.Context, user *model.User, patient *model.Patient, address *model.Address) error
	// RegisterDentist creates account, DENTIST role link, and dentist
	// profile as a single all-or-nothing write.
	RegisterDentist(ctx context.Context, user *model.User, dentist *model.Dentist) error
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient, address *model.Address) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
	List(ctx context.Context) ([]*model.Patient, error)
	Search(ctx context.Context, term string) ([]*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DentistRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Dentist, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Dentist, error)
	List(ctx context.Context) ([]*model.Dentist, error)
}

type SurgeryRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Surgery, error)
	List(ctx context.Context) ([]*model.Surgery, error)
}

type AddressRepository interface {
	List(ctx context.Context) ([]*model.Address, error)
}

type AppointmentRepository interface {
	// Create inserts the appointment and its outbox event in one
	// transaction. A violation of the (dentist, date, time) uniqueness
	// constraint surfaces as a slot conflict.
	Create(ctx context.Context, appointment *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	ListAll(ctx context.Context) ([]*model.Appointment, error)
	ListByDentist(ctx context.Context, dentistID uuid.UUID) ([]*model.Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
}

type OutboxRepository interface {
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
}
