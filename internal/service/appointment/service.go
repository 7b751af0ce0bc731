package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/repository"
	"github.com/adsdental/clinic-api/pkg/apperror"
	"github.com/adsdental/clinic-api/pkg/metrics"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type Service struct {
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	dentistRepo repository.DentistRepository
	surgeryRepo repository.SurgeryRepository
	metrics     *metrics.Metrics
}

func NewService(repo repository.AppointmentRepository, patientRepo repository.PatientRepository,
	dentistRepo repository.DentistRepository, surgeryRepo repository.SurgeryRepository,
	m *metrics.Metrics) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		dentistRepo: dentistRepo,
		surgeryRepo: surgeryRepo,
		metrics:     m,
	}
}

// Book schedules an appointment for the calling patient. The slot check
// is not done here: the insert itself reports a conflict, so two
// concurrent bookings for the same slot cannot both succeed.
func (s *Service) Book(ctx context.Context, caller *model.User, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	patient, err := s.patientRepo.GetByUserID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, apperror.Validation("appointment_date must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse(timeLayout, req.TimeOfDay); err != nil {
		return nil, apperror.Validation("appointment_time must be in HH:MM format")
	}

	if _, err := s.dentistRepo.Get(ctx, req.DentistID); err != nil {
		return nil, err
	}
	if _, err := s.surgeryRepo.Get(ctx, req.SurgeryID); err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		PatientID: patient.ID,
		DentistID: req.DentistID,
		SurgeryID: req.SurgeryID,
		Date:      date,
		TimeOfDay: req.TimeOfDay,
		Status:    model.AppointmentStatusBooked,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		if apperror.Is(err, apperror.CodeSlotConflict) {
			s.metrics.SlotConflicts.Inc()
			log.Warn().
				Str("dentist_id", req.DentistID.String()).
				Str("date", req.Date).
				Str("time", req.TimeOfDay).
				Msg("booking rejected, slot already taken")
		}
		return nil, err
	}

	s.metrics.AppointmentsBooked.Inc()
	return appointment, nil
}

// ListVisibleTo returns the appointments the caller may see. An admin
// sees everything; a dentist or patient sees only appointments tied to
// their own profile. An account holding several roles is scoped by the
// widest one, checked admin first, then dentist, then patient.
func (s *Service) ListVisibleTo(ctx context.Context, caller *model.User) ([]*model.Appointment, error) {
	switch {
	case caller.HasRole(model.RoleAdmin):
		return s.repo.ListAll(ctx)
	case caller.HasRole(model.RoleDentist):
		dentist, err := s.dentistRepo.GetByUserID(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		return s.repo.ListByDentist(ctx, dentist.ID)
	case caller.HasRole(model.RolePatient):
		patient, err := s.patientRepo.GetByUserID(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		return s.repo.ListByPatient(ctx, patient.ID)
	default:
		return nil, apperror.Forbidden("no role grants access to appointments")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// Cancel marks a booked appointment cancelled. Admins may cancel any
// appointment, a dentist only their own.
func (s *Service) Cancel(ctx context.Context, caller *model.User, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, caller, id, model.AppointmentStatusCancelled)
}

// Complete marks a booked appointment completed, with the same
// permission shape as Cancel.
func (s *Service) Complete(ctx context.Context, caller *model.User, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, caller, id, model.AppointmentStatusCompleted)
}

func (s *Service) transition(ctx context.Context, caller *model.User, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.HasRole(model.RoleAdmin) {
		dentist, err := s.dentistRepo.GetByUserID(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		if dentist.ID != appointment.DentistID {
			return nil, apperror.Forbidden("appointment belongs to another dentist")
		}
	}

	if appointment.Status != model.AppointmentStatusBooked {
		return nil, apperror.Validation("only booked appointments can change status")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	appointment.Status = status
	return appointment, nil
}
