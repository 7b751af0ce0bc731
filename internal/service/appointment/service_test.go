package appointment

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/pkg/apperror"
	"github.com/adsdental/clinic-api/pkg/metrics"
)

type slotKey struct {
	dentist uuid.UUID
	date    string
	timeOf  string
}

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	slots        map[slotKey]bool
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		slots:        make(map[slotKey]bool),
		appointments: make(map[uuid.UUID]*model.Appointment),
	}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := slotKey{a.DentistID, a.Date.Format("2006-01-02"), a.TimeOfDay}
	if f.slots[key] {
		return apperror.SlotConflict("dentist already booked for this slot")
	}
	f.slots[key] = true
	a.ID = uuid.New()
	stored := *a
	f.appointments[a.ID] = &stored
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, apperror.NotFound("appointment")
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAppointmentRepo) ListAll(_ context.Context) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Appointment, 0, len(f.appointments))
	for _, a := range f.appointments {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListByDentist(_ context.Context, dentistID uuid.UUID) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.appointments {
		if a.DentistID == dentistID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, a := range f.appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return apperror.NotFound("appointment")
	}
	a.Status = status
	return nil
}

type fakePatientRepo struct {
	byUser map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Create(context.Context, *model.Patient, *model.Address) error {
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	for _, p := range f.byUser {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperror.NotFound("patient")
}

func (f *fakePatientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Patient, error) {
	p, ok := f.byUser[userID]
	if !ok {
		return nil, apperror.ProfileNotFound("patient")
	}
	return p, nil
}

func (f *fakePatientRepo) List(context.Context) ([]*model.Patient, error)           { return nil, nil }
func (f *fakePatientRepo) Search(context.Context, string) ([]*model.Patient, error) { return nil, nil }
func (f *fakePatientRepo) Update(context.Context, *model.Patient) error             { return nil }
func (f *fakePatientRepo) Delete(context.Context, uuid.UUID) error                  { return nil }

type fakeDentistRepo struct {
	byUser map[uuid.UUID]*model.Dentist
}

func (f *fakeDentistRepo) Get(_ context.Context, id uuid.UUID) (*model.Dentist, error) {
	for _, d := range f.byUser {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperror.NotFound("dentist")
}

func (f *fakeDentistRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Dentist, error) {
	d, ok := f.byUser[userID]
	if !ok {
		return nil, apperror.ProfileNotFound("dentist")
	}
	return d, nil
}

func (f *fakeDentistRepo) List(context.Context) ([]*model.Dentist, error) { return nil, nil }

type fakeSurgeryRepo struct {
	surgeries map[uuid.UUID]*model.Surgery
}

func (f *fakeSurgeryRepo) Get(_ context.Context, id uuid.UUID) (*model.Surgery, error) {
	s, ok := f.surgeries[id]
	if !ok {
		return nil, apperror.NotFound("surgery")
	}
	return s, nil
}

func (f *fakeSurgeryRepo) List(context.Context) ([]*model.Surgery, error) { return nil, nil }

func userWithRoles(names ...string) *model.User {
	u := &model.User{Enabled: true}
	u.ID = uuid.New()
	for _, n := range names {
		u.Roles = append(u.Roles, model.Role{Name: n})
	}
	return u
}

type fixture struct {
	svc      *Service
	repo     *fakeAppointmentRepo
	patients *fakePatientRepo
	dentists *fakeDentistRepo
	dentist  *model.Dentist
	surgery  *model.Surgery
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dentistUser := uuid.New()
	dentist := &model.Dentist{FirstName: "Tony", LastName: "Smith"}
	dentist.ID = uuid.New()

	surgery := &model.Surgery{SurgeryNo: "S15", Name: "Main Street Surgery"}
	surgery.ID = uuid.New()

	repo := newFakeAppointmentRepo()
	patients := &fakePatientRepo{byUser: make(map[uuid.UUID]*model.Patient)}
	dentists := &fakeDentistRepo{byUser: map[uuid.UUID]*model.Dentist{dentistUser: dentist}}
	surgeries := &fakeSurgeryRepo{surgeries: map[uuid.UUID]*model.Surgery{surgery.ID: surgery}}

	return &fixture{
		svc:      NewService(repo, patients, dentists, surgeries, metrics.NewMetrics("test_appointment_"+uuid.NewString()[:8])),
		repo:     repo,
		patients: patients,
		dentists: dentists,
		dentist:  dentist,
		surgery:  surgery,
	}
}

func (fx *fixture) addPatient(t *testing.T) (*model.User, *model.Patient) {
	t.Helper()
	user := userWithRoles(model.RolePatient)
	patient := &model.Patient{PatientNo: "P-" + uuid.NewString()[:8], FirstName: "Jane", LastName: "Doe"}
	patient.ID = uuid.New()
	patient.UserID = &user.ID
	fx.patients.byUser[user.ID] = patient
	return user, patient
}

func TestBook(t *testing.T) {
	fx := newFixture(t)
	user, patient := fx.addPatient(t)

	booked, err := fx.svc.Book(context.Background(), user, &model.BookAppointmentRequest{
		DentistID: fx.dentist.ID,
		SurgeryID: fx.surgery.ID,
		Date:      "2026-10-01",
		TimeOfDay: "09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusBooked, booked.Status)
	assert.Equal(t, patient.ID, booked.PatientID)
	assert.Equal(t, fx.dentist.ID, booked.DentistID)
}

func TestBookRejectsBadDate(t *testing.T) {
	fx := newFixture(t)
	user, _ := fx.addPatient(t)

	_, err := fx.svc.Book(context.Background(), user, &model.BookAppointmentRequest{
		DentistID: fx.dentist.ID,
		SurgeryID: fx.surgery.ID,
		Date:      "01/10/2026",
		TimeOfDay: "09:30",
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestBookWithoutProfile(t *testing.T) {
	fx := newFixture(t)
	user := userWithRoles(model.RolePatient)

	_, err := fx.svc.Book(context.Background(), user, &model.BookAppointmentRequest{
		DentistID: fx.dentist.ID,
		SurgeryID: fx.surgery.ID,
		Date:      "2026-10-01",
		TimeOfDay: "09:30",
	})
	assert.True(t, apperror.Is(err, apperror.CodeProfileNotFound))
}

func TestBookSameSlotConflicts(t *testing.T) {
	fx := newFixture(t)
	first, _ := fx.addPatient(t)
	second, _ := fx.addPatient(t)

	req := &model.BookAppointmentRequest{
		DentistID: fx.dentist.ID,
		SurgeryID: fx.surgery.ID,
		Date:      "2026-10-01",
		TimeOfDay: "14:00",
	}

	_, err := fx.svc.Book(context.Background(), first, req)
	require.NoError(t, err)

	_, err = fx.svc.Book(context.Background(), second, req)
	assert.True(t, apperror.Is(err, apperror.CodeSlotConflict))
}

func TestBookConcurrentSameSlot(t *testing.T) {
	fx := newFixture(t)

	const bookers = 8
	users := make([]*model.User, bookers)
	for i := range users {
		users[i], _ = fx.addPatient(t)
	}

	req := &model.BookAppointmentRequest{
		DentistID: fx.dentist.ID,
		SurgeryID: fx.surgery.ID,
		Date:      "2026-10-01",
		TimeOfDay: "11:00",
	}

	var wg sync.WaitGroup
	errs := make([]error, bookers)
	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Book(context.Background(), users[i], req)
		}(i)
	}
	wg.Wait()

	var won, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case apperror.Is(err, apperror.CodeSlotConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, bookers-1, conflicted)
}

func TestListVisibleToAdmin(t *testing.T) {
	fx := newFixture(t)
	user, _ := fx.addPatient(t)

	_, err := fx.svc.Book(context.Background(), user, &model.BookAppointmentRequest{
		DentistID: fx.dentist.ID,
		SurgeryID: fx.surgery.ID,
		Date:      "2026-10-01",
		TimeOfDay: "09:00",
	})
	require.NoError(t, err)

	admin := userWithRoles(model.RoleAdmin)
	appointments, err := fx.svc.ListVisibleTo(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, appointments, 1)
}

func TestListVisibleToDentistScoped(t *testing.T) {
	fx := newFixture(t)
	user, _ := fx.addPatient(t)

	_, err := fx.svc.Book(context.Background(), user, &model.BookAppointmentRequest{
		DentistID: fx.dentist.ID,
		SurgeryID: fx.surgery.ID,
		Date:      "2026-10-01",
		TimeOfDay: "09:00",
	})
	require.NoError(t, err)

	otherDentist := &model.Dentist{FirstName: "Maria", LastName: "Garcia"}
	otherDentist.ID = uuid.New()
	otherUser := userWithRoles(model.RoleDentist)
	fx.dentists.byUser[otherUser.ID] = otherDentist

	appointments, err := fx.svc.ListVisibleTo(context.Background(), otherUser)
	require.NoError(t, err)
	assert.Empty(t, appointments)
}

func TestListVisibleToDentistWithoutProfile(t *testing.T) {
	fx := newFixture(t)

	caller := userWithRoles(model.RoleDentist)
	_, err := fx.svc.ListVisibleTo(context.Background(), caller)
	assert.True(t, apperror.Is(err, apperror.CodeProfileNotFound))
}

func TestListVisibleToAdminPrecedence(t *testing.T) {
	fx := newFixture(t)

	// An admin who also holds DENTIST but has no dentist profile still
	// gets the full listing.
	caller := userWithRoles(model.RoleDentist, model.RoleAdmin)
	appointments, err := fx.svc.ListVisibleTo(context.Background(), caller)
	require.NoError(t, err)
	assert.Empty(t, appointments)
}

func TestListVisibleToNoRole(t *testing.T) {
	fx := newFixture(t)

	caller := userWithRoles()
	_, err := fx.svc.ListVisibleTo(context.Background(), caller)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))
}

func TestCancelByOwningDentist(t *testing.T) {
	fx := newFixture(t)
	user, _ := fx.addPatient(t)

	booked, err := fx.svc.Book(context.Background(), user, &model.BookAppointmentRequest{
		DentistID: fx.dentist.ID,
		SurgeryID: fx.surgery.ID,
		Date:      "2026-10-01",
		TimeOfDay: "09:00",
	})
	require.NoError(t, err)

	dentistUser := userWithRoles(model.RoleDentist)
	fx.dentists.byUser[dentistUser.ID] = fx.dentist

	cancelled, err := fx.svc.Cancel(context.Background(), dentistUser, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
}

func TestCancelByOtherDentistForbidden(t *testing.T) {
	fx := newFixture(t)
	user, _ := fx.addPatient(t)

	booked, err := fx.svc.Book(context.Background(), user, &model.BookAppointmentRequest{
		DentistID: fx.dentist.ID,
		SurgeryID: fx.surgery.ID,
		Date:      "2026-10-01",
		TimeOfDay: "09:00",
	})
	require.NoError(t, err)

	otherDentist := &model.Dentist{}
	otherDentist.ID = uuid.New()
	otherUser := userWithRoles(model.RoleDentist)
	fx.dentists.byUser[otherUser.ID] = otherDentist

	_, err = fx.svc.Cancel(context.Background(), otherUser, booked.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))
}

func TestCompleteCancelledRejected(t *testing.T) {
	fx := newFixture(t)
	user, _ := fx.addPatient(t)

	booked, err := fx.svc.Book(context.Background(), user, &model.BookAppointmentRequest{
		DentistID: fx.dentist.ID,
		SurgeryID: fx.surgery.ID,
		Date:      "2026-10-01",
		TimeOfDay: "09:00",
	})
	require.NoError(t, err)

	admin := userWithRoles(model.RoleAdmin)
	_, err = fx.svc.Cancel(context.Background(), admin, booked.ID)
	require.NoError(t, err)

	_, err = fx.svc.Complete(context.Background(), admin, booked.ID)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}
