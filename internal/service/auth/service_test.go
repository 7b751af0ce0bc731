package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/pkg/apperror"
	"github.com/adsdental/clinic-api/pkg/auth"
	"github.com/adsdental/clinic-api/pkg/security"
)

type fakeUserRepo struct {
	byEmail map[string]*model.User
	byID    map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: make(map[string]*model.User),
		byID:    make(map[uuid.UUID]*model.User),
	}
}

func (f *fakeUserRepo) add(u *model.User) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return u, nil
}

func (f *fakeUserRepo) List(context.Context) ([]*model.User, error) { return nil, nil }

func (f *fakeUserRepo) Create(_ context.Context, user *model.User, roleName string) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return apperror.AlreadyExists("username or email already registered")
	}
	user.Roles = []model.Role{{Name: roleName}}
	f.add(user)
	return nil
}

func (f *fakeUserRepo) Update(context.Context, *model.User) error               { return nil }
func (f *fakeUserRepo) Delete(context.Context, uuid.UUID) error                 { return nil }
func (f *fakeUserRepo) ReplaceRoles(context.Context, uuid.UUID, []string) error { return nil }

func (f *fakeUserRepo) RegisterPatient(_ context.Context, user *model.User, patient *model.Patient, _ *model.Address) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return apperror.AlreadyExists("username or email already registered")
	}
	f.add(user)
	patient.UserID = &user.ID
	return nil
}

func (f *fakeUserRepo) RegisterDentist(_ context.Context, user *model.User, dentist *model.Dentist) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return apperror.AlreadyExists("username or email already registered")
	}
	f.add(user)
	dentist.UserID = &user.ID
	return nil
}

func newTestService(repo *fakeUserRepo) *Service {
	jwtSvc := auth.NewJWTService("test-secret", 0)
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	return NewService(repo, jwtSvc, hasher)
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password, role string, enabled bool) *model.User {
	t.Helper()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	u := &model.User{
		Username:     "seeded",
		Email:        email,
		PasswordHash: hash,
		Enabled:      enabled,
		Roles:        []model.Role{{Name: role}},
	}
	repo.add(u)
	return u
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "jane@example.com", "correct horse", model.RolePatient, true)
	svc := newTestService(repo)

	token, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, []string{model.RolePatient}, token.User.Roles)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "jane@example.com", "correct horse", model.RolePatient, true)
	svc := newTestService(repo)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "jane@example.com",
		Password: "wrong horse",
	})
	assert.True(t, apperror.Is(err, apperror.CodeUnauthenticated))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "anything",
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeUnauthenticated))
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "jane@example.com", "correct horse", model.RolePatient, false)
	svc := newTestService(repo)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse",
	})
	assert.True(t, apperror.Is(err, apperror.CodeUnauthenticated))
}

func TestRegisterPatient(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	token, err := svc.RegisterPatient(context.Background(), &model.RegisterPatientRequest{
		Email:     "new@example.com",
		Password:  "secret password",
		FirstName: "Jane",
		LastName:  "Doe",
		Address: &model.AddressRequest{
			Street:  "1 Main St",
			City:    "Leeds",
			State:   "WY",
			ZipCode: "LS1",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", token.User.Username)
	assert.Equal(t, []string{model.RolePatient}, token.User.Roles)

	stored, err := repo.GetByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret password", stored.PasswordHash)
}

func TestRegisterPatientDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "taken@example.com", "pw", model.RolePatient, true)
	svc := newTestService(repo)

	_, err := svc.RegisterPatient(context.Background(), &model.RegisterPatientRequest{
		Email:     "taken@example.com",
		Password:  "secret password",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	assert.True(t, apperror.Is(err, apperror.CodeAlreadyExists))
}

func TestRegisterDentist(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	token, err := svc.RegisterDentist(context.Background(), &model.RegisterDentistRequest{
		Email:          "drsmith@example.com",
		Password:       "secret password",
		FirstName:      "Tony",
		LastName:       "Smith",
		Specialization: "Orthodontics",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleDentist}, token.User.Roles)
}

func TestResolveAccount(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "jane@example.com", "pw", model.RolePatient, true)
	svc := newTestService(repo)

	resolved, err := svc.ResolveAccount(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestResolveAccountDisabled(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "jane@example.com", "pw", model.RolePatient, false)
	svc := newTestService(repo)

	_, err := svc.ResolveAccount(context.Background(), user.ID)
	assert.True(t, apperror.Is(err, apperror.CodeUnauthenticated))
}

func TestResolveAccountMissing(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.ResolveAccount(context.Background(), uuid.New())
	assert.True(t, apperror.Is(err, apperror.CodeUnauthenticated))
}
