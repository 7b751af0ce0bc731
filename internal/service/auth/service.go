package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/repository"
	"github.com/adsdental/clinic-api/pkg/apperror"
	"github.com/adsdental/clinic-api/pkg/auth"
	"github.com/adsdental/clinic-api/pkg/security"
)

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		// Collapse the missing-account case into the generic credential
		// failure so login never leaks whether an email is registered.
		if apperror.Is(err, apperror.CodeNotFound) {
			return nil, apperror.Unauthenticated("invalid credentials")
		}
		return nil, err
	}

	if !user.Enabled {
		return nil, apperror.Unauthenticated("account is disabled")
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, apperror.Unauthenticated("invalid credentials")
	}

	return s.issueToken(user)
}

// RegisterPatient creates an account with the PATIENT role plus its
// linked profile, all in one transaction.
func (s *Service) RegisterPatient(ctx context.Context, req *model.RegisterPatientRequest) (*model.TokenResponse, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		Username:     usernameFromEmail(req.Email),
		Email:        req.Email,
		PasswordHash: hash,
		Enabled:      true,
	}
	patient := &model.Patient{
		PatientNo: newPatientNo(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
	}

	var address *model.Address
	if req.Address != nil {
		address = &model.Address{
			Street:  req.Address.Street,
			City:    req.Address.City,
			State:   req.Address.State,
			ZipCode: req.Address.ZipCode,
		}
	}

	if err := s.userRepo.RegisterPatient(ctx, user, patient, address); err != nil {
		return nil, err
	}
	user.Roles = []model.Role{{Name: model.RolePatient}}

	return s.issueToken(user)
}

// RegisterDentist creates an account with the DENTIST role plus its
// linked profile, all in one transaction.
func (s *Service) RegisterDentist(ctx context.Context, req *model.RegisterDentistRequest) (*model.TokenResponse, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		Username:     usernameFromEmail(req.Email),
		Email:        req.Email,
		PasswordHash: hash,
		Enabled:      true,
	}
	dentist := &model.Dentist{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Email:          req.Email,
		Specialization: req.Specialization,
		SurgeryID:      req.SurgeryID,
	}

	if err := s.userRepo.RegisterDentist(ctx, user, dentist); err != nil {
		return nil, err
	}
	user.Roles = []model.Role{{Name: model.RoleDentist}}

	return s.issueToken(user)
}

// ResolveAccount maps a verified token subject back to a live account.
// Disabled or deleted accounts fail here even when the token itself is
// still within its lifetime.
func (s *Service) ResolveAccount(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if apperror.Is(err, apperror.CodeNotFound) {
			return nil, apperror.Unauthenticated("account no longer exists")
		}
		return nil, err
	}
	if !user.Enabled {
		return nil, apperror.Unauthenticated("account is disabled")
	}
	return user, nil
}

func (s *Service) issueToken(user *model.User) (*model.TokenResponse, error) {
	token, err := s.jwtSvc.Issue(user.ID, user.PrimaryRole())
	if err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to issue token: %w", err))
	}
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User: model.UserSummary{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Roles:    user.RoleNames(),
		},
	}, nil
}

func usernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

func newPatientNo() string {
	return fmt.Sprintf("P-%d-%s", time.Now().Year(), strings.ToUpper(uuid.NewString()[:8]))
}
