package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/repository"
	"github.com/adsdental/clinic-api/pkg/apperror"
	"github.com/adsdental/clinic-api/pkg/security"
)

type Service struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// EnsureAdmin creates the bootstrap admin account when no account with
// the given email exists. Already-present accounts are left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !apperror.Is(err, apperror.CodeNotFound) {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperror.Storage(fmt.Errorf("failed to hash password: %w", err))
	}
	admin := &model.User{
		Username:     "admin",
		Email:        email,
		PasswordHash: hash,
		Enabled:      true,
	}
	return s.repo.Create(ctx, admin, model.RoleAdmin)
}

func (s *Service) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Storage(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Enabled:      true,
	}
	if err := s.repo.Create(ctx, user, req.Role); err != nil {
		return nil, err
	}
	user.Roles = []model.Role{{Name: req.Role}}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, apperror.Storage(fmt.Errorf("failed to hash password: %w", err))
		}
		user.PasswordHash = hash
	}
	if req.Enabled != nil {
		user.Enabled = *req.Enabled
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ReplaceRoles(ctx context.Context, id uuid.UUID, req *model.UpdateUserRolesRequest) (*model.User, error) {
	if err := s.repo.ReplaceRoles(ctx, id, req.Roles); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
