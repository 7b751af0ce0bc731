package dentist

import (
	"context"

	"github.com/google/uuid"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/repository"
)

type Service struct {
	repo repository.DentistRepository
}

func NewService(repo repository.DentistRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Dentist, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Dentist, error) {
	return s.repo.List(ctx)
}
