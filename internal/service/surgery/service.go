package surgery

import (
	"context"

	"github.com/google/uuid"

	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/repository"
)

type Service struct {
	repo        repository.SurgeryRepository
	addressRepo repository.AddressRepository
}

func NewService(repo repository.SurgeryRepository, addressRepo repository.AddressRepository) *Service {
	return &Service{repo: repo, addressRepo: addressRepo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Surgery, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Surgery, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListAddresses(ctx context.Context) ([]*model.Address, error) {
	return s.addressRepo.List(ctx)
}
