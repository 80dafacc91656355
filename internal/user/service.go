package user

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Directory returns every registered user except the caller.
func (s *Service) Directory(ctx context.Context, callerID uuid.UUID) ([]*User, error) {
	return s.repo.ListExcluding(ctx, callerID)
}
