package admins

import (
	"context"
	"errors"
	"strings"
)

// RepositoryPort defines data access methods for admin accounts.
type RepositoryPort interface {
	ListAdmins(ctx context.Context) ([]AdminWithRoles, error)
	GetAdmin(ctx context.Context, id string) (Admin, error)
}

// Service handles admin account business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListAdmins returns all admin accounts with their roles.
func (s *Service) ListAdmins(ctx context.Context) ([]AdminWithRoles, error) {
	return s.repo.ListAdmins(ctx)
}

// GetAdmin fetches a single admin account.
func (s *Service) GetAdmin(ctx context.Context, id string) (Admin, error) {
	if strings.TrimSpace(id) == "" {
		return Admin{}, errors.New("admins: id required")
	}
	return s.repo.GetAdmin(ctx, id)
}
