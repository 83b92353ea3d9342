// Package users manages admin console accounts and their role assignments.
package users

import (
	"context"

	"github.com/burrow-admin/burrow/internal/rbac"
	"github.com/burrow-admin/burrow/internal/shared"
)

// Service wraps user account operations.
type Service struct {
	repo     Repository
	resolver *rbac.Resolver
}

// NewService constructs a Service.
func NewService(repo Repository, resolver *rbac.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// List returns one page of users.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// AssignRole links a user to a role. The assignment changes the user's
// effective permissions, so the generation flag advances.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.resolver.Refresh()
	return nil
}

// RemoveRole unlinks a user from a role and advances the generation flag.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.resolver.Refresh()
	return nil
}
