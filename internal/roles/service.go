// Package roles implements role management: named permission sets with
// creator-scoped mutation rights and an escalation guard.
package roles

import (
	"context"
	"errors"

	"github.com/burrow-admin/burrow/internal/rbac"
	"github.com/burrow-admin/burrow/internal/shared"
)

// Service implements role business rules. Every successful mutation advances
// the permission generation flag.
type Service struct {
	repo     Repository
	resolver *rbac.Resolver
}

// NewService constructs a Service.
func NewService(repo Repository, resolver *rbac.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// List returns one page of roles.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Role, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	roles, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return roles, shared.NewPagination(page, perPage, total), nil
}

// Get returns a role with its permission grants.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, roleNotFound(err)
	}
	perms, err := s.repo.Permissions(ctx, id)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	return &Detail{Role: *role, Permissions: perms}, nil
}

// Create validates and inserts a role with its grants, atomically.
func (s *Service) Create(ctx context.Context, name string, permissions []string, actorID int64) (*Role, error) {
	exists, err := s.repo.NameExists(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Validationf("role name already exists")
	}

	granted, err := s.checkPermissions(ctx, permissions, actorID)
	if err != nil {
		return nil, err
	}

	role := &Role{Name: name, CreatorID: actorID}
	if err := s.repo.CreateWithGrants(ctx, role, granted); err != nil {
		return nil, err
	}
	s.resolver.Refresh()
	return role, nil
}

// Update renames a role and replaces its grant set, atomically. Non-superuser
// actors may only touch roles they created.
func (s *Service) Update(ctx context.Context, id int64, name string, permissions []string, actorID int64) error {
	if err := s.requireOwned(ctx, id, actorID); err != nil {
		return err
	}

	exists, err := s.repo.NameExists(ctx, name, id)
	if err != nil {
		return err
	}
	if exists {
		return shared.Validationf("role name already exists")
	}

	granted, err := s.checkPermissions(ctx, permissions, actorID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateWithGrants(ctx, id, name, granted); err != nil {
		return err
	}
	s.resolver.Refresh()
	return nil
}

// Delete removes a role, its grants and its user assignments, atomically.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if err := s.requireOwned(ctx, id, actorID); err != nil {
		return err
	}
	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		return err
	}
	s.resolver.Refresh()
	return nil
}

// checkPermissions deduplicates the requested permission strings, requires
// each to exist as a menu permission, and blocks non-superusers from granting
// anything they do not hold themselves.
func (s *Service) checkPermissions(ctx context.Context, permissions []string, actorID int64) ([]string, error) {
	unique := make([]string, 0, len(permissions))
	seen := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}

	if len(unique) > 0 {
		count, err := s.repo.CountMenuPermissions(ctx, unique)
		if err != nil {
			return nil, err
		}
		if count != len(unique) {
			return nil, shared.Validationf("unknown permission")
		}
	}

	if !shared.IsSuperUser(actorID) {
		for _, p := range unique {
			held, err := s.resolver.Check(ctx, actorID, p)
			if err != nil {
				return nil, err
			}
			if !held {
				return nil, shared.Validationf("cannot grant a permission you do not hold")
			}
		}
	}

	return unique, nil
}

func (s *Service) requireOwned(ctx context.Context, id, actorID int64) error {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return roleNotFound(err)
	}
	if !shared.IsSuperUser(actorID) && role.CreatorID != actorID {
		return shared.Validationf("unknown role")
	}
	return nil
}

func roleNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.Validationf("unknown role")
	}
	return err
}
