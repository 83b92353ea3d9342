// Package menu manages the hierarchical navigation tree and its permission
// strings.
package menu

import (
	"context"
	"errors"

	"github.com/burrow-admin/burrow/internal/rbac"
	"github.com/burrow-admin/burrow/internal/shared"
)

// Params carries the mutable fields of a menu for create/update.
type Params struct {
	ParentID   int64
	Title      string
	Path       string
	Permission string
	Icon       string
	Link       string
	Sort       int
	Hidden     bool
}

// Service implements menu business rules. Every successful mutation advances
// the permission generation flag.
type Service struct {
	repo     Repository
	resolver *rbac.Resolver
}

// NewService constructs a Service.
func NewService(repo Repository, resolver *rbac.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// Create validates and inserts a new menu.
func (s *Service) Create(ctx context.Context, p Params) (*Menu, error) {
	if err := s.validateParent(ctx, p.ParentID); err != nil {
		return nil, err
	}
	if err := s.validateUniqueness(ctx, p, 0); err != nil {
		return nil, err
	}

	m := &Menu{
		ParentID:   p.ParentID,
		Title:      p.Title,
		Path:       p.Path,
		Permission: p.Permission,
		Icon:       p.Icon,
		Link:       p.Link,
		Sort:       p.Sort,
		Hidden:     p.Hidden,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.resolver.Refresh()
	return m, nil
}

// Update validates and rewrites an existing menu. System menus are protected.
func (s *Service) Update(ctx context.Context, id int64, p Params) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return menuNotFound(err)
	}
	if existing.IsSystem {
		return shared.Validationf("system menus cannot be modified")
	}
	if p.ParentID == id {
		return shared.Validationf("menu cannot be its own parent")
	}
	if err := s.validateParent(ctx, p.ParentID); err != nil {
		return err
	}
	if p.ParentID != RootID {
		all, err := s.repo.List(ctx)
		if err != nil {
			return err
		}
		if isAncestor(all, id, p.ParentID) {
			return shared.Validationf("menu cannot be its own ancestor")
		}
	}
	if err := s.validateUniqueness(ctx, p, id); err != nil {
		return err
	}

	existing.ParentID = p.ParentID
	existing.Title = p.Title
	existing.Path = p.Path
	existing.Permission = p.Permission
	existing.Icon = p.Icon
	existing.Link = p.Link
	existing.Sort = p.Sort
	existing.Hidden = p.Hidden
	if err := s.repo.Update(ctx, existing); err != nil {
		return err
	}
	s.resolver.Refresh()
	return nil
}

// Delete removes a menu, all of its descendants and every role grant
// referencing their permission strings, atomically.
func (s *Service) Delete(ctx context.Context, id int64) error {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return menuNotFound(err)
	}
	if target.IsSystem {
		return shared.Validationf("system menus cannot be deleted")
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	ids := append([]int64{id}, descendantIDs(all, id)...)
	doomed := make(map[int64]struct{}, len(ids))
	for _, did := range ids {
		doomed[did] = struct{}{}
	}
	var permissions []string
	for _, m := range all {
		if _, ok := doomed[m.ID]; ok {
			permissions = append(permissions, m.Permission)
		}
	}

	if err := s.repo.DeleteCascade(ctx, ids, permissions); err != nil {
		return err
	}
	s.resolver.Refresh()
	return nil
}

// Tree returns the complete menu tree in storage shape.
func (s *Service) Tree(ctx context.Context) ([]RawNode, error) {
	menus, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildRaw(menus, RootID), nil
}

// UserRoutes returns the UI-navigation tree for a user, filtered by the
// user's permission set. Hidden menus never appear.
func (s *Service) UserRoutes(ctx context.Context, userID int64) ([]RouteNode, error) {
	menus, err := s.userMenus(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildRoutes(menus, RootID, ""), nil
}

// UserMenus returns the storage-shaped tree for a user, hidden menus included.
func (s *Service) UserMenus(ctx context.Context, userID int64) ([]RawNode, error) {
	menus, err := s.userMenus(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildRaw(menus, RootID), nil
}

func (s *Service) userMenus(ctx context.Context, userID int64) ([]Menu, error) {
	if shared.IsSuperUser(userID) {
		return s.repo.List(ctx)
	}

	permissions, err := s.resolver.UserPermissions(ctx, userID, s.resolver.Flag())
	if err != nil {
		return nil, err
	}
	if len(permissions) == 0 {
		return nil, nil
	}
	return s.repo.ListByPermissions(ctx, permissions)
}

func (s *Service) validateParent(ctx context.Context, parentID int64) error {
	if parentID == RootID {
		return nil
	}
	if _, err := s.repo.GetByID(ctx, parentID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Validationf("unknown parent menu")
		}
		return err
	}
	return nil
}

func (s *Service) validateUniqueness(ctx context.Context, p Params, excludeID int64) error {
	if p.Path != "" {
		exists, err := s.repo.PathExists(ctx, p.ParentID, p.Path, excludeID)
		if err != nil {
			return err
		}
		if exists {
			return shared.Validationf("menu path already exists")
		}
	}

	exists, err := s.repo.PermissionExists(ctx, p.Permission, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.Validationf("menu permission already exists")
	}
	return nil
}

func menuNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.Validationf("unknown menu")
	}
	return err
}
