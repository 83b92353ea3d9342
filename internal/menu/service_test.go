package menu_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrow-admin/burrow/internal/menu"
	"github.com/burrow-admin/burrow/internal/platform/cache"
	"github.com/burrow-admin/burrow/internal/rbac"
	"github.com/burrow-admin/burrow/internal/shared"
	_ "github.com/burrow-admin/burrow/testing"
)

type mockRepo struct {
	menus  map[int64]*menu.Menu
	nextID int64

	// Error injection
	deleteErr error

	// Cascade capture
	deletedIDs   []int64
	deletedPerms []string
}

func newMockRepo(menus ...menu.Menu) *mockRepo {
	repo := &mockRepo{menus: make(map[int64]*menu.Menu), nextID: 1}
	for i := range menus {
		m := menus[i]
		repo.menus[m.ID] = &m
		if m.ID >= repo.nextID {
			repo.nextID = m.ID + 1
		}
	}
	return repo
}

func (r *mockRepo) List(ctx context.Context) ([]menu.Menu, error) {
	out := make([]menu.Menu, 0, len(r.menus))
	for _, m := range r.menus {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sort != out[j].Sort {
			return out[i].Sort < out[j].Sort
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *mockRepo) ListByPermissions(ctx context.Context, permissions []string) ([]menu.Menu, error) {
	allowed := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		allowed[p] = struct{}{}
	}
	all, _ := r.List(ctx)
	var out []menu.Menu
	for _, m := range all {
		if _, ok := allowed[m.Permission]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *mockRepo) GetByID(ctx context.Context, id int64) (*menu.Menu, error) {
	m, ok := r.menus[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *mockRepo) PathExists(ctx context.Context, parentID int64, path string, excludeID int64) (bool, error) {
	for _, m := range r.menus {
		if m.ParentID == parentID && m.Path == path && m.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockRepo) PermissionExists(ctx context.Context, permission string, excludeID int64) (bool, error) {
	for _, m := range r.menus {
		if m.Permission == permission && m.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockRepo) Create(ctx context.Context, m *menu.Menu) error {
	m.ID = r.nextID
	r.nextID++
	clone := *m
	r.menus[m.ID] = &clone
	return nil
}

func (r *mockRepo) Update(ctx context.Context, m *menu.Menu) error {
	if _, ok := r.menus[m.ID]; !ok {
		return shared.ErrNotFound
	}
	clone := *m
	r.menus[m.ID] = &clone
	return nil
}

func (r *mockRepo) DeleteCascade(ctx context.Context, ids []int64, permissions []string) error {
	if r.deleteErr != nil {
		// Simulated mid-deletion failure: the transaction rolls back, so
		// nothing is removed.
		return r.deleteErr
	}
	r.deletedIDs = ids
	r.deletedPerms = permissions
	for _, id := range ids {
		delete(r.menus, id)
	}
	return nil
}

type stubRBACRepo struct {
	perms map[int64][]string
}

func (s *stubRBACRepo) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	if len(s.perms[userID]) == 0 {
		return nil, nil
	}
	return []int64{userID}, nil
}

func (s *stubRBACRepo) RolePermissions(ctx context.Context, roleIDs []int64) ([]string, error) {
	var out []string
	for _, id := range roleIDs {
		out = append(out, s.perms[id]...)
	}
	return out, nil
}

func (s *stubRBACRepo) AllMenuPermissions(ctx context.Context) ([]string, error) {
	var out []string
	for _, perms := range s.perms {
		out = append(out, perms...)
	}
	return out, nil
}

func newService(t *testing.T, repo menu.Repository, userPerms map[int64][]string) (*menu.Service, *rbac.Resolver) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	resolver := rbac.NewResolver(&stubRBACRepo{perms: userPerms}, cache.NewTiered(client, "burrow", 128, time.Minute))
	return menu.NewService(repo, resolver), resolver
}

func TestCreateRejectsDuplicatePathUnderSameParent(t *testing.T) {
	repo := newMockRepo(menu.Menu{ID: 1, ParentID: 0, Path: "/users", Permission: "user.list"})
	svc, _ := newService(t, repo, nil)

	_, err := svc.Create(context.Background(), menu.Params{ParentID: 0, Title: "Dup", Path: "/users", Permission: "other"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateAllowsSamePathUnderDifferentParent(t *testing.T) {
	repo := newMockRepo(
		menu.Menu{ID: 1, ParentID: 0, Path: "/sys", Permission: "sys"},
		menu.Menu{ID: 2, ParentID: 1, Path: "/list", Permission: "sys.list"},
	)
	svc, _ := newService(t, repo, nil)

	created, err := svc.Create(context.Background(), menu.Params{ParentID: 0, Title: "Other", Path: "/list", Permission: "other.list"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestCreateAllowsEmptyPathSiblings(t *testing.T) {
	repo := newMockRepo(
		menu.Menu{ID: 1, ParentID: 0, Path: "/sys", Permission: "sys"},
		menu.Menu{ID: 2, ParentID: 1, Path: "", Permission: "sys.create", Hidden: true},
	)
	svc, _ := newService(t, repo, nil)

	created, err := svc.Create(context.Background(), menu.Params{ParentID: 1, Title: "Delete", Path: "", Permission: "sys.delete", Hidden: true})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestCreateRejectsDuplicatePermission(t *testing.T) {
	repo := newMockRepo(menu.Menu{ID: 1, ParentID: 0, Path: "/users", Permission: "user.list"})
	svc, _ := newService(t, repo, nil)

	_, err := svc.Create(context.Background(), menu.Params{ParentID: 0, Title: "Dup", Path: "/other", Permission: "user.list"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsUnknownParent(t *testing.T) {
	svc, _ := newService(t, newMockRepo(), nil)

	_, err := svc.Create(context.Background(), menu.Params{ParentID: 99, Title: "Orphan", Path: "/x", Permission: "x"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateAdvancesFlag(t *testing.T) {
	svc, resolver := newService(t, newMockRepo(), nil)

	before := resolver.Flag()
	_, err := svc.Create(context.Background(), menu.Params{ParentID: 0, Title: "New", Path: "/n", Permission: "n"})
	require.NoError(t, err)
	assert.NotEqual(t, before, resolver.Flag())
}

func TestUpdateRejectsSelfParenting(t *testing.T) {
	repo := newMockRepo(menu.Menu{ID: 1, ParentID: 0, Path: "/a", Permission: "a"})
	svc, _ := newService(t, repo, nil)

	err := svc.Update(context.Background(), 1, menu.Params{ParentID: 1, Title: "Self", Path: "/a", Permission: "a"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateRejectsDescendantAsParent(t *testing.T) {
	repo := newMockRepo(
		menu.Menu{ID: 1, ParentID: 0, Path: "/a", Permission: "a"},
		menu.Menu{ID: 2, ParentID: 1, Path: "/b", Permission: "b"},
	)
	svc, _ := newService(t, repo, nil)

	err := svc.Update(context.Background(), 1, menu.Params{ParentID: 2, Title: "Cycle", Path: "/a", Permission: "a"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateProtectsSystemMenus(t *testing.T) {
	repo := newMockRepo(menu.Menu{ID: 1, ParentID: 0, Path: "/sys", Permission: "sys", IsSystem: true})
	svc, _ := newService(t, repo, nil)

	err := svc.Update(context.Background(), 1, menu.Params{ParentID: 0, Title: "Hack", Path: "/sys", Permission: "sys"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteCascadesDescendantsAndGrants(t *testing.T) {
	repo := newMockRepo(
		menu.Menu{ID: 1, ParentID: 0, Path: "/sys", Permission: "sys"},
		menu.Menu{ID: 2, ParentID: 1, Path: "/users", Permission: "user.list"},
		menu.Menu{ID: 3, ParentID: 2, Path: "/detail", Permission: "user.detail"},
		menu.Menu{ID: 4, ParentID: 0, Path: "/other", Permission: "other"},
	)
	svc, _ := newService(t, repo, nil)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.ElementsMatch(t, []int64{1, 2, 3}, repo.deletedIDs)
	assert.ElementsMatch(t, []string{"sys", "user.list", "user.detail"}, repo.deletedPerms)

	_, err := repo.GetByID(context.Background(), 4)
	assert.NoError(t, err, "unrelated menus survive")
}

func TestDeleteFailureLeavesStateIntact(t *testing.T) {
	repo := newMockRepo(
		menu.Menu{ID: 1, ParentID: 0, Path: "/sys", Permission: "sys"},
		menu.Menu{ID: 2, ParentID: 1, Path: "/users", Permission: "user.list"},
	)
	repo.deleteErr = assert.AnError
	svc, resolver := newService(t, repo, nil)

	before := resolver.Flag()
	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Len(t, repo.menus, 2)
	assert.Equal(t, before, resolver.Flag(), "failed delete must not advance the flag")
}

func TestDeleteProtectsSystemMenus(t *testing.T) {
	repo := newMockRepo(menu.Menu{ID: 1, ParentID: 0, Path: "/sys", Permission: "sys", IsSystem: true})
	svc, _ := newService(t, repo, nil)

	err := svc.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUserRoutesFiltersByPermission(t *testing.T) {
	repo := newMockRepo(
		menu.Menu{ID: 1, ParentID: 0, Title: "Users", Path: "/users", Permission: "user.list"},
		menu.Menu{ID: 2, ParentID: 0, Title: "Roles", Path: "/roles", Permission: "role.list"},
	)
	svc, _ := newService(t, repo, map[int64][]string{5: {"user.list"}})

	tree, err := svc.UserRoutes(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "user.list", tree[0].Name)
}

func TestUserRoutesEmptyPermissionSetShortCircuits(t *testing.T) {
	repo := newMockRepo(menu.Menu{ID: 1, ParentID: 0, Title: "Users", Path: "/users", Permission: "user.list"})
	svc, _ := newService(t, repo, nil)

	tree, err := svc.UserRoutes(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestSuperuserSeesEverything(t *testing.T) {
	repo := newMockRepo(
		menu.Menu{ID: 1, ParentID: 0, Title: "Users", Path: "/users", Permission: "user.list"},
		menu.Menu{ID: 2, ParentID: 0, Title: "Roles", Path: "/roles", Permission: "role.list"},
	)
	svc, _ := newService(t, repo, nil)

	tree, err := svc.UserRoutes(context.Background(), shared.SuperUserID)
	require.NoError(t, err)
	assert.Len(t, tree, 2)
}
