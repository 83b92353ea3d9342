// Package rbac resolves effective permission sets for users, memoized under a
// monotonically advancing generation flag.
package rbac

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/burrow-admin/burrow/internal/platform/cache"
	"github.com/burrow-admin/burrow/internal/shared"
)

const flagKey = "perm:flag"

// Resolver computes user permission sets. Results are cached in the local
// tier keyed by (user id, generation flag); advancing the flag orphans every
// earlier entry without an invalidation sweep.
type Resolver struct {
	repo  Repository
	cache *cache.Tiered
	group singleflight.Group
}

// NewResolver constructs a Resolver.
func NewResolver(repo Repository, c *cache.Tiered) *Resolver {
	return &Resolver{repo: repo, cache: c}
}

// Flag returns the current generation flag, initializing it lazily.
func (r *Resolver) Flag() int64 {
	if v, ok := r.cache.GetLocal(flagKey); ok {
		if flag, isInt := v.(int64); isInt {
			return flag
		}
	}
	flag := time.Now().UnixNano()
	r.cache.SetLocal(flagKey, flag)
	return flag
}

// Refresh advances the flag. Called after any mutation that affects roles or
// menu permission mappings. A resolution mid-flight under the old flag may
// still populate its entry; that entry is simply never read again.
func (r *Resolver) Refresh() {
	r.cache.SetLocal(flagKey, time.Now().UnixNano())
}

// UserPermissions returns the deduplicated permission set for a user under the
// given flag. The superuser short-circuits to every permission that exists as
// a menu entry. Users with no role assignments get an empty set.
func (r *Resolver) UserPermissions(ctx context.Context, userID, flag int64) ([]string, error) {
	key := fmt.Sprintf("perm:user:%d:%d", userID, flag)

	if v, ok := r.cache.GetLocal(key); ok {
		if perms, isSlice := v.([]string); isSlice {
			return perms, nil
		}
	}

	// Collapse concurrent resolutions of the same (user, flag) pair.
	v, err, _ := r.group.Do(key, func() (any, error) {
		perms, err := r.resolve(ctx, userID)
		if err != nil {
			return nil, err
		}
		r.cache.SetLocal(key, perms)
		return perms, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Check reports whether the user holds the permission under the current flag.
// The superuser always passes.
func (r *Resolver) Check(ctx context.Context, userID int64, permission string) (bool, error) {
	if shared.IsSuperUser(userID) {
		return true, nil
	}
	perms, err := r.UserPermissions(ctx, userID, r.Flag())
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) resolve(ctx context.Context, userID int64) ([]string, error) {
	if shared.IsSuperUser(userID) {
		perms, err := r.repo.AllMenuPermissions(ctx)
		if err != nil {
			return nil, err
		}
		return dedupe(perms), nil
	}

	roleIDs, err := r.repo.UserRoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) == 0 {
		return []string{}, nil
	}

	perms, err := r.repo.RolePermissions(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	return dedupe(perms), nil
}

func dedupe(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
