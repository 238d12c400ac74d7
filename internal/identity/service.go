package identity

import (
	"context"
	"fmt"
)

// Resolver maps a principal ID to its platform role. It is the leaf of the
// authorization engine; every permission check starts here.
type Resolver struct {
	repo Repository
}

// NewResolver constructs a Resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve looks up the stored role for the principal. Returns
// shared.ErrNotFound when no profile exists; the auth layer provisions a
// profile on first registration, so a missing row is a caller error.
func (r *Resolver) Resolve(ctx context.Context, principalID int64) (Principal, error) {
	profile, err := r.repo.GetProfile(ctx, principalID)
	if err != nil {
		return Principal{}, err
	}
	if !profile.Role.IsValid() {
		return Principal{}, fmt.Errorf("identity: profile %d has unknown role %q", principalID, profile.Role)
	}
	return Principal{ID: profile.UserID, Role: profile.Role}, nil
}

// Provision creates a profile for a freshly registered user. New accounts
// always start as student; role upgrades go through SetRole.
func (r *Resolver) Provision(ctx context.Context, userID int64, name string) error {
	return r.repo.CreateProfile(ctx, userID, name, RoleStudent)
}

// SetRole updates the platform role, admin operation.
func (r *Resolver) SetRole(ctx context.Context, userID int64, role Role) error {
	if !role.IsValid() {
		return fmt.Errorf("identity: unknown role %q", role)
	}
	return r.repo.SetRole(ctx, userID, role)
}
