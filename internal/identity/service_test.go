package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub/internal/shared"
)

type mockProfileRepo struct {
	profiles map[int64]*Profile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[int64]*Profile)}
}

func (m *mockProfileRepo) GetProfile(_ context.Context, userID int64) (*Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileRepo) CreateProfile(_ context.Context, userID int64, name string, role Role) error {
	m.profiles[userID] = &Profile{UserID: userID, Name: name, Role: role}
	return nil
}

func (m *mockProfileRepo) SetRole(_ context.Context, userID int64, role Role) error {
	p, ok := m.profiles[userID]
	if !ok {
		return shared.ErrNotFound
	}
	p.Role = role
	return nil
}

func TestResolve(t *testing.T) {
	repo := newMockProfileRepo()
	repo.profiles[1] = &Profile{UserID: 1, Name: "Bob", Role: RoleStudentLeader}
	resolver := NewResolver(repo)

	principal, err := resolver.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), principal.ID)
	assert.Equal(t, RoleStudentLeader, principal.Role)
}

func TestResolveMissingProfile(t *testing.T) {
	resolver := NewResolver(newMockProfileRepo())

	_, err := resolver.Resolve(context.Background(), 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolveUnknownRole(t *testing.T) {
	repo := newMockProfileRepo()
	repo.profiles[1] = &Profile{UserID: 1, Role: Role("superuser")}
	resolver := NewResolver(repo)

	_, err := resolver.Resolve(context.Background(), 1)
	assert.Error(t, err)
}

func TestProvisionDefaultsToStudent(t *testing.T) {
	repo := newMockProfileRepo()
	resolver := NewResolver(repo)

	require.NoError(t, resolver.Provision(context.Background(), 5, "Alice"))
	principal, err := resolver.Resolve(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, principal.Role)
}

func TestRoleRankOrdering(t *testing.T) {
	assert.Greater(t, RoleAdmin.Rank(), RoleStudentLeader.Rank())
	assert.Greater(t, RoleStudentLeader.Rank(), RoleStudent.Rank())
}

func TestSetRoleRejectsUnknown(t *testing.T) {
	repo := newMockProfileRepo()
	repo.profiles[1] = &Profile{UserID: 1, Role: RoleStudent}
	resolver := NewResolver(repo)

	assert.Error(t, resolver.SetRole(context.Background(), 1, Role("owner")))
	require.NoError(t, resolver.SetRole(context.Background(), 1, RoleStudentLeader))
	assert.Equal(t, RoleStudentLeader, repo.profiles[1].Role)
}
