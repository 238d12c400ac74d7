package club

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub/internal/authz"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/lifecycle"
	"github.com/campushub/campushub/internal/moderation"
	"github.com/campushub/campushub/internal/platform/httpx"
	"github.com/campushub/campushub/internal/shared"
)

type mockClubRepo struct {
	mu       sync.Mutex
	clubs    map[uuid.UUID]*Club
	nameKeys map[string]uuid.UUID
	members  map[uuid.UUID][]int64
}

func newMockClubRepo() *mockClubRepo {
	return &mockClubRepo{
		clubs:    make(map[uuid.UUID]*Club),
		nameKeys: make(map[string]uuid.UUID),
		members:  make(map[uuid.UUID][]int64),
	}
}

func (m *mockClubRepo) Get(_ context.Context, id uuid.UUID) (*Club, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clubs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockClubRepo) ListApprovedOrOwn(_ context.Context, viewerID int64) ([]Club, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Club
	for _, c := range m.clubs {
		if c.Status == lifecycle.ClubApproved || c.CreatorID == viewerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockClubRepo) ListAll(_ context.Context) ([]Club, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Club
	for _, c := range m.clubs {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockClubRepo) Create(_ context.Context, c *Club, nameKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.nameKeys[nameKey]; exists {
		return httpx.ErrDuplicate
	}
	copied := *c
	m.clubs[c.ID] = &copied
	m.nameKeys[nameKey] = c.ID
	m.members[c.ID] = append(m.members[c.ID], c.CreatorID)
	return nil
}

func (m *mockClubRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to lifecycle.ClubStatus, decidedBy int64, reason *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clubs[id]
	if !ok || c.Status != from {
		return shared.ErrStorageConflict
	}
	c.Status = to
	if to == lifecycle.ClubApproved {
		c.ApprovedBy = &decidedBy
	}
	c.RejectionReason = reason
	return nil
}

func (m *mockClubRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clubs[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.clubs, id)
	return nil
}

type memoryLog struct {
	mu      sync.Mutex
	entries []moderation.Entry
}

func (l *memoryLog) Record(_ context.Context, entry moderation.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

var (
	alice = identity.Principal{ID: 1, Role: identity.RoleStudent}
	bob   = identity.Principal{ID: 2, Role: identity.RoleStudentLeader}
	carol = identity.Principal{ID: 3, Role: identity.RoleAdmin}
)

func TestStudentCannotCreateClub(t *testing.T) {
	service := NewService(newMockClubRepo(), &memoryLog{})

	c, decision, err := service.Create(context.Background(), alice, CreateClubRequest{Name: "Chess Club"})
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.ReasonNotStudentLeader, decision.Reason)
}

func TestLeaderClubStartsPendingAdminApproves(t *testing.T) {
	repo := newMockClubRepo()
	modlog := &memoryLog{}
	service := NewService(repo, modlog)

	created, decision, err := service.Create(context.Background(), bob, CreateClubRequest{Name: "Chess Club"})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, lifecycle.ClubPending, created.Status)
	assert.Equal(t, []int64{bob.ID}, repo.members[created.ID])

	approved, decision, err := service.Approve(context.Background(), carol, created.ID)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, lifecycle.ClubApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, carol.ID, *approved.ApprovedBy)

	require.Len(t, modlog.entries, 1)
	assert.Equal(t, moderation.ActionClubApproved, modlog.entries[0].Action)
	assert.Equal(t, carol.ID, modlog.entries[0].ActorID)
	assert.Equal(t, created.ID, modlog.entries[0].EntityID)
}

func TestAdminClubAutoApproved(t *testing.T) {
	service := NewService(newMockClubRepo(), &memoryLog{})

	created, decision, err := service.Create(context.Background(), carol, CreateClubRequest{Name: "Robotics"})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, lifecycle.ClubApproved, created.Status)
	require.NotNil(t, created.ApprovedBy)
	assert.Equal(t, carol.ID, *created.ApprovedBy)
}

func TestRejectRequiresReason(t *testing.T) {
	repo := newMockClubRepo()
	service := NewService(repo, &memoryLog{})
	created, _, err := service.Create(context.Background(), bob, CreateClubRequest{Name: "Chess Club"})
	require.NoError(t, err)

	_, _, err = service.Reject(context.Background(), carol, created.ID, RejectClubRequest{})
	assert.Error(t, err)

	rejected, decision, err := service.Reject(context.Background(), carol, created.ID, RejectClubRequest{Reason: "duplicate of an existing club"})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, lifecycle.ClubRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
}

func TestRejectedClubCanBeReApproved(t *testing.T) {
	repo := newMockClubRepo()
	modlog := &memoryLog{}
	service := NewService(repo, modlog)
	created, _, err := service.Create(context.Background(), bob, CreateClubRequest{Name: "Chess Club"})
	require.NoError(t, err)

	_, _, err = service.Reject(context.Background(), carol, created.ID, RejectClubRequest{Reason: "needs a faculty sponsor"})
	require.NoError(t, err)

	approved, decision, err := service.Approve(context.Background(), carol, created.ID)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, lifecycle.ClubApproved, approved.Status)
	assert.Len(t, modlog.entries, 2)
}

func TestApproveTwiceIsInvalidTransition(t *testing.T) {
	repo := newMockClubRepo()
	service := NewService(repo, &memoryLog{})
	created, _, err := service.Create(context.Background(), bob, CreateClubRequest{Name: "Chess Club"})
	require.NoError(t, err)

	_, _, err = service.Approve(context.Background(), carol, created.ID)
	require.NoError(t, err)

	_, _, err = service.Approve(context.Background(), carol, created.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

// conflictingClubRepo fails conditional updates the way a lost CAS race does.
type conflictingClubRepo struct {
	*mockClubRepo
}

func (r *conflictingClubRepo) UpdateStatus(context.Context, uuid.UUID, lifecycle.ClubStatus, lifecycle.ClubStatus, int64, *string) error {
	return shared.ErrStorageConflict
}

func TestDecisionConflictCounted(t *testing.T) {
	repo := newMockClubRepo()
	var conflicts int
	service := NewService(&conflictingClubRepo{repo}, &memoryLog{},
		WithConflictCounter(func() { conflicts++ }))

	created, _, err := service.Create(context.Background(), bob, CreateClubRequest{Name: "Chess Club"})
	require.NoError(t, err)

	_, _, err = service.Approve(context.Background(), carol, created.ID)
	assert.ErrorIs(t, err, shared.ErrStorageConflict)
	assert.Equal(t, 1, conflicts)
}

func TestNonAdminCannotDecide(t *testing.T) {
	repo := newMockClubRepo()
	modlog := &memoryLog{}
	service := NewService(repo, modlog)
	created, _, err := service.Create(context.Background(), bob, CreateClubRequest{Name: "Chess Club"})
	require.NoError(t, err)

	_, decision, err := service.Approve(context.Background(), bob, created.ID)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.ReasonNotAdmin, decision.Reason)
	assert.Empty(t, modlog.entries)
}

func TestDuplicateClubName(t *testing.T) {
	service := NewService(newMockClubRepo(), &memoryLog{})

	_, _, err := service.Create(context.Background(), bob, CreateClubRequest{Name: "Chess Club"})
	require.NoError(t, err)

	_, _, err = service.Create(context.Background(), carol, CreateClubRequest{Name: "CHESS club"})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestVisibility(t *testing.T) {
	repo := newMockClubRepo()
	service := NewService(repo, &memoryLog{})
	created, _, err := service.Create(context.Background(), bob, CreateClubRequest{Name: "Chess Club"})
	require.NoError(t, err)

	_, decision, err := service.Get(context.Background(), alice, created.ID)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	_, decision, err = service.Get(context.Background(), bob, created.ID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	_, decision, err = service.Get(context.Background(), carol, created.ID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	_, _, err = service.Approve(context.Background(), carol, created.ID)
	require.NoError(t, err)

	_, decision, err = service.Get(context.Background(), alice, created.ID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
