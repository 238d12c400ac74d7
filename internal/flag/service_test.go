package flag

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub/internal/authz"
	"github.com/campushub/campushub/internal/club"
	"github.com/campushub/campushub/internal/event"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/lifecycle"
	"github.com/campushub/campushub/internal/moderation"
	"github.com/campushub/campushub/internal/platform/httpx"
	"github.com/campushub/campushub/internal/shared"
)

type mockClubDir struct {
	clubs map[uuid.UUID]*club.Club
}

func (d *mockClubDir) Get(_ context.Context, id uuid.UUID) (*club.Club, error) {
	c, ok := d.clubs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

type mockEventDir struct {
	events map[uuid.UUID]*event.Event
}

func (d *mockEventDir) Get(_ context.Context, id uuid.UUID) (*event.Event, error) {
	e, ok := d.events[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

type flagKey struct {
	targetType TargetType
	targetID   uuid.UUID
	reporterID int64
}

type mockFlagRepo struct {
	mu    sync.Mutex
	flags map[uuid.UUID]*Flag
	byKey map[flagKey]uuid.UUID
}

func newMockFlagRepo() *mockFlagRepo {
	return &mockFlagRepo{
		flags: make(map[uuid.UUID]*Flag),
		byKey: make(map[flagKey]uuid.UUID),
	}
}

func (m *mockFlagRepo) Get(_ context.Context, id uuid.UUID) (*Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flags[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *f
	return &copied, nil
}

func (m *mockFlagRepo) GetByTargetAndReporter(_ context.Context, targetType TargetType, targetID uuid.UUID, reporterID int64) (*Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byKey[flagKey{targetType, targetID, reporterID}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *m.flags[id]
	return &copied, nil
}

func (m *mockFlagRepo) ListOpen(_ context.Context) ([]Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Flag
	for _, f := range m.flags {
		if !f.Status.IsTerminal() {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockFlagRepo) ListByTarget(_ context.Context, targetType TargetType, targetID uuid.UUID) ([]Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Flag
	for _, f := range m.flags {
		if f.TargetType == targetType && f.TargetID == targetID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockFlagRepo) ListStalePending(_ context.Context, olderThan time.Time) ([]Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Flag
	for _, f := range m.flags {
		if f.Status == lifecycle.FlagPending && f.CreatedAt.Before(olderThan) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockFlagRepo) Create(_ context.Context, f *Flag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := flagKey{f.TargetType, f.TargetID, f.ReporterID}
	if _, exists := m.byKey[key]; exists {
		return httpx.ErrDuplicate
	}
	copied := *f
	m.flags[f.ID] = &copied
	m.byKey[key] = f.ID
	return nil
}

func (m *mockFlagRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to lifecycle.FlagStatus, reviewedBy int64, note *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flags[id]
	if !ok || f.Status != from {
		return shared.ErrStorageConflict
	}
	f.Status = to
	f.ReviewedBy = &reviewedBy
	if note != nil {
		f.ResolutionNote = note
	}
	return nil
}

func (m *mockFlagRepo) DeletePending(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flags[id]
	if !ok || f.Status != lifecycle.FlagPending {
		return shared.ErrStorageConflict
	}
	delete(m.byKey, flagKey{f.TargetType, f.TargetID, f.ReporterID})
	delete(m.flags, id)
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
	reporter = identity.Principal{ID: 10, Role: identity.RoleStudent}
	owner    = identity.Principal{ID: 20, Role: identity.RoleStudentLeader}
	admin    = identity.Principal{ID: 30, Role: identity.RoleAdmin}
	stranger = identity.Principal{ID: 40, Role: identity.RoleStudent}
)

func fixture(t *testing.T) (*Service, *mockFlagRepo, *memoryLog, uuid.UUID, uuid.UUID) {
	t.Helper()
	clubID := uuid.New()
	eventID := uuid.New()
	clubs := &mockClubDir{clubs: map[uuid.UUID]*club.Club{
		clubID: {ID: clubID, Name: "Chess Club", CreatorID: owner.ID, Status: lifecycle.ClubApproved},
	}}
	events := &mockEventDir{events: map[uuid.UUID]*event.Event{
		eventID: {ID: eventID, ClubID: clubID, CreatorID: owner.ID, Title: "Spring Tournament"},
	}}
	repo := newMockFlagRepo()
	modlog := &memoryLog{}
	return NewService(clubs, events, repo, modlog), repo, modlog, clubID, eventID
}

func fileRequest() FileFlagRequest {
	return FileFlagRequest{Reason: "posts spam announcements daily"}
}

func TestFileFlagStartsPending(t *testing.T) {
	service, _, _, clubID, _ := fixture(t)

	f, decision, err := service.File(context.Background(), reporter, TargetClub, clubID, fileRequest())
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, lifecycle.FlagPending, f.Status)
	assert.Equal(t, reporter.ID, f.ReporterID)
}

func TestDuplicateFlagDenied(t *testing.T) {
	service, _, _, clubID, _ := fixture(t)

	_, _, err := service.File(context.Background(), reporter, TargetClub, clubID, fileRequest())
	require.NoError(t, err)

	_, decision, err := service.File(context.Background(), reporter, TargetClub, clubID, fileRequest())
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.ReasonAlreadyExists, decision.Reason)

	// A different reporter may still flag the same target.
	_, decision, err = service.File(context.Background(), stranger, TargetClub, clubID, fileRequest())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestTargetOwnerModeratesFlag(t *testing.T) {
	service, _, modlog, clubID, _ := fixture(t)

	f, _, err := service.File(context.Background(), reporter, TargetClub, clubID, fileRequest())
	require.NoError(t, err)

	reviewed, decision, err := service.Review(context.Background(), owner, f.ID, TransitionFlagRequest{})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, lifecycle.FlagReviewed, reviewed.Status)

	resolved, decision, err := service.Resolve(context.Background(), owner, f.ID, TransitionFlagRequest{Note: "removed the posts"})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, lifecycle.FlagResolved, resolved.Status)
	require.NotNil(t, resolved.ResolutionNote)

	require.Len(t, modlog.entries, 2)
	assert.Equal(t, moderation.ActionFlagReviewed, modlog.entries[0].Action)
	assert.Equal(t, moderation.ActionFlagResolved, modlog.entries[1].Action)
	assert.Equal(t, moderation.EntityClubFlag, modlog.entries[1].Entity)
}

func TestStrangerCannotModerateFlag(t *testing.T) {
	service, _, _, clubID, _ := fixture(t)

	f, _, err := service.File(context.Background(), reporter, TargetClub, clubID, fileRequest())
	require.NoError(t, err)

	_, decision, err := service.Dismiss(context.Background(), stranger, f.ID, TransitionFlagRequest{})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.ReasonNotOwner, decision.Reason)
}

func TestAdminModeratesEventFlag(t *testing.T) {
	service, _, modlog, _, eventID := fixture(t)

	f, _, err := service.File(context.Background(), reporter, TargetEvent, eventID, fileRequest())
	require.NoError(t, err)

	dismissed, decision, err := service.Dismiss(context.Background(), admin, f.ID, TransitionFlagRequest{})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, lifecycle.FlagDismissed, dismissed.Status)

	require.Len(t, modlog.entries, 1)
	assert.Equal(t, moderation.EntityEventFlag, modlog.entries[0].Entity)
}

func TestDismissDismissedFails(t *testing.T) {
	service, _, _, clubID, _ := fixture(t)

	f, _, err := service.File(context.Background(), reporter, TargetClub, clubID, fileRequest())
	require.NoError(t, err)

	_, _, err = service.Dismiss(context.Background(), admin, f.ID, TransitionFlagRequest{})
	require.NoError(t, err)

	_, _, err = service.Dismiss(context.Background(), admin, f.ID, TransitionFlagRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestReporterWithdrawsPendingFlag(t *testing.T) {
	service, repo, _, clubID, _ := fixture(t)

	f, _, err := service.File(context.Background(), reporter, TargetClub, clubID, fileRequest())
	require.NoError(t, err)

	decision, err := service.Withdraw(context.Background(), stranger, f.ID)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.ReasonNotOwner, decision.Reason)

	decision, err = service.Withdraw(context.Background(), reporter, f.ID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	_, err = repo.Get(context.Background(), f.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestWithdrawAfterReviewDenied(t *testing.T) {
	service, _, _, clubID, _ := fixture(t)

	f, _, err := service.File(context.Background(), reporter, TargetClub, clubID, fileRequest())
	require.NoError(t, err)
	_, _, err = service.Review(context.Background(), owner, f.ID, TransitionFlagRequest{})
	require.NoError(t, err)

	decision, err := service.Withdraw(context.Background(), reporter, f.ID)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.ReasonInvalidState, decision.Reason)
}

func TestListOpenIsAdminOnly(t *testing.T) {
	service, _, _, clubID, _ := fixture(t)

	_, _, err := service.File(context.Background(), reporter, TargetClub, clubID, fileRequest())
	require.NoError(t, err)

	_, decision, err := service.ListOpen(context.Background(), reporter)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	flags, decision, err := service.ListOpen(context.Background(), admin)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Len(t, flags, 1)
}
