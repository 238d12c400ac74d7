package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/campushub/internal/auth"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/shared"
)

type stubRepo struct {
	user    *auth.User
	nextID  int64
	created map[string]string
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateUser(_ context.Context, email, passwordHash string) (int64, error) {
	if s.created == nil {
		s.created = make(map[string]string)
	}
	s.created[email] = passwordHash
	s.nextID++
	return s.nextID, nil
}

func (s *stubRepo) CreateSession(context.Context, auth.SessionRecord) error {
	return nil
}

func (s *stubRepo) DeleteSession(context.Context, string) error {
	return nil
}

type stubProfileRepo struct {
	profiles map[int64]*identity.Profile
}

func (s *stubProfileRepo) GetProfile(_ context.Context, userID int64) (*identity.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (s *stubProfileRepo) CreateProfile(_ context.Context, userID int64, name string, role identity.Role) error {
	if s.profiles == nil {
		s.profiles = make(map[int64]*identity.Profile)
	}
	s.profiles[userID] = &identity.Profile{UserID: userID, Name: name, Role: role}
	return nil
}

func (s *stubProfileRepo) SetRole(_ context.Context, userID int64, role identity.Role) error {
	p, ok := s.profiles[userID]
	if !ok {
		return shared.ErrNotFound
	}
	p.Role = role
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository, profiles *stubProfileRepo) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	resolver := identity.NewResolver(profiles)
	handler := auth.NewHandler(nil, auth.NewService(repo, resolver), resolver, sessionManager)
	return handler, sessionManager
}

func withSession(t *testing.T, sm *shared.SessionManager, req *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func TestLoginSuccessBindsPrincipal(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{ID: 7, Email: "user@campus.test", PasswordHash: string(hashed), IsActive: true}}
	profiles := &stubProfileRepo{profiles: map[int64]*identity.Profile{
		7: {UserID: 7, Name: "Sam", Role: identity.RoleStudentLeader},
	}}
	handler, sm := newAuthHandler(t, repo, profiles)

	router := newRouter(handler)
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"user@campus.test","password":"correct horse"}`))
	req.Header.Set("Content-Type", "application/json")
	req, sess := withSession(t, sm, req)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"student_leader"`)
	assert.Equal(t, "7", sess.Principal())
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{ID: 7, Email: "user@campus.test", PasswordHash: string(hashed), IsActive: true}}
	handler, sm := newAuthHandler(t, repo, &stubProfileRepo{})

	router := newRouter(handler)
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"user@campus.test","password":"wrong password"}`))
	req.Header.Set("Content-Type", "application/json")
	req, sess := withSession(t, sm, req)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Empty(t, sess.Principal())
}

func TestRegisterProvisionsStudentProfile(t *testing.T) {
	repo := &stubRepo{}
	profiles := &stubProfileRepo{}
	handler, sm := newAuthHandler(t, repo, profiles)

	router := newRouter(handler)
	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"new@campus.test","password":"longenough","name":"New Student"}`))
	req.Header.Set("Content-Type", "application/json")
	req, _ = withSession(t, sm, req)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	require.Len(t, profiles.profiles, 1)
	assert.Equal(t, identity.RoleStudent, profiles.profiles[1].Role)
	// The stored credential is a bcrypt hash, never the raw password.
	assert.NotContains(t, repo.created["new@campus.test"], "longenough")
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	handler, sm := newAuthHandler(t, &stubRepo{}, &stubProfileRepo{})

	router := newRouter(handler)
	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"new@campus.test","password":"short","name":"New Student"}`))
	req.Header.Set("Content-Type", "application/json")
	req, _ = withSession(t, sm, req)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func newRouter(handler *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r
}
