package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	resolver *identity.Resolver
}

// NewService constructs a new Service.
func NewService(repo Repository, resolver *identity.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Register creates an account and provisions its platform profile. New
// accounts always start with the student role.
func (s *Service) Register(ctx context.Context, email, password, name string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	userID, err := s.repo.CreateUser(ctx, strings.ToLower(strings.TrimSpace(email)), string(hash))
	if err != nil {
		return 0, err
	}
	if err := s.resolver.Provision(ctx, userID, strings.TrimSpace(name)); err != nil {
		return 0, err
	}
	return userID, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, rec SessionRecord) error {
	return s.repo.CreateSession(ctx, rec)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
