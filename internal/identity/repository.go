package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/campushub/internal/shared"
)

// Repository defines persistence operations for profiles.
type Repository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	CreateProfile(ctx context.Context, userID int64, name string, role Role) error
	SetRole(ctx context.Context, userID int64, role Role) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetProfile fetches a profile by user ID.
func (r *PGRepository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	var role string
	err := r.pool.QueryRow(ctx, `SELECT user_id, name, role, created_at, updated_at
FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Name, &role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	p.Role = Role(role)
	return &p, nil
}

// CreateProfile inserts a new profile row.
func (r *PGRepository) CreateProfile(ctx context.Context, userID int64, name string, role Role) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO profiles (user_id, name, role, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())`, userID, name, string(role))
	return err
}

// SetRole updates the platform role for a user.
func (r *PGRepository) SetRole(ctx context.Context, userID int64, role Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profiles SET role = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
