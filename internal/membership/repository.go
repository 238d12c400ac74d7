package membership

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/campushub/internal/lifecycle"
	"github.com/campushub/campushub/internal/platform/httpx"
	"github.com/campushub/campushub/internal/shared"
)

// Repository defines persistence operations for memberships.
type Repository interface {
	Get(ctx context.Context, clubID uuid.UUID, userID int64) (*Membership, error)
	ListByClub(ctx context.Context, clubID uuid.UUID) ([]Membership, error)
	ListApprovedByClub(ctx context.Context, clubID uuid.UUID) ([]Membership, error)
	Create(ctx context.Context, m *Membership) error
	Rerequest(ctx context.Context, clubID uuid.UUID, userID int64) error
	UpdateStatus(ctx context.Context, clubID uuid.UUID, userID int64, from, to lifecycle.MembershipStatus, decidedBy int64) error
	UpdateRole(ctx context.Context, clubID uuid.UUID, userID int64, role Role) error
	Delete(ctx context.Context, clubID uuid.UUID, userID int64) error
}

// PGRepository implements Repository using PostgreSQL. The table carries a
// UNIQUE (club_id, user_id) constraint; concurrent joins race on it and all
// but one insert surface as httpx.ErrDuplicate.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const membershipColumns = `club_id, user_id, role, status, decided_by, created_at, updated_at`

// Get fetches the membership row for (club, user).
func (r *PGRepository) Get(ctx context.Context, clubID uuid.UUID, userID int64) (*Membership, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+membershipColumns+` FROM club_memberships
WHERE club_id = $1 AND user_id = $2`, clubID, userID)
	return scanMembership(row)
}

// ListByClub returns every membership row of a club, pending and rejected
// included.
func (r *PGRepository) ListByClub(ctx context.Context, clubID uuid.UUID) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+membershipColumns+` FROM club_memberships
WHERE club_id = $1 ORDER BY created_at`, clubID)
	if err != nil {
		return nil, err
	}
	return collectMemberships(rows)
}

// ListApprovedByClub returns the public roster.
func (r *PGRepository) ListApprovedByClub(ctx context.Context, clubID uuid.UUID) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+membershipColumns+` FROM club_memberships
WHERE club_id = $1 AND status = 'APPROVED' ORDER BY created_at`, clubID)
	if err != nil {
		return nil, err
	}
	return collectMemberships(rows)
}

// Create inserts a new membership row. The unique constraint resolves
// concurrent joins to one winner.
func (r *PGRepository) Create(ctx context.Context, m *Membership) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO club_memberships (club_id, user_id, role, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())`,
		m.ClubID, m.UserID, string(m.Role), string(m.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// Rerequest resets a rejected row to PENDING. The status predicate makes it a
// compare-and-swap: a row that is no longer REJECTED returns
// shared.ErrStorageConflict.
func (r *PGRepository) Rerequest(ctx context.Context, clubID uuid.UUID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE club_memberships
SET status = 'PENDING', decided_by = NULL, updated_at = NOW()
WHERE club_id = $1 AND user_id = $2 AND status = 'REJECTED'`, clubID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStorageConflict
	}
	return nil
}

// UpdateStatus applies a decision transition as a compare-and-swap on the
// current status.
func (r *PGRepository) UpdateStatus(ctx context.Context, clubID uuid.UUID, userID int64, from, to lifecycle.MembershipStatus, decidedBy int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE club_memberships
SET status = $4, decided_by = $5, updated_at = NOW()
WHERE club_id = $1 AND user_id = $2 AND status = $3`,
		clubID, userID, string(from), string(to), decidedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStorageConflict
	}
	return nil
}

// UpdateRole changes the club-scoped role of an approved member. The status
// predicate makes it a compare-and-swap: a row that is no longer APPROVED
// returns shared.ErrStorageConflict.
func (r *PGRepository) UpdateRole(ctx context.Context, clubID uuid.UUID, userID int64, role Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE club_memberships
SET role = $3, updated_at = NOW()
WHERE club_id = $1 AND user_id = $2 AND status = 'APPROVED'`,
		clubID, userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStorageConflict
	}
	return nil
}

// Delete removes the (club, user) row. Used for self-leave and removal.
func (r *PGRepository) Delete(ctx context.Context, clubID uuid.UUID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM club_memberships
WHERE club_id = $1 AND user_id = $2`, clubID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanMembership(row pgx.Row) (*Membership, error) {
	var m Membership
	var role, status string
	err := row.Scan(&m.ClubID, &m.UserID, &role, &status, &m.DecidedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	m.Role = Role(role)
	m.Status = lifecycle.MembershipStatus(status)
	return &m, nil
}

func collectMemberships(rows pgx.Rows) ([]Membership, error) {
	defer rows.Close()
	var out []Membership
	for rows.Next() {
		var m Membership
		var role, status string
		if err := rows.Scan(&m.ClubID, &m.UserID, &role, &status, &m.DecidedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Role = Role(role)
		m.Status = lifecycle.MembershipStatus(status)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
