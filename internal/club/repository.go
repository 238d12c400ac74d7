package club

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/campushub/internal/lifecycle"
	"github.com/campushub/campushub/internal/platform/db"
	"github.com/campushub/campushub/internal/platform/httpx"
	"github.com/campushub/campushub/internal/shared"
)

// Repository defines persistence operations for clubs.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Club, error)
	ListApprovedOrOwn(ctx context.Context, viewerID int64) ([]Club, error)
	ListAll(ctx context.Context) ([]Club, error)
	Create(ctx context.Context, c *Club, nameKey string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.ClubStatus, decidedBy int64, reason *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL. Membership, event and
// flag rows cascade on club deletion via foreign keys.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const clubColumns = `id, name, description, creator_id, status, approved_by, approved_at, rejection_reason, created_at, updated_at`

// Get fetches a club by ID.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Club, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = $1`, id)
	return scanClub(row)
}

// ListApprovedOrOwn returns approved clubs plus any the viewer created.
func (r *PGRepository) ListApprovedOrOwn(ctx context.Context, viewerID int64) ([]Club, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clubColumns+` FROM clubs
WHERE status = 'APPROVED' OR creator_id = $1 ORDER BY name`, viewerID)
	if err != nil {
		return nil, err
	}
	return collectClubs(rows)
}

// ListAll returns every club regardless of status.
func (r *PGRepository) ListAll(ctx context.Context) ([]Club, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clubColumns+` FROM clubs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectClubs(rows)
}

// Create inserts the club and the creator's membership row (role=admin,
// status=APPROVED) in one transaction. nameKey is the case-folded name backing
// the uniqueness constraint.
func (r *PGRepository) Create(ctx context.Context, c *Club, nameKey string) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO clubs (id, name, name_key, description, creator_id, status, approved_by, approved_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`,
			c.ID, c.Name, nameKey, c.Description, c.CreatorID, string(c.Status), c.ApprovedBy, c.ApprovedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `INSERT INTO club_memberships (club_id, user_id, role, status, created_at, updated_at)
VALUES ($1, $2, 'admin', 'APPROVED', NOW(), NOW())`, c.ID, c.CreatorID)
		return err
	})
	if isUniqueViolation(err) {
		return httpx.ErrDuplicate
	}
	return err
}

// UpdateStatus applies an approval transition as a compare-and-swap on the
// current status. A lost race returns shared.ErrStorageConflict so the caller
// can re-fetch and re-decide.
func (r *PGRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.ClubStatus, decidedBy int64, reason *string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clubs
SET status = $3,
    approved_by = CASE WHEN $3 = 'APPROVED' THEN $4 ELSE approved_by END,
    approved_at = CASE WHEN $3 = 'APPROVED' THEN NOW() ELSE approved_at END,
    rejection_reason = $5,
    updated_at = NOW()
WHERE id = $1 AND status = $2`, id, string(from), string(to), decidedBy, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStorageConflict
	}
	return nil
}

// Delete removes a club; dependent rows cascade.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clubs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanClub(row pgx.Row) (*Club, error) {
	var c Club
	var status string
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatorID, &status,
		&c.ApprovedBy, &c.ApprovedAt, &c.RejectionReason, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	c.Status = lifecycle.ClubStatus(status)
	return &c, nil
}

func collectClubs(rows pgx.Rows) ([]Club, error) {
	defer rows.Close()
	var clubs []Club
	for rows.Next() {
		var c Club
		var status string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatorID, &status,
			&c.ApprovedBy, &c.ApprovedAt, &c.RejectionReason, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Status = lifecycle.ClubStatus(status)
		clubs = append(clubs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clubs, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
