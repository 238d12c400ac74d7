package flag

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/campushub/internal/lifecycle"
	"github.com/campushub/campushub/internal/platform/httpx"
	"github.com/campushub/campushub/internal/shared"
)

// Repository defines persistence operations for flags.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Flag, error)
	GetByTargetAndReporter(ctx context.Context, targetType TargetType, targetID uuid.UUID, reporterID int64) (*Flag, error)
	ListOpen(ctx context.Context) ([]Flag, error)
	ListByTarget(ctx context.Context, targetType TargetType, targetID uuid.UUID) ([]Flag, error)
	ListStalePending(ctx context.Context, olderThan time.Time) ([]Flag, error)
	Create(ctx context.Context, f *Flag) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.FlagStatus, reviewedBy int64, note *string) error
	DeletePending(ctx context.Context, id uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL. The table carries a
// UNIQUE (target_type, target_id, reporter_id) constraint.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const flagColumns = `id, target_type, target_id, reporter_id, reason, status, reviewed_by, resolution_note, created_at, updated_at`

// Get fetches a flag by ID.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Flag, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+flagColumns+` FROM flags WHERE id = $1`, id)
	return scanFlag(row)
}

// GetByTargetAndReporter fetches the reporter's flag on a target, if any.
func (r *PGRepository) GetByTargetAndReporter(ctx context.Context, targetType TargetType, targetID uuid.UUID, reporterID int64) (*Flag, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+flagColumns+` FROM flags
WHERE target_type = $1 AND target_id = $2 AND reporter_id = $3`,
		string(targetType), targetID, reporterID)
	return scanFlag(row)
}

// ListOpen returns flags still awaiting a terminal decision, oldest first.
func (r *PGRepository) ListOpen(ctx context.Context) ([]Flag, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+flagColumns+` FROM flags
WHERE status IN ('PENDING', 'REVIEWED') ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return collectFlags(rows)
}

// ListByTarget returns every flag filed against one target.
func (r *PGRepository) ListByTarget(ctx context.Context, targetType TargetType, targetID uuid.UUID) ([]Flag, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+flagColumns+` FROM flags
WHERE target_type = $1 AND target_id = $2 ORDER BY created_at`,
		string(targetType), targetID)
	if err != nil {
		return nil, err
	}
	return collectFlags(rows)
}

// ListStalePending returns PENDING flags filed before the cutoff. The
// escalation job uses this to nudge moderators.
func (r *PGRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]Flag, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+flagColumns+` FROM flags
WHERE status = 'PENDING' AND created_at < $1 ORDER BY created_at`, olderThan)
	if err != nil {
		return nil, err
	}
	return collectFlags(rows)
}

// Create inserts a flag. The unique constraint resolves duplicate reports to
// one winner.
func (r *PGRepository) Create(ctx context.Context, f *Flag) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO flags (id, target_type, target_id, reporter_id, reason, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		f.ID, string(f.TargetType), f.TargetID, f.ReporterID, f.Reason, string(f.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateStatus applies a moderation transition as a compare-and-swap on the
// current status.
func (r *PGRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.FlagStatus, reviewedBy int64, note *string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE flags
SET status = $3, reviewed_by = $4, resolution_note = COALESCE($5, resolution_note), updated_at = NOW()
WHERE id = $1 AND status = $2`,
		id, string(from), string(to), reviewedBy, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStorageConflict
	}
	return nil
}

// DeletePending withdraws a flag while it is still PENDING. A flag that has
// already entered review loses its withdrawability, so the status predicate
// is part of the delete.
func (r *PGRepository) DeletePending(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM flags WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStorageConflict
	}
	return nil
}

func scanFlag(row pgx.Row) (*Flag, error) {
	var f Flag
	var targetType, status string
	err := row.Scan(&f.ID, &targetType, &f.TargetID, &f.ReporterID, &f.Reason, &status,
		&f.ReviewedBy, &f.ResolutionNote, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	f.TargetType = TargetType(targetType)
	f.Status = lifecycle.FlagStatus(status)
	return &f, nil
}

func collectFlags(rows pgx.Rows) ([]Flag, error) {
	defer rows.Close()
	var out []Flag
	for rows.Next() {
		var f Flag
		var targetType, status string
		if err := rows.Scan(&f.ID, &targetType, &f.TargetID, &f.ReporterID, &f.Reason, &status,
			&f.ReviewedBy, &f.ResolutionNote, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		f.TargetType = TargetType(targetType)
		f.Status = lifecycle.FlagStatus(status)
		out = append(out, f)
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
