package event

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/campushub/internal/shared"
)

// Repository defines persistence operations for events.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Event, error)
	ListByClub(ctx context.Context, clubID uuid.UUID) ([]Event, error)
	ListUpcoming(ctx context.Context, limit int) ([]Event, error)
	Create(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL. Events cascade on club
// deletion via the club_id foreign key.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const eventColumns = `id, club_id, creator_id, title, description, location, starts_at, ends_at, is_free, price_cents, created_at, updated_at`

// Get fetches an event by ID.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

// ListByClub returns the events of one club, soonest first.
func (r *PGRepository) ListByClub(ctx context.Context, clubID uuid.UUID) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events
WHERE club_id = $1 ORDER BY starts_at`, clubID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// ListUpcoming returns events that have not started yet across all approved
// clubs.
func (r *PGRepository) ListUpcoming(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events e
JOIN clubs c ON c.id = e.club_id
WHERE e.starts_at > NOW() AND c.status = 'APPROVED'
ORDER BY e.starts_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// Create inserts an event.
func (r *PGRepository) Create(ctx context.Context, e *Event) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO events (id, club_id, creator_id, title, description, location, starts_at, ends_at, is_free, price_cents, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		e.ID, e.ClubID, e.CreatorID, e.Title, e.Description, e.Location,
		e.StartsAt, e.EndsAt, e.IsFree, e.PriceCents)
	return err
}

// Update rewrites the mutable fields of an event.
func (r *PGRepository) Update(ctx context.Context, e *Event) error {
	tag, err := r.pool.Exec(ctx, `UPDATE events
SET title = $2, description = $3, location = $4, starts_at = $5, ends_at = $6,
    is_free = $7, price_cents = $8, updated_at = NOW()
WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.IsFree, e.PriceCents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an event.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.ClubID, &e.CreatorID, &e.Title, &e.Description, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.IsFree, &e.PriceCents, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]Event, error) {
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ClubID, &e.CreatorID, &e.Title, &e.Description, &e.Location,
			&e.StartsAt, &e.EndsAt, &e.IsFree, &e.PriceCents, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Repository = (*PGRepository)(nil)
