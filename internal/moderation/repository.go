package moderation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads moderation_logs from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListEntries returns entries newest first within the filter window.
func (r *PGRepository) ListEntries(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, actor_id, action, entity, entity_id, details, created_at
FROM moderation_logs
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at <= $2)
  AND ($3::text = '' OR entity = $3)
  AND ($4::text = '' OR action = $4)
ORDER BY created_at DESC, id DESC
LIMIT $5 OFFSET $6`,
		nullableTime(filters.From), nullableTime(filters.To), filters.Entity, filters.Action, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var action, entity string
		var details []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &action, &entity, &e.EntityID, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		e.Entity = EntityType(entity)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var _ Repository = (*PGRepository)(nil)
