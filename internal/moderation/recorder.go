package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder persists moderation log entries in PostgreSQL. Write failures are
// logged and counted but never surfaced to the caller: the state transition
// the entry documents has already committed, and audit must not roll it back.
type Recorder struct {
	pool      *pgxpool.Pool
	logger    *slog.Logger
	onFailure func()
}

// NewRecorder constructs a Recorder. onFailure is invoked once per failed
// write, typically bound to a Prometheus counter; nil is allowed.
func NewRecorder(pool *pgxpool.Pool, logger *slog.Logger, onFailure func()) *Recorder {
	return &Recorder{pool: pool, logger: logger, onFailure: onFailure}
}

// Record appends one entry, best effort.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if err := r.insert(ctx, entry); err != nil {
		if r.logger != nil {
			r.logger.Error("record moderation entry",
				slog.String("action", string(entry.Action)),
				slog.String("entity", string(entry.Entity)),
				slog.String("entity_id", entry.EntityID.String()),
				slog.Any("error", err))
		}
		if r.onFailure != nil {
			r.onFailure()
		}
	}
}

func (r *Recorder) insert(ctx context.Context, entry Entry) error {
	if r == nil || r.pool == nil {
		return errors.New("moderation: recorder not initialised")
	}
	if entry.ActorID == 0 {
		return errors.New("moderation: actor required")
	}
	if entry.Action == "" || entry.Entity == "" {
		return errors.New("moderation: action and entity required")
	}
	if entry.EntityID == uuid.Nil {
		return errors.New("moderation: entity id required")
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO moderation_logs (actor_id, action, entity, entity_id, details, created_at)
VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, '0001-01-01T00:00:00Z'::timestamptz), NOW()))`,
		entry.ActorID, string(entry.Action), string(entry.Entity), entry.EntityID, details, entry.CreatedAt)
	return err
}

var _ Log = (*Recorder)(nil)
