package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/campushub/campushub/internal/jobs"
)

// FlagEscalationJob finds flags that have sat PENDING past the allowed age
// and surfaces them to platform admins. Escalation is a log plus metric
// signal; the flags themselves stay untouched.
type FlagEscalationJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewFlagEscalationJob initialises the stale-flag scan handler.
func NewFlagEscalationJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *FlagEscalationJob {
	return &FlagEscalationJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type staleFlag struct {
	ID         string
	TargetType string
	TargetID   string
	ReporterID int64
	AgeHours   float64
}

// Handle executes the stale-flag scan.
func (j *FlagEscalationJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("flag escalation: handler not configured")
	}
	var payload FlagEscalationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.MaxAgeHours <= 0 {
		payload.MaxAgeHours = 72
	}

	tracker := j.metrics().Track(TaskTypeFlagEscalation)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("max_age_hours", payload.MaxAgeHours))
	logger.Info("starting stale flag scan")

	stale, err := j.scan(ctx, payload.MaxAgeHours)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, f := range stale {
		logger.Warn("stale pending flag",
			slog.String("flag_id", f.ID),
			slog.String("target_type", f.TargetType),
			slog.String("target_id", f.TargetID),
			slog.Int64("reporter_id", f.ReporterID),
			slog.Float64("age_hours", f.AgeHours),
		)
	}

	logger.Info("completed stale flag scan", slog.Int("stale", len(stale)))
	return resultErr
}

func (j *FlagEscalationJob) scan(ctx context.Context, maxAgeHours int) ([]staleFlag, error) {
	if j.Pool == nil {
		return nil, errors.New("flag escalation: pool not configured")
	}
	cutoff := j.now().Add(-time.Duration(maxAgeHours) * time.Hour)
	rows, err := j.Pool.Query(ctx, `SELECT id, target_type, target_id, reporter_id,
EXTRACT(EPOCH FROM (NOW() - created_at)) / 3600
FROM flags WHERE status = 'PENDING' AND created_at < $1 ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []staleFlag
	for rows.Next() {
		var f staleFlag
		if err := rows.Scan(&f.ID, &f.TargetType, &f.TargetID, &f.ReporterID, &f.AgeHours); err != nil {
			return nil, err
		}
		stale = append(stale, f)
	}
	return stale, rows.Err()
}

func (j *FlagEscalationJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *FlagEscalationJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *FlagEscalationJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
