// Package notify delivers decision notifications to affected users via the
// background mail queue. Delivery is best-effort: a failed enqueue is logged,
// never surfaced to the transition that triggered it.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/campushub/internal/club"
	"github.com/campushub/campushub/jobs"
)

// EmailNotifier enqueues decision emails through the asynq client.
type EmailNotifier struct {
	pool   *pgxpool.Pool
	client *jobs.Client
	logger *slog.Logger
}

// NewEmailNotifier constructs an EmailNotifier.
func NewEmailNotifier(pool *pgxpool.Pool, client *jobs.Client, logger *slog.Logger) *EmailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailNotifier{pool: pool, client: client, logger: logger}
}

// ClubDecision notifies a club's creator that their club was approved or
// rejected.
func (n *EmailNotifier) ClubDecision(ctx context.Context, c *club.Club) {
	if n == nil || n.client == nil {
		return
	}
	email, err := n.lookupEmail(ctx, c.CreatorID)
	if err != nil {
		n.logger.Warn("club decision email: lookup creator", slog.Int64("user_id", c.CreatorID), slog.Any("error", err))
		return
	}

	subject := fmt.Sprintf("Your club %q was approved", c.Name)
	body := fmt.Sprintf("Congratulations, %q is now live on CampusHub.", c.Name)
	if c.RejectionReason != nil {
		subject = fmt.Sprintf("Your club %q was rejected", c.Name)
		body = fmt.Sprintf("Your club %q was rejected: %s", c.Name, *c.RejectionReason)
	}

	if _, err := n.client.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: subject,
		Body:    body,
	}); err != nil {
		n.logger.Warn("club decision email: enqueue", slog.String("club_id", c.ID.String()), slog.Any("error", err))
	}
}

func (n *EmailNotifier) lookupEmail(ctx context.Context, userID int64) (string, error) {
	var email string
	err := n.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	return email, err
}
