package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeFlagEscalation is the periodic scan for stale pending flags.
	TaskTypeFlagEscalation = "flags:escalate"
)

// SendEmailPayload describes the information required to send an email.
// Approval and rejection decisions enqueue one of these for the affected
// club owner or member.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with the campus SMTP relay.
	slog.Info("send email", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

// FlagEscalationPayload tunes the stale-flag scan.
type FlagEscalationPayload struct {
	// MaxAgeHours is how long a flag may sit PENDING before it is escalated.
	MaxAgeHours int `json:"max_age_hours"`
}

// NewFlagEscalationTask constructs the periodic escalation task.
func NewFlagEscalationTask(payload FlagEscalationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeFlagEscalation, data), nil
}
