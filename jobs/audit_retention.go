package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/return-lorry/lorry-admin/internal/audit"
)

// AuditRetentionJob sweeps audit entries older than the retention horizon.
// The log stays append-only from the application's point of view; only this
// job removes rows, and only past the configured horizon.
type AuditRetentionJob struct {
	Repo   *audit.Repository
	Logger *slog.Logger
	clock  func() time.Time
}

// NewAuditRetentionJob wires dependencies for the retention handler.
func NewAuditRetentionJob(repo *audit.Repository, logger *slog.Logger) *AuditRetentionJob {
	return &AuditRetentionJob{
		Repo:   repo,
		Logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes audit retention tasks.
func (j *AuditRetentionJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("audit retention: handler not configured")
	}
	var payload AuditRetentionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		if j.Logger != nil {
			j.Logger.Info("audit retention disabled, keeping full log")
		}
		return nil
	}

	horizon := j.clock().AddDate(0, 0, -payload.RetentionDays)
	swept, err := j.Repo.DeleteOlderThan(ctx, horizon)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("audit retention sweep", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("audit retention sweep complete",
			slog.Int64("swept", swept),
			slog.Time("horizon", horizon))
	}
	return nil
}
