package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/return-lorry/lorry-admin/internal/rbac"
)

const defaultWarmupAdmins = 200

// PermissionWarmupJob pre-resolves permission code sets for recently active
// admins so their first request after an invalidation hits warm cache.
type PermissionWarmupJob struct {
	Repo    rbac.Repository
	Service *rbac.Service
	Logger  *slog.Logger
}

// NewPermissionWarmupJob wires dependencies for the warmup handler.
func NewPermissionWarmupJob(repo rbac.Repository, svc *rbac.Service, logger *slog.Logger) *PermissionWarmupJob {
	return &PermissionWarmupJob{Repo: repo, Service: svc, Logger: logger}
}

// Handle processes cache warmup tasks.
func (j *PermissionWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil || j.Service == nil {
		return errors.New("permission warmup: handler not configured")
	}
	var payload PermissionWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	limit := payload.MaxAdmins
	if limit <= 0 {
		limit = defaultWarmupAdmins
	}

	adminIDs, err := j.Repo.AssignedAdminIDs(ctx, limit)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("permission warmup listing", slog.Any("error", err))
		}
		return err
	}

	warmed := 0
	for _, adminID := range adminIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// PermissionCodes resolves through the cache, repopulating it as a
		// side effect. Resolution never errors; a cold store just yields an
		// empty set for that admin.
		j.Service.PermissionCodes(ctx, adminID)
		warmed++
	}
	if j.Logger != nil {
		j.Logger.Info("permission cache warmup complete", slog.Int("admins", warmed))
	}
	return nil
}
