package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRetention sweeps audit entries past the retention horizon.
	TaskAuditRetention = "audit:retention"
	// TaskPermissionWarmup pre-resolves permission sets for active admins.
	TaskPermissionWarmup = "rbac:cache_warmup"
)

// AuditRetentionPayload configures one retention sweep.
type AuditRetentionPayload struct {
	// RetentionDays of zero disables the sweep; the log is kept whole.
	RetentionDays int `json:"retention_days"`
}

// PermissionWarmupPayload configures one cache warmup pass.
type PermissionWarmupPayload struct {
	MaxAdmins int `json:"max_admins"`
}

// NewAuditRetentionTask constructs an Asynq task.
func NewAuditRetentionTask(payload AuditRetentionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}

// NewPermissionWarmupTask constructs an Asynq task.
func NewPermissionWarmupTask(payload PermissionWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPermissionWarmup, data), nil
}
