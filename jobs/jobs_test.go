package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/return-lorry/lorry-admin/internal/audit"
	"github.com/return-lorry/lorry-admin/internal/rbac"
	_ "github.com/return-lorry/lorry-admin/testing"
)

type warmupRepo struct {
	rbac.Repository
	adminIDs   []string
	askedLimit int
}

func (r *warmupRepo) AssignedAdminIDs(ctx context.Context, limit int) ([]string, error) {
	r.askedLimit = limit
	if limit < len(r.adminIDs) {
		return r.adminIDs[:limit], nil
	}
	return r.adminIDs, nil
}

func (r *warmupRepo) GrantedPermissions(ctx context.Context, adminID string) ([]rbac.GrantedPermission, error) {
	return nil, nil
}

type passCatalog struct{}

func (passCatalog) FilterKnownPermissionIDs(ctx context.Context, ids []string) ([]string, error) {
	return ids, nil
}

func TestAuditRetentionDisabled(t *testing.T) {
	job := NewAuditRetentionJob(audit.NewRepository(nil), nil)

	task, err := NewAuditRetentionTask(AuditRetentionPayload{RetentionDays: 0})
	require.NoError(t, err)

	// A zero horizon never reaches the repository.
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestAuditRetentionBadPayload(t *testing.T) {
	job := NewAuditRetentionJob(audit.NewRepository(nil), nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskAuditRetention, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestAuditRetentionUnconfigured(t *testing.T) {
	var job *AuditRetentionJob
	task, err := NewAuditRetentionTask(AuditRetentionPayload{RetentionDays: 30})
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}

func TestPermissionWarmupResolvesEachAdmin(t *testing.T) {
	repo := &warmupRepo{adminIDs: []string{"admin-1", "admin-2", "admin-3"}}
	svc := rbac.NewService(repo, passCatalog{}, nil, nil)
	job := NewPermissionWarmupJob(repo, svc, nil)

	task, err := NewPermissionWarmupTask(PermissionWarmupPayload{MaxAdmins: 2})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 2, repo.askedLimit)
}

func TestPermissionWarmupDefaultLimit(t *testing.T) {
	repo := &warmupRepo{}
	svc := rbac.NewService(repo, passCatalog{}, nil, nil)
	job := NewPermissionWarmupJob(repo, svc, nil)

	task, err := NewPermissionWarmupTask(PermissionWarmupPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, defaultWarmupAdmins, repo.askedLimit)
}

func TestPermissionWarmupBadPayload(t *testing.T) {
	repo := &warmupRepo{}
	svc := rbac.NewService(repo, passCatalog{}, nil, nil)
	job := NewPermissionWarmupJob(repo, svc, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskPermissionWarmup, []byte("broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
