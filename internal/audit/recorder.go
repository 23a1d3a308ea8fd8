package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of pgx shared by pools and transactions, so entries can
// be written either standalone or inside a mutation's transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Insert appends one entry using the provided executor.
func Insert(ctx context.Context, db Execer, e Entry) error {
	if e.ActionType == "" || e.ActorID == "" {
		return errors.New("audit: action type and actor required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := db.Exec(ctx, `
		INSERT INTO permission_audit_logs (id, action_type, details, action_timestamp, admin_id, role_id, permission_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), NULLIF($7, ''))`,
		e.ID, string(e.ActionType), e.Details, e.At, e.ActorID, e.RoleID, e.PermissionID)
	return err
}
