package audit

import "time"

// ActionType enumerates auditable RBAC mutations.
type ActionType string

const (
	ActionGrant      ActionType = "GRANT"
	ActionRevoke     ActionType = "REVOKE"
	ActionRoleCreate ActionType = "ROLE_CREATE"
	ActionRoleUpdate ActionType = "ROLE_UPDATE"
	ActionRoleDelete ActionType = "ROLE_DELETE"
)

// Entry represents a single record in permission_audit_logs. Entries are
// append-only; nothing in the system updates or deletes them.
type Entry struct {
	ID           string
	ActionType   ActionType
	Details      string
	At           time.Time
	ActorID      string
	RoleID       string
	PermissionID string
}

// TimelineFilters narrows the audit timeline query.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  string
	RoleID   string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo describes the timeline page that was served.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result wraps one timeline page.
type Result struct {
	Entries []Entry
	Paging  PagingInfo
}
