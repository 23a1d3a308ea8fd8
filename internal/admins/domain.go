package admins

import "time"

// Admin represents an admin account for management.
type Admin struct {
	ID        string
	Email     string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AdminWithRoles is an admin with the names of the roles they hold.
type AdminWithRoles struct {
	Admin
	Roles []string
}
