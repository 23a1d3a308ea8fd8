package rbac

// Permission codes referenced by route guards. Codes, not internal ids, are
// the stable external identifier for a permission.
const (
	PermDashboardView = "dashboard:view"
	PermRidesView     = "rides:view"
	PermUsersView     = "users:view"
	PermDriversView   = "drivers:view"
	PermOwnersView    = "owners:view"
	PermDocumentsView = "documents:view"
	PermSettingsView  = "settings:view"
	PermAccessControl = "settings:access_control"
)
