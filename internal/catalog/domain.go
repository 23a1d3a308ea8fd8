package catalog

// Category groups permissions for presentation and ordering.
type Category struct {
	ID           string
	Name         string
	Description  string
	Icon         string
	DisplayOrder int
}

// Permission represents an atomic capability with a stable code.
type Permission struct {
	ID          string
	Name        string
	Code        string
	Description string
	CategoryID  string
}

// CategoryPermissions is a category with its permissions attached.
type CategoryPermissions struct {
	Category    Category
	Permissions []Permission
}
