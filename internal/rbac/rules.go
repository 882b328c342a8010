package rbac

const (
	RoleTestee = "testee"
	RoleEditor = "editor"
)

const (
	PermThemeView     = "theme:view"
	PermThemeEdit     = "theme:edit"
	PermSessionCreate = "session:create"
	PermSessionPlay   = "session:play"
	PermJournalView   = "journal:view"
)

// Default policy.
var RolePermissions = map[string][]string{
	RoleTestee: {
		PermThemeView,
		PermSessionCreate,
		PermSessionPlay,
	},
	RoleEditor: {
		"theme:*",
		"session:*",
		PermJournalView,
	},
}
