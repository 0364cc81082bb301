package rbac

type Permission string

const (
	PermAgentsView      Permission = "agents.view"
	PermAgentsManage    Permission = "agents.manage"
	PermOperationsView  Permission = "operations.view"
	PermOperationsEdit  Permission = "operations.edit"
	PermIntelView       Permission = "intel.view"
	PermIntelEdit       Permission = "intel.edit"
	PermNewsView        Permission = "news.view"
	PermNewsEdit        Permission = "news.edit"
	PermAlbumsView      Permission = "albums.view"
	PermAlbumsEdit      Permission = "albums.edit"
	PermAccountsManage  Permission = "accounts.manage"
	PermBansManage      Permission = "bans.manage"
	PermActivityView    Permission = "activity.view"
)

// rolePermissions is the policy table. Roles are strictly ordered
// (ADMIN > SENIOR_AGENT > AGENT > VIEWER) but permissions are listed
// explicitly per role rather than inherited, so a grant is always visible
// in one place.
var rolePermissions = map[string][]Permission{
	"ADMIN": {
		PermAgentsView, PermAgentsManage,
		PermOperationsView, PermOperationsEdit,
		PermIntelView, PermIntelEdit,
		PermNewsView, PermNewsEdit,
		PermAlbumsView, PermAlbumsEdit,
		PermAccountsManage, PermBansManage, PermActivityView,
	},
	"SENIOR_AGENT": {
		PermAgentsView,
		PermOperationsView, PermOperationsEdit,
		PermIntelView, PermIntelEdit,
		PermNewsView, PermNewsEdit,
		PermAlbumsView, PermAlbumsEdit,
		PermActivityView,
	},
	"AGENT": {
		PermAgentsView,
		PermOperationsView,
		PermIntelView, PermIntelEdit,
		PermNewsView,
		PermAlbumsView,
	},
	"VIEWER": {
		PermAgentsView,
		PermNewsView,
		PermAlbumsView,
	},
}

func KnownRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}
