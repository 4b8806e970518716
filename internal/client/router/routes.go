package router

// Names the router itself depends on.
const (
	RouteLogin        = "login"
	RouteDashboard    = "dashboard"
	RouteNotFound     = "notfound"
	RouteAccessDenied = "accessDenied"
	RouteError        = "error"
	RouteCrud         = "crud"
	RouteCrudDetail   = "crud-detail"
)

// Query keys carried between redirects.
const (
	QueryRedirect = "redirect"
	QueryMessage  = "message"
)

func uikit(path, name, title string) Route {
	return Route{
		Path: "/uikit/" + path,
		Name: name,
		View: "uikit",
		Meta: Meta{Title: title, Breadcrumb: []string{"UI Kit", title}},
	}
}

// DefaultRoutes returns the admin console's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Name: RouteLogin, View: "login", Meta: Meta{Title: "Login"}},
		{
			Path: "/dashboard",
			View: "layout",
			Meta: Meta{RequiresAuth: true},
			Children: []Route{
				{Path: "/dashboard", Name: RouteDashboard, View: "dashboard", Meta: Meta{Title: "Dashboard"}},
				uikit("formlayout", "formlayout", "Form Layout"),
				uikit("input", "input", "Input"),
				uikit("button", "button", "Button"),
				uikit("table", "table", "Table"),
				uikit("list", "list", "List"),
				uikit("tree", "tree", "Tree"),
				uikit("panel", "panel", "Panel"),
				uikit("overlay", "overlay", "Overlay"),
				uikit("media", "media", "Media"),
				uikit("message", "message", "Message"),
				uikit("file", "file", "File"),
				uikit("menu", "menu", "Menu"),
				uikit("charts", "charts", "Charts"),
				uikit("misc", "misc", "Misc"),
				uikit("timeline", "timeline", "Timeline"),
				{
					Path: "/blocks/free",
					Name: "blocks",
					View: "blocks",
					Meta: Meta{Title: "Free Blocks", Breadcrumb: []string{"Prime Blocks", "Free Blocks"}},
				},
				{Path: "/pages/empty", Name: "empty", View: "empty", Meta: Meta{Title: "Empty"}},
				{Path: "/pages/crud", Name: RouteCrud, View: "crud", Meta: Meta{Title: "Crud"}},
				{Path: "/pages/crud/:id", Name: RouteCrudDetail, View: "crud-detail", Meta: Meta{Title: "Record"}},
				{Path: "/start/documentation", Name: "documentation", View: "documentation", Meta: Meta{Title: "Documentation"}},
				{
					Path: "/admin/users",
					Name: "admin-users",
					View: "admin-users",
					Meta: Meta{RequiresAdmin: true, Title: "Users", Breadcrumb: []string{"Admin", "Users"}},
				},
			},
		},
		{Path: "/landing", Name: "landing", View: "landing", Meta: Meta{Title: "Landing"}},
		{Path: "/pages/notfound", Name: RouteNotFound, View: "notfound", Meta: Meta{Title: "Not Found"}},
		{Path: "/auth/access", Name: RouteAccessDenied, View: "access", Meta: Meta{Title: "Access Denied"}},
		{Path: "/auth/error", Name: RouteError, View: "error", Meta: Meta{Title: "Error"}},
	}
}
