package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PageWorkers   = "trabajadores"

	// Guard and error views.
	PageWait     = "wait"
	PageDenied   = "denied"
	PageNotFound = "notfound"
)

// Template paths used for loading templates in tests and in dev mode.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
	StaticPathFromRoot   = "frontend/static"
)

const (
	// DeviceCookieName identifies the browser across requests; it keys device storage.
	DeviceCookieName = "vc_device"

	// NavSourceHeader marks requests issued by a sidebar entry.
	NavSourceHeader  = "X-Nav-Source"
	NavSourceSidebar = "sidebar"

	// AppTitle suffixes every document title.
	AppTitle = "ViveConecta"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageLogin:     "login-content",
	PageDashboard: "dashboard-content",
	PageWorkers:   "workers-content",
	PageWait:      "wait-content",
	PageDenied:    "denied-content",
	PageNotFound:  "notfound-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to notfound-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "notfound-content"
}
