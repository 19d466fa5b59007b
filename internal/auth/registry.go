package auth

// ServiceConfig holds the Google API name and default version for one
// service type.
type ServiceConfig struct {
	Service string
	Version string
}

// serviceConfigs is the fixed registry of service types this server can
// authenticate against. Static configuration, not generated.
var serviceConfigs = map[string]ServiceConfig{
	"gmail":        {Service: "gmail", Version: "v1"},
	"drive":        {Service: "drive", Version: "v3"},
	"calendar":     {Service: "calendar", Version: "v3"},
	"docs":         {Service: "docs", Version: "v1"},
	"sheets":       {Service: "sheets", Version: "v4"},
	"chat":         {Service: "chat", Version: "v1"},
	"forms":        {Service: "forms", Version: "v1"},
	"slides":       {Service: "slides", Version: "v1"},
	"tasks":        {Service: "tasks", Version: "v1"},
	"people":       {Service: "people", Version: "v1"},
	"customsearch": {Service: "customsearch", Version: "v1"},
	"script":       {Service: "script", Version: "v1"},
}

// LookupService returns the registry entry for a service type.
func LookupService(serviceType string) (ServiceConfig, bool) {
	cfg, ok := serviceConfigs[serviceType]
	return cfg, ok
}

// ServiceTypes returns all registered service types.
func ServiceTypes() []string {
	types := make([]string, 0, len(serviceConfigs))
	for t := range serviceConfigs {
		types = append(types, t)
	}
	return types
}
