package instrumentation

import "strings"

// Label-cardinality helpers. Metric labels must stay bounded: raw emails and
// raw request paths would grow the series set without limit, so callers fold
// them through these functions before recording.

// ExtractUserDomain reduces an email address to its domain for use as a
// metric label. Anything that does not look like an address collapses to
// "unknown".
func ExtractUserDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "unknown"
	}
	return email[at+1:]
}

// knownHTTPPaths is the fixed route set of the OAuth-protected HTTP server.
var knownHTTPPaths = map[string]bool{
	"/.well-known/oauth-protected-resource":   true,
	"/.well-known/oauth-authorization-server": true,
	"/oauth/register":                         true,
	"/oauth/authorize":                        true,
	"/oauth/token":                            true,
	"/oauth/callback":                         true,
	"/oauth/revoke":                           true,
	"/oauth/introspect":                       true,
	"/healthz":                                true,
	"/healthz/detailed":                       true,
	"/readyz":                                 true,
}

// NormalizeHTTPPath folds a request path onto the server's route set so the
// path label on HTTP metrics stays bounded. MCP session suffixes collapse to
// "/mcp"; anything off the route table becomes "other".
func NormalizeHTTPPath(path string) string {
	if path == "/mcp" || strings.HasPrefix(path, "/mcp/") {
		return "/mcp"
	}
	if knownHTTPPaths[path] {
		return path
	}
	return "other"
}

// Operation label values for Google API metrics.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationSend   = "send"
	OperationSearch = "search"
)
