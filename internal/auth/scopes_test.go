package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveScopesGroupNames(t *testing.T) {
	resolved := ResolveScopes([]string{"gmail_read", "drive_file"})
	assert.Equal(t, []string{ScopeGmailReadonly, ScopeDriveFile}, resolved)
}

func TestResolveScopesPassThrough(t *testing.T) {
	// Names in the table resolve to their configured URL; unknown strings
	// pass through verbatim.
	resolved := ResolveScopes([]string{"gmail_read", "https://foo/custom"})
	assert.Equal(t, []string{ScopeGmailReadonly, "https://foo/custom"}, resolved)
}

func TestResolveScopesEmpty(t *testing.T) {
	assert.Empty(t, ResolveScopes(nil))
}

func TestScopeGroupsCoverAllServices(t *testing.T) {
	// Every registered service type has at least one scope group.
	prefixes := map[string][]string{
		"gmail":        {"gmail_read"},
		"drive":        {"drive_read"},
		"calendar":     {"calendar_read"},
		"docs":         {"docs_read"},
		"sheets":       {"sheets_read"},
		"chat":         {"chat_read"},
		"forms":        {"forms"},
		"slides":       {"slides"},
		"tasks":        {"tasks"},
		"people":       {"contacts"},
		"customsearch": {"customsearch"},
		"script":       {"script_projects"},
	}
	for serviceType, groups := range prefixes {
		_, ok := LookupService(serviceType)
		assert.True(t, ok, "service %s missing from registry", serviceType)
		for _, g := range groups {
			assert.Contains(t, ScopeGroups, g)
		}
	}
}

func TestLookupServiceDefaults(t *testing.T) {
	cfg, ok := LookupService("sheets")
	assert.True(t, ok)
	assert.Equal(t, "sheets", cfg.Service)
	assert.Equal(t, "v4", cfg.Version)

	_, ok = LookupService("fax")
	assert.False(t, ok)
}
