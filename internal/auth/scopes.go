package auth

// OAuth scope URLs for the Google Workspace services exposed by this server.
const (
	ScopeGmailReadonly      = "https://www.googleapis.com/auth/gmail.readonly"
	ScopeGmailSend          = "https://www.googleapis.com/auth/gmail.send"
	ScopeGmailCompose       = "https://www.googleapis.com/auth/gmail.compose"
	ScopeGmailModify        = "https://www.googleapis.com/auth/gmail.modify"
	ScopeGmailLabels        = "https://www.googleapis.com/auth/gmail.labels"
	ScopeGmailSettingsBasic = "https://www.googleapis.com/auth/gmail.settings.basic"

	ScopeDriveReadonly = "https://www.googleapis.com/auth/drive.readonly"
	ScopeDriveFile     = "https://www.googleapis.com/auth/drive.file"

	ScopeDocsReadonly = "https://www.googleapis.com/auth/documents.readonly"
	ScopeDocsWrite    = "https://www.googleapis.com/auth/documents"

	ScopeCalendarReadonly = "https://www.googleapis.com/auth/calendar.readonly"
	ScopeCalendarEvents   = "https://www.googleapis.com/auth/calendar.events"

	ScopeSheetsReadonly = "https://www.googleapis.com/auth/spreadsheets.readonly"
	ScopeSheetsWrite    = "https://www.googleapis.com/auth/spreadsheets"

	ScopeChatReadonly = "https://www.googleapis.com/auth/chat.messages.readonly"
	ScopeChatWrite    = "https://www.googleapis.com/auth/chat.messages"
	ScopeChatSpaces   = "https://www.googleapis.com/auth/chat.spaces"

	ScopeFormsBody              = "https://www.googleapis.com/auth/forms.body"
	ScopeFormsBodyReadonly      = "https://www.googleapis.com/auth/forms.body.readonly"
	ScopeFormsResponsesReadonly = "https://www.googleapis.com/auth/forms.responses.readonly"

	ScopeSlides         = "https://www.googleapis.com/auth/presentations"
	ScopeSlidesReadonly = "https://www.googleapis.com/auth/presentations.readonly"

	ScopeTasks         = "https://www.googleapis.com/auth/tasks"
	ScopeTasksReadonly = "https://www.googleapis.com/auth/tasks.readonly"

	ScopeContacts         = "https://www.googleapis.com/auth/contacts"
	ScopeContactsReadonly = "https://www.googleapis.com/auth/contacts.readonly"

	ScopeCustomSearch = "https://www.googleapis.com/auth/cse"

	ScopeScriptProjects            = "https://www.googleapis.com/auth/script.projects"
	ScopeScriptProjectsReadonly    = "https://www.googleapis.com/auth/script.projects.readonly"
	ScopeScriptDeployments         = "https://www.googleapis.com/auth/script.deployments"
	ScopeScriptDeploymentsReadonly = "https://www.googleapis.com/auth/script.deployments.readonly"
)

// BaseScopes are always requested during authorization for user identity.
var BaseScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// ScopeGroups maps short mnemonic names to literal scope URLs. Tools declare
// scopes by group name; strings not present in the table are treated as
// literal scope URLs and pass through unchanged.
var ScopeGroups = map[string]string{
	// Gmail
	"gmail_read":           ScopeGmailReadonly,
	"gmail_send":           ScopeGmailSend,
	"gmail_compose":        ScopeGmailCompose,
	"gmail_modify":         ScopeGmailModify,
	"gmail_labels":         ScopeGmailLabels,
	"gmail_settings_basic": ScopeGmailSettingsBasic,
	// Drive
	"drive_read": ScopeDriveReadonly,
	"drive_file": ScopeDriveFile,
	// Docs
	"docs_read":  ScopeDocsReadonly,
	"docs_write": ScopeDocsWrite,
	// Calendar
	"calendar_read":   ScopeCalendarReadonly,
	"calendar_events": ScopeCalendarEvents,
	// Sheets
	"sheets_read":  ScopeSheetsReadonly,
	"sheets_write": ScopeSheetsWrite,
	// Chat
	"chat_read":   ScopeChatReadonly,
	"chat_write":  ScopeChatWrite,
	"chat_spaces": ScopeChatSpaces,
	// Forms
	"forms":                ScopeFormsBody,
	"forms_read":           ScopeFormsBodyReadonly,
	"forms_responses_read": ScopeFormsResponsesReadonly,
	// Slides
	"slides":      ScopeSlides,
	"slides_read": ScopeSlidesReadonly,
	// Tasks
	"tasks":      ScopeTasks,
	"tasks_read": ScopeTasksReadonly,
	// Contacts
	"contacts":      ScopeContacts,
	"contacts_read": ScopeContactsReadonly,
	// Custom Search
	"customsearch": ScopeCustomSearch,
	// Apps Script
	"script_projects":             ScopeScriptProjects,
	"script_readonly":             ScopeScriptProjectsReadonly,
	"script_deployments":          ScopeScriptDeployments,
	"script_deployments_readonly": ScopeScriptDeploymentsReadonly,
}

// ResolveScopes resolves scope-group names to scope URLs. Entries absent from
// the group table are assumed to already be literal scope URLs.
func ResolveScopes(scopes []string) []string {
	resolved := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if url, ok := ScopeGroups[s]; ok {
			resolved = append(resolved, url)
		} else {
			resolved = append(resolved, s)
		}
	}
	return resolved
}
