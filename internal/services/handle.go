package services

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/chat/v1"
	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
	"google.golang.org/api/script/v1"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/slides/v1"
	"google.golang.org/api/tasks/v1"
)

// Handle is a client bound to one Google service, version and credential.
// It is owned by a single tool invocation and must not be cached across calls.
type Handle struct {
	service   string
	version   string
	userEmail string
	client    *http.Client
}

// NewHandle builds a handle for the given service/version using an OAuth
// token source. The token source is responsible for refresh; the handle only
// carries the resulting authorized HTTP client.
func NewHandle(service, version, userEmail string, src oauth2.TokenSource) *Handle {
	return &Handle{
		service:   service,
		version:   version,
		userEmail: userEmail,
		client:    oauth2.NewClient(context.Background(), src),
	}
}

// NewHandleWithClient builds a handle around an existing HTTP client.
// Used by tests and by transports that already hold an authorized client.
func NewHandleWithClient(service, version, userEmail string, client *http.Client) *Handle {
	return &Handle{
		service:   service,
		version:   version,
		userEmail: userEmail,
		client:    client,
	}
}

// ServiceName returns the Google API service name this handle is bound to.
func (h *Handle) ServiceName() string { return h.service }

// Version returns the API version this handle is bound to.
func (h *Handle) Version() string { return h.version }

// UserEmail returns the principal the handle's credential belongs to.
func (h *Handle) UserEmail() string { return h.userEmail }

// HTTPClient returns the authorized HTTP client backing this handle.
func (h *Handle) HTTPClient() *http.Client { return h.client }

func (h *Handle) ensure(service string) error {
	if h.service != service {
		return fmt.Errorf("handle is bound to %q, not %q", h.service, service)
	}
	return nil
}

// Gmail returns a Gmail API client for this handle.
func (h *Handle) Gmail(ctx context.Context) (*gmail.Service, error) {
	if err := h.ensure("gmail"); err != nil {
		return nil, err
	}
	return gmail.NewService(ctx, option.WithHTTPClient(h.client))
}

// Drive returns a Drive API client for this handle.
func (h *Handle) Drive(ctx context.Context) (*drive.Service, error) {
	if err := h.ensure("drive"); err != nil {
		return nil, err
	}
	return drive.NewService(ctx, option.WithHTTPClient(h.client))
}

// Calendar returns a Calendar API client for this handle.
func (h *Handle) Calendar(ctx context.Context) (*calendar.Service, error) {
	if err := h.ensure("calendar"); err != nil {
		return nil, err
	}
	return calendar.NewService(ctx, option.WithHTTPClient(h.client))
}

// Docs returns a Docs API client for this handle.
func (h *Handle) Docs(ctx context.Context) (*docs.Service, error) {
	if err := h.ensure("docs"); err != nil {
		return nil, err
	}
	return docs.NewService(ctx, option.WithHTTPClient(h.client))
}

// Sheets returns a Sheets API client for this handle.
func (h *Handle) Sheets(ctx context.Context) (*sheets.Service, error) {
	if err := h.ensure("sheets"); err != nil {
		return nil, err
	}
	return sheets.NewService(ctx, option.WithHTTPClient(h.client))
}

// Chat returns a Chat API client for this handle.
func (h *Handle) Chat(ctx context.Context) (*chat.Service, error) {
	if err := h.ensure("chat"); err != nil {
		return nil, err
	}
	return chat.NewService(ctx, option.WithHTTPClient(h.client))
}

// Forms returns a Forms API client for this handle.
func (h *Handle) Forms(ctx context.Context) (*forms.Service, error) {
	if err := h.ensure("forms"); err != nil {
		return nil, err
	}
	return forms.NewService(ctx, option.WithHTTPClient(h.client))
}

// Slides returns a Slides API client for this handle.
func (h *Handle) Slides(ctx context.Context) (*slides.Service, error) {
	if err := h.ensure("slides"); err != nil {
		return nil, err
	}
	return slides.NewService(ctx, option.WithHTTPClient(h.client))
}

// Tasks returns a Tasks API client for this handle.
func (h *Handle) Tasks(ctx context.Context) (*tasks.Service, error) {
	if err := h.ensure("tasks"); err != nil {
		return nil, err
	}
	return tasks.NewService(ctx, option.WithHTTPClient(h.client))
}

// People returns a People (Contacts) API client for this handle.
func (h *Handle) People(ctx context.Context) (*people.Service, error) {
	if err := h.ensure("people"); err != nil {
		return nil, err
	}
	return people.NewService(ctx, option.WithHTTPClient(h.client))
}

// CustomSearch returns a Custom Search API client for this handle.
func (h *Handle) CustomSearch(ctx context.Context) (*customsearch.Service, error) {
	if err := h.ensure("customsearch"); err != nil {
		return nil, err
	}
	return customsearch.NewService(ctx, option.WithHTTPClient(h.client))
}

// Script returns an Apps Script API client for this handle.
func (h *Handle) Script(ctx context.Context) (*script.Service, error) {
	if err := h.ensure("script"); err != nil {
		return nil, err
	}
	return script.NewService(ctx, option.WithHTTPClient(h.client))
}
