package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"workspacemcp/internal/config"
	"workspacemcp/internal/services"
)

// fakeStore records calls and serves canned credentials per user email.
type fakeStore struct {
	calls       int
	credentials map[string]*Credential
	denyAfter   int // deny every call past this count (0 = never deny)
}

func (s *fakeStore) GetCredentialsWithValidation(requestedUserEmail, sessionID, authTokenEmail string, allowRecentAuth bool) *Credential {
	s.calls++
	if s.denyAfter > 0 && s.calls > s.denyAfter {
		return nil
	}
	return s.credentials[requestedUserEmail]
}

type fakeExchanger struct {
	calls      int
	credential *Credential
}

func (e *fakeExchanger) EnsureSessionFromAccessToken(token *AccessToken, email, sessionID string) *Credential {
	e.calls++
	return e.credential
}

type fakeFactory struct {
	builds int
}

func (f *fakeFactory) Build(ctx context.Context, serviceName, version string, cred *Credential) (*services.Handle, error) {
	f.builds++
	return services.NewHandleWithClient(serviceName, version, cred.UserEmail, nil), nil
}

func testAuthenticator(cfg *config.OAuth, store *fakeStore, exchanger TokenExchanger) (*Authenticator, *fakeFactory) {
	factory := &fakeFactory{}
	deps := Deps{
		Factory: factory,
		Logger:  slog.Default(),
	}
	if store != nil {
		deps.Store = store
	}
	if exchanger != nil {
		deps.Exchanger = exchanger
	}
	return New(cfg, deps), factory
}

func enabledConfig() *config.OAuth {
	return &config.OAuth{OAuth21Enabled: true, Transport: config.TransportStreamableHTTP}
}

func storeWith(email string, scopes ...string) *fakeStore {
	return &fakeStore{
		credentials: map[string]*Credential{
			email: {
				Token:     &oauth2.Token{AccessToken: "tok"},
				UserEmail: email,
				Scopes:    scopes,
			},
		},
	}
}

func gmailReadOp(run func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error)) Operation {
	return Operation{
		Name:        "search_gmail_messages",
		Description: "Search Gmail messages",
		Params: []Param{
			{Name: "service"},
			{Name: "query", Type: TypeString, Required: true},
		},
		Run: run,
	}
}

func TestRequireRejectsMissingServiceSlot(t *testing.T) {
	a, _ := testAuthenticator(enabledConfig(), nil, nil)

	_, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, Operation{
		Name:   "broken_tool",
		Params: []Param{{Name: "query"}},
		Run: func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, nil
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `must declare "service" as its first parameter`)
}

func TestRequireRejectsEmptyParams(t *testing.T) {
	a, _ := testAuthenticator(enabledConfig(), nil, nil)

	_, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, Operation{
		Name: "broken_tool",
		Run: func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, nil
		},
	})
	require.Error(t, err)
}

func TestRequireHidesInjectedParamFromSchema(t *testing.T) {
	a, _ := testAuthenticator(enabledConfig(), nil, nil)

	w, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, gmailReadOp(nil))
	require.Error(t, err) // nil Run is also a registration error

	w, err = a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, gmailReadOp(
		func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		}))
	require.NoError(t, err)

	require.Len(t, w.Params(), 1)
	assert.Equal(t, "query", w.Params()[0].Name)
	assert.Equal(t, []string{ScopeGmailReadonly}, w.RequiredScopes())
}

func TestRequireFailsWithoutPrincipalBeforeStoreLookup(t *testing.T) {
	store := storeWith("a@x.com", ScopeGmailReadonly)
	a, _ := testAuthenticator(enabledConfig(), store, nil)

	w, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, gmailReadOp(
		func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			t.Fatal("operation must not run")
			return nil, nil
		}))
	require.NoError(t, err)

	_, err = w.Handler()(context.Background(), mcp.CallToolRequest{})
	require.Error(t, err)

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonMissingPrincipal, authErr.Reason)
	assert.Zero(t, store.calls, "store must not be consulted without a principal")
}

func TestRequireUnknownServiceType(t *testing.T) {
	a, _ := testAuthenticator(enabledConfig(), storeWith("a@x.com"), nil)

	w, err := a.Require(ServiceSpec{Type: "fax", Scopes: []string{"gmail_read"}}, gmailReadOp(
		func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, nil
		}))
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	_, err = w.Handler()(ctx, mcp.CallToolRequest{})

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonUnknownService, authErr.Reason)
}

func TestRequireEndToEnd(t *testing.T) {
	store := storeWith("a@x.com", ScopeGmailReadonly)
	a, factory := testAuthenticator(enabledConfig(), store, nil)

	runs := 0
	w, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, gmailReadOp(
		func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			runs++
			require.NotNil(t, svc)
			assert.Equal(t, "gmail", svc.ServiceName())
			assert.Equal(t, "v1", svc.Version())
			assert.Equal(t, "a@x.com", svc.UserEmail())
			return mcp.NewToolResultText("done"), nil
		}))
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	ctx = WithSessionID(ctx, "sess-1")

	result, err := w.Handler()(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, runs, "business logic must execute exactly once")
	assert.Equal(t, 1, factory.builds)
	assert.Equal(t, 1, store.calls)
}

func TestRequireInsufficientScopes(t *testing.T) {
	store := storeWith("a@x.com", "https://x/read")
	a, _ := testAuthenticator(enabledConfig(), store, nil)

	w, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"https://x/send", "https://x/read"}}, gmailReadOp(
		func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			t.Fatal("operation must not run")
			return nil, nil
		}))
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	_, err = w.Handler()(ctx, mcp.CallToolRequest{})

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonInsufficientScopes, authErr.Reason)
	// Both sets enumerated, sorted ascending.
	assert.Contains(t, err.Error(), "Need: [https://x/read, https://x/send]")
	assert.Contains(t, err.Error(), "Have: [https://x/read]")
}

func TestRequireStoreDenial(t *testing.T) {
	store := &fakeStore{credentials: map[string]*Credential{}}
	a, _ := testAuthenticator(enabledConfig(), store, nil)

	w, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, gmailReadOp(
		func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, nil
		}))
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	_, err = w.Handler()(ctx, mcp.CallToolRequest{})

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonStoreDenied, authErr.Reason)
	assert.Contains(t, err.Error(), "a@x.com")
}

func TestRequireIdentityMismatchBeforeExchange(t *testing.T) {
	exchanger := &fakeExchanger{}
	a, _ := testAuthenticator(enabledConfig(), nil, exchanger)

	w, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, gmailReadOp(
		func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			t.Fatal("operation must not run")
			return nil, nil
		}))
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), "b@x.com", "oauth21")
	ctx = WithAccessToken(ctx, &AccessToken{
		Raw:    "tok",
		Claims: map[string]any{"email": "a@x.com"},
		Scopes: []string{ScopeGmailReadonly},
	})

	_, err = w.Handler()(ctx, mcp.CallToolRequest{})

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonIdentityMismatch, authErr.Reason)
	assert.Zero(t, exchanger.calls, "no exchange may happen on identity mismatch")
}

func TestRequireTokenExchangePath(t *testing.T) {
	exchanger := &fakeExchanger{
		credential: &Credential{
			Token:     &oauth2.Token{AccessToken: "tok"},
			UserEmail: "a@x.com",
			Scopes:    []string{ScopeGmailReadonly},
		},
	}
	a, factory := testAuthenticator(enabledConfig(), nil, exchanger)

	w, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, gmailReadOp(
		func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		}))
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	ctx = WithAccessToken(ctx, &AccessToken{
		Raw:    "tok",
		Claims: map[string]any{"email": "a@x.com"},
	})

	_, err = w.Handler()(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, exchanger.calls)
	assert.Equal(t, 1, factory.builds)
}

func TestRequireTranslatesRefreshFailure(t *testing.T) {
	store := storeWith("a@x.com", ScopeGmailReadonly)
	a, _ := testAuthenticator(enabledConfig(), store, nil)

	w, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, gmailReadOp(
		func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, errors.New(`oauth2: "invalid_grant" "Token has been expired or revoked."`)
		}))
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	_, err = w.Handler()(ctx, mcp.CallToolRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "a@x.com")
	assert.Contains(t, err.Error(), "start_google_auth")
	assert.Contains(t, err.Error(), "Expired/Revoked")
}

func TestRequirePropagatesUnclassifiedErrors(t *testing.T) {
	store := storeWith("a@x.com", ScopeGmailReadonly)
	a, _ := testAuthenticator(enabledConfig(), store, nil)

	opErr := errors.New("quota exceeded")
	w, err := a.Require(ServiceSpec{Type: "gmail", Scopes: []string{"gmail_read"}}, gmailReadOp(
		func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, opErr
		}))
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	_, err = w.Handler()(ctx, mcp.CallToolRequest{})
	assert.Same(t, opErr, err, "unrecognized errors must propagate unchanged")
}

func TestRequireMultipleInjectsAllHandles(t *testing.T) {
	store := storeWith("a@x.com", ScopeDriveReadonly, ScopeDocsReadonly)
	a, _ := testAuthenticator(enabledConfig(), store, nil)

	runs := 0
	w, err := a.RequireMultiple(
		[]ServiceSpec{
			{Type: "drive", Scopes: []string{"drive_read"}, ParamName: "drive_service"},
			{Type: "docs", Scopes: []string{"docs_read"}, ParamName: "docs_service"},
		},
		MultiOperation{
			Name: "get_doc_with_metadata",
			Params: []Param{
				{Name: "drive_service"},
				{Name: "docs_service"},
				{Name: "document_id", Type: TypeString, Required: true},
			},
			Run: func(ctx context.Context, handles map[string]*services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				runs++
				require.Contains(t, handles, "drive_service")
				require.Contains(t, handles, "docs_service")
				assert.Equal(t, "drive", handles["drive_service"].ServiceName())
				assert.Equal(t, "docs", handles["docs_service"].ServiceName())
				return mcp.NewToolResultText("ok"), nil
			},
		},
	)
	require.NoError(t, err)

	// Handle slots dropped from the visible schema.
	require.Len(t, w.Params(), 1)
	assert.Equal(t, "document_id", w.Params()[0].Name)
	assert.ElementsMatch(t, []string{ScopeDriveReadonly, ScopeDocsReadonly}, w.RequiredScopes())

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	_, err = w.Handler()(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 2, store.calls)
}

func TestRequireMultipleShortCircuitsOnSecondFailure(t *testing.T) {
	store := storeWith("a@x.com", ScopeDriveReadonly, ScopeDocsReadonly)
	store.denyAfter = 1 // first service authenticates, second is denied
	a, _ := testAuthenticator(enabledConfig(), store, nil)

	w, err := a.RequireMultiple(
		[]ServiceSpec{
			{Type: "drive", Scopes: []string{"drive_read"}, ParamName: "drive_service"},
			{Type: "docs", Scopes: []string{"docs_read"}, ParamName: "docs_service"},
		},
		MultiOperation{
			Name:   "get_doc_with_metadata",
			Params: []Param{{Name: "drive_service"}, {Name: "docs_service"}},
			Run: func(ctx context.Context, handles map[string]*services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				t.Fatal("operation must not run when a service fails to authenticate")
				return nil, nil
			},
		},
	)
	require.NoError(t, err)

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	_, err = w.Handler()(ctx, mcp.CallToolRequest{})

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonStoreDenied, authErr.Reason)
	assert.Equal(t, 2, store.calls)
}

func TestRequireMultipleNeedsParamNames(t *testing.T) {
	a, _ := testAuthenticator(enabledConfig(), nil, nil)

	_, err := a.RequireMultiple(
		[]ServiceSpec{{Type: "drive", Scopes: []string{"drive_read"}}},
		MultiOperation{
			Name: "broken",
			Run: func(ctx context.Context, handles map[string]*services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, nil
			},
		},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "param name")
}
