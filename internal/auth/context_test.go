package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEmptyContext(t *testing.T) {
	a, _ := testAuthenticator(enabledConfig(), nil, nil)

	rc := a.Resolve(context.Background(), "test_tool")
	assert.Empty(t, rc.Principal)
	assert.Empty(t, rc.Mechanism)
	assert.Empty(t, rc.SessionID)
}

func TestResolvePopulatedContext(t *testing.T) {
	a, _ := testAuthenticator(enabledConfig(), nil, nil)

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	ctx = WithSessionID(ctx, "sess-42")

	rc := a.Resolve(ctx, "test_tool")
	assert.Equal(t, "a@x.com", rc.Principal)
	assert.Equal(t, "oauth21", rc.Mechanism)
	assert.Equal(t, "sess-42", rc.SessionID)
}

func TestResolveIsIdempotent(t *testing.T) {
	a, _ := testAuthenticator(enabledConfig(), nil, nil)

	ctx := WithPrincipal(context.Background(), "a@x.com", "oauth21")
	ctx = WithSessionID(ctx, "sess-42")

	first := a.Resolve(ctx, "test_tool")
	second := a.Resolve(ctx, "test_tool")
	assert.Equal(t, first, second)
}

func TestResolvePublishesSessionID(t *testing.T) {
	a, _ := testAuthenticator(enabledConfig(), nil, nil)

	ctx := WithSessionID(context.Background(), "sess-published")
	a.Resolve(ctx, "test_tool")
	assert.Equal(t, "sess-published", LastSessionID())

	// Publishing the same value twice is a no-op in effect.
	a.Resolve(ctx, "test_tool")
	assert.Equal(t, "sess-published", LastSessionID())
}

func TestAccessTokenFromContext(t *testing.T) {
	assert.Nil(t, AccessTokenFromContext(context.Background()))

	token := &AccessToken{Raw: "tok", Claims: map[string]any{"email": "a@x.com"}}
	ctx := WithAccessToken(context.Background(), token)
	assert.Same(t, token, AccessTokenFromContext(ctx))
	assert.Equal(t, "a@x.com", token.EmailClaim())
	assert.Empty(t, (&AccessToken{}).EmailClaim())
}
