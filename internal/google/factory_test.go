package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"workspacemcp/internal/auth"
)

func TestFactoryBuildsHandle(t *testing.T) {
	f := NewClientFactory(testOAuthConfig())

	cred := &auth.Credential{
		Token:     &oauth2.Token{AccessToken: "ya29.bearer", TokenType: "Bearer"},
		UserEmail: "a@x.com",
		Scopes:    []string{auth.ScopeDriveReadonly},
	}
	handle, err := f.Build(context.Background(), "drive", "v3", cred)
	require.NoError(t, err)
	assert.Equal(t, "drive", handle.ServiceName())
	assert.Equal(t, "v3", handle.Version())
	assert.Equal(t, "a@x.com", handle.UserEmail())
	assert.NotNil(t, handle.HTTPClient())
}

func TestFactoryRejectsNilCredential(t *testing.T) {
	f := NewClientFactory(testOAuthConfig())

	_, err := f.Build(context.Background(), "drive", "v3", nil)
	assert.Error(t, err)
	_, err = f.Build(context.Background(), "drive", "v3", &auth.Credential{})
	assert.Error(t, err)
}
