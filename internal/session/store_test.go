package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"workspacemcp/internal/auth"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStoreWithOptions(time.Hour, DefaultRecentAuthWindow, nil)
	t.Cleanup(s.Stop)
	return s
}

func validCredential(email string) *auth.Credential {
	return &auth.Credential{
		Token: &oauth2.Token{
			AccessToken: "ya29.test",
			TokenType:   "Bearer",
			Expiry:      time.Now().Add(time.Hour),
		},
		UserEmail: email,
		Scopes:    []string{"https://www.googleapis.com/auth/gmail.readonly"},
	}
}

func TestGetCredentialsMatchingIdentity(t *testing.T) {
	s := newTestStore(t)
	s.SaveCredential("a@x.com", validCredential("a@x.com"), "sess-1")

	cred := s.GetCredentialsWithValidation("a@x.com", "sess-1", "a@x.com", false)
	require.NotNil(t, cred)
	assert.Equal(t, "a@x.com", cred.UserEmail)
}

func TestGetCredentialsIdentityMismatch(t *testing.T) {
	s := newTestStore(t)
	s.SaveCredential("a@x.com", validCredential("a@x.com"), "sess-1")

	// Authenticated as b@x.com, asking for a@x.com.
	assert.Nil(t, s.GetCredentialsWithValidation("a@x.com", "sess-1", "b@x.com", false))
}

func TestGetCredentialsSessionBoundToOtherIdentity(t *testing.T) {
	s := newTestStore(t)
	s.SaveCredential("a@x.com", validCredential("a@x.com"), "sess-1")
	s.SaveCredential("b@x.com", validCredential("b@x.com"), "sess-2")

	// sess-1 belongs to a@x.com; it cannot read b@x.com's credential even
	// with a matching auth token email for b.
	assert.Nil(t, s.GetCredentialsWithValidation("b@x.com", "sess-1", "b@x.com", false))
}

func TestGetCredentialsUnboundSessionRequiresIdentityOrRecentAuth(t *testing.T) {
	s := newTestStore(t)
	s.SaveCredential("a@x.com", validCredential("a@x.com"), "")

	// No auth token email, recent auth not allowed: denied.
	assert.Nil(t, s.GetCredentialsWithValidation("a@x.com", "sess-new", "", false))

	// Recent auth allowed and the credential was just saved: granted, and the
	// session becomes bound.
	cred := s.GetCredentialsWithValidation("a@x.com", "sess-new", "", true)
	require.NotNil(t, cred)
	bound, ok := s.BoundIdentity("sess-new")
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", bound)
}

func TestGetCredentialsRecentAuthWindowExpires(t *testing.T) {
	s := NewStoreWithOptions(time.Hour, 10*time.Millisecond, nil)
	t.Cleanup(s.Stop)

	s.SaveCredential("a@x.com", validCredential("a@x.com"), "")
	time.Sleep(30 * time.Millisecond)

	assert.Nil(t, s.GetCredentialsWithValidation("a@x.com", "sess-late", "", true))
}

func TestGetCredentialsExpiredToken(t *testing.T) {
	s := newTestStore(t)
	cred := validCredential("a@x.com")
	cred.Token.Expiry = time.Now().Add(-time.Minute)
	s.SaveCredential("a@x.com", cred, "sess-1")

	assert.Nil(t, s.GetCredentialsWithValidation("a@x.com", "sess-1", "a@x.com", false))
}

func TestGetCredentialsUnknownUser(t *testing.T) {
	s := newTestStore(t)
	assert.Nil(t, s.GetCredentialsWithValidation("ghost@x.com", "", "ghost@x.com", false))
}

func TestGetCredentialsEmptyEmail(t *testing.T) {
	s := newTestStore(t)
	assert.Nil(t, s.GetCredentialsWithValidation("", "sess-1", "", true))
}

func TestEnsureSessionFromAccessToken(t *testing.T) {
	s := newTestStore(t)

	token := &auth.AccessToken{
		Raw:    "ya29.bearer",
		Scopes: []string{"https://www.googleapis.com/auth/drive.readonly"},
	}
	cred := s.EnsureSessionFromAccessToken(token, "a@x.com", "sess-1")
	require.NotNil(t, cred)
	assert.Equal(t, "ya29.bearer", cred.Token.AccessToken)
	assert.Equal(t, "a@x.com", cred.UserEmail)
	assert.Equal(t, token.Scopes, cred.Scopes)

	bound, ok := s.BoundIdentity("sess-1")
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", bound)

	// A second call on another session reuses the stored credential.
	again := s.EnsureSessionFromAccessToken(token, "a@x.com", "sess-2")
	assert.Same(t, cred, again)
	bound, _ = s.BoundIdentity("sess-2")
	assert.Equal(t, "a@x.com", bound)
}

func TestEnsureSessionRejectsIncompleteInput(t *testing.T) {
	s := newTestStore(t)

	assert.Nil(t, s.EnsureSessionFromAccessToken(nil, "a@x.com", "sess-1"))
	assert.Nil(t, s.EnsureSessionFromAccessToken(&auth.AccessToken{}, "a@x.com", "sess-1"))
	assert.Nil(t, s.EnsureSessionFromAccessToken(&auth.AccessToken{Raw: "tok"}, "", "sess-1"))
}

func TestRemoveSessionKeepsCredential(t *testing.T) {
	s := newTestStore(t)
	s.SaveCredential("a@x.com", validCredential("a@x.com"), "sess-1")

	s.RemoveSession("sess-1")
	_, ok := s.BoundIdentity("sess-1")
	assert.False(t, ok)

	// The credential is still there for a correctly authenticated caller.
	assert.NotNil(t, s.GetCredentialsWithValidation("a@x.com", "", "a@x.com", false))
}

func TestRemoveUserDropsBindings(t *testing.T) {
	s := newTestStore(t)
	s.SaveCredential("a@x.com", validCredential("a@x.com"), "sess-1")
	s.SaveCredential("a@x.com", validCredential("a@x.com"), "sess-2")

	s.RemoveUser("a@x.com")
	_, ok := s.BoundIdentity("sess-1")
	assert.False(t, ok)
	_, ok = s.BoundIdentity("sess-2")
	assert.False(t, ok)
	assert.Nil(t, s.GetCredentialsWithValidation("a@x.com", "", "a@x.com", false))
}

func TestSweepRemovesExpiredCredentials(t *testing.T) {
	s := NewStoreWithOptions(10*time.Millisecond, DefaultRecentAuthWindow, nil)
	t.Cleanup(s.Stop)

	cred := validCredential("a@x.com")
	cred.Token.Expiry = time.Now().Add(-time.Minute)
	s.SaveCredential("a@x.com", cred, "sess-1")

	assert.Eventually(t, func() bool {
		_, ok := s.BoundIdentity("sess-1")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
