package google

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/oauth2"

	"workspacemcp/internal/auth"
)

// credentialRecord is the on-disk shape of a stored legacy credential.
type credentialRecord struct {
	Email  string        `json:"email"`
	Token  *oauth2.Token `json:"token"`
	Scopes []string      `json:"scopes"`
}

// validateAccountEmail rejects emails that cannot safely name a file.
func validateAccountEmail(email string) error {
	if email == "" {
		return fmt.Errorf("account email must not be empty")
	}
	if strings.ContainsAny(email, " /\\") || strings.Contains(email, "..") {
		return fmt.Errorf("invalid account email %q", email)
	}
	return nil
}

func credentialDir() string {
	return filepath.Join(userCacheDir(), "workspacemcp", "credentials")
}

func credentialFilePath(email string) string {
	return filepath.Join(credentialDir(), strings.ToLower(email)+".json")
}

// SaveCredentials persists a credential for the given account.
func SaveCredentials(userEmail string, token *oauth2.Token, scopes []string) error {
	if err := validateAccountEmail(userEmail); err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("cannot save nil token for %s", userEmail)
	}
	if err := os.MkdirAll(credentialDir(), 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.Marshal(credentialRecord{
		Email:  userEmail,
		Token:  token,
		Scopes: scopes,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(credentialFilePath(userEmail), data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// LoadCredentials reads the stored credential for the given account.
func LoadCredentials(userEmail string) (*credentialRecord, error) {
	if err := validateAccountEmail(userEmail); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(credentialFilePath(userEmail))
	if err != nil {
		return nil, fmt.Errorf("no stored credentials for %s", userEmail)
	}
	var rec credentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt credential file for %s: %w", userEmail, err)
	}
	if rec.Token == nil {
		return nil, fmt.Errorf("credential file for %s holds no token", userEmail)
	}
	return &rec, nil
}

// LoadCredential reads the stored credential for the given account as an
// auth-layer credential.
func LoadCredential(userEmail string) (*auth.Credential, error) {
	rec, err := LoadCredentials(userEmail)
	if err != nil {
		return nil, err
	}
	return &auth.Credential{
		Token:     rec.Token,
		UserEmail: rec.Email,
		Scopes:    rec.Scopes,
	}, nil
}

// HasCredentials reports whether a credential file exists for the account.
func HasCredentials(userEmail string) bool {
	if validateAccountEmail(userEmail) != nil {
		return false
	}
	_, err := os.Stat(credentialFilePath(userEmail))
	return err == nil
}

// RemoveCredentials deletes the stored credential for the account.
func RemoveCredentials(userEmail string) error {
	if err := validateAccountEmail(userEmail); err != nil {
		return err
	}
	if err := os.Remove(credentialFilePath(userEmail)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
