package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyTool       = "tool"
	KeyService    = "service"
	KeyVersion    = "version"
	KeySession    = "session"
	KeyMechanism  = "mechanism"
	KeyGeneration = "generation"
	KeyUserHash   = "user_hash"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Setup configures the default slog logger. MCP stdio transport owns stdout,
// so logs always go to stderr.
func Setup(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Service returns a slog attribute for the Google service name.
func Service(svc string) slog.Attr {
	return slog.String(KeyService, svc)
}

// Version returns a slog attribute for the Google API version.
func Version(v string) slog.Attr {
	return slog.String(KeyVersion, v)
}

// Session returns a slog attribute for the session (correlation) id,
// truncated to keep logs readable.
func Session(id string) slog.Attr {
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		id = "none"
	}
	return slog.String(KeySession, id)
}

// Mechanism returns a slog attribute for the authentication mechanism.
func Mechanism(m string) slog.Attr {
	if m == "" {
		m = "none"
	}
	return slog.String(KeyMechanism, m)
}

// Generation returns a slog attribute naming the OAuth generation in use.
func Generation(oauth21 bool) slog.Attr {
	g := "legacy"
	if oauth21 {
		g = "oauth21"
	}
	return slog.String(KeyGeneration, g)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error. A nil error yields an empty
// group that slog omits from output, so Err(maybeNil) is always safe.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email for logging.
// This allows correlating log entries without exposing PII.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user email.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken returns a masked version of a token for logging. Only a
// length indicator is exposed; even partial token prefixes can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// ExtractDomain extracts the domain part of an email address, useful for
// lower-cardinality logging than the full address.
func ExtractDomain(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
