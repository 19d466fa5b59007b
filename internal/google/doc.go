// Package google implements Google credential plumbing for both OAuth
// generations.
//
// For the legacy OAuth 2.0 flow it stores per-account credential files on
// disk and exposes a broker that turns a stored credential into an authorized
// service handle. For the OAuth 2.1 flow it provides the client factory that
// binds a session-store credential to a service handle.
package google
