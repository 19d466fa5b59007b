// Package services provides credential-bound client handles for the Google
// Workspace APIs exposed by this server.
//
// A Handle is scoped to exactly one service/version/credential triple and is
// created fresh for every tool invocation by the authentication layer. Typed
// accessors construct the underlying google.golang.org/api clients on demand.
package services
