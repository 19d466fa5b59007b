package auth

import (
	"log/slog"

	"workspacemcp/internal/config"
)

// Authenticator wires the authentication collaborators together and produces
// decorated tool handlers via Require and RequireMultiple. It holds no
// per-call state; every invocation resolves its own context and acquires its
// own credential.
type Authenticator struct {
	cfg       *config.OAuth
	store     SessionStore
	exchanger TokenExchanger
	legacy    LegacyBroker
	factory   ClientFactory
	logger    *slog.Logger
}

// Deps are the external collaborators of the authentication layer. Store,
// Exchanger and Legacy may each be nil when the corresponding flow is not
// configured; Factory is required.
type Deps struct {
	Store     SessionStore
	Exchanger TokenExchanger
	Legacy    LegacyBroker
	Factory   ClientFactory
	Logger    *slog.Logger
}

// New creates an Authenticator with an explicit configuration snapshot.
func New(cfg *config.OAuth, deps Deps) *Authenticator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		cfg:       cfg,
		store:     deps.Store,
		exchanger: deps.Exchanger,
		legacy:    deps.Legacy,
		factory:   deps.Factory,
		logger:    logger,
	}
}
