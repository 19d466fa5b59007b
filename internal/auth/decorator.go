package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"workspacemcp/internal/logging"
	"workspacemcp/internal/services"
)

// Parameter value types understood by the tool schema.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Param describes one declared parameter of a tool operation. The ordered
// parameter list doubles as the tool's externally visible schema: injected
// handle slots are dropped before the schema is generated, so clients only
// ever see the caller-supplied parameters.
type Param struct {
	Name        string
	Type        string // TypeString, TypeNumber or TypeBoolean; empty means string
	Description string
	Required    bool
}

// ServiceSpec declares one Google service requirement for a tool.
type ServiceSpec struct {
	// Type is a key into the service registry ("gmail", "drive", ...).
	Type string

	// Scopes are the required scopes, as scope-group names or literal URLs.
	Scopes []string

	// ParamName is the injected-handle slot name. Defaults to "service" for
	// the single-service form; required for the multi-service form.
	ParamName string

	// Version overrides the registry's default API version when set.
	Version string
}

// Operation is a tool implementation wrapped by Require. Its first declared
// parameter must be the injected service handle slot.
type Operation struct {
	Name        string
	Description string
	Params      []Param
	Run         func(ctx context.Context, svc *services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// MultiOperation is a tool implementation wrapped by RequireMultiple. Handles
// are injected under the parameter names declared in the service specs.
type MultiOperation struct {
	Name        string
	Description string
	Params      []Param
	Run         func(ctx context.Context, handles map[string]*services.Handle, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Wrapped is a decorated operation ready for MCP registration. The visible
// parameter list and the resolved scope set are declared metadata, available
// to the surrounding framework for schema generation and tool filtering.
type Wrapped struct {
	name           string
	description    string
	visibleParams  []Param
	requiredScopes []string
	handler        mcpserver.ToolHandlerFunc
}

// Name returns the tool name.
func (w *Wrapped) Name() string { return w.name }

// Params returns the externally visible parameters (injected slots dropped).
func (w *Wrapped) Params() []Param { return w.visibleParams }

// RequiredScopes returns the fully resolved scope URLs this tool needs.
// Consumed by tool-filtering mechanisms.
func (w *Wrapped) RequiredScopes() []string { return w.requiredScopes }

// Handler returns the MCP handler that authenticates and then invokes the
// wrapped operation.
func (w *Wrapped) Handler() mcpserver.ToolHandlerFunc { return w.handler }

// Tool builds the MCP tool declaration from the visible parameter metadata.
func (w *Wrapped) Tool() mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(w.description)}
	for _, p := range w.visibleParams {
		var propOpts []mcp.PropertyOption
		if p.Description != "" {
			propOpts = append(propOpts, mcp.Description(p.Description))
		}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch p.Type {
		case TypeNumber:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case TypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(w.name, opts...)
}

// Require wraps an operation with single-service authentication. The
// operation's first declared parameter must be the injected-handle slot;
// violating that contract is a registration-time error, never a per-call one.
func (a *Authenticator) Require(spec ServiceSpec, op Operation) (*Wrapped, error) {
	slot := spec.ParamName
	if slot == "" {
		slot = "service"
	}
	if len(op.Params) == 0 || op.Params[0].Name != slot {
		return nil, fmt.Errorf("operation %q must declare %q as its first parameter", op.Name, slot)
	}
	if op.Run == nil {
		return nil, fmt.Errorf("operation %q has no implementation", op.Name)
	}

	resolvedScopes := ResolveScopes(spec.Scopes)
	w := &Wrapped{
		name:           op.Name,
		description:    op.Description,
		visibleParams:  append([]Param(nil), op.Params[1:]...),
		requiredScopes: resolvedScopes,
	}

	w.handler = func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rc := a.Resolve(ctx, op.Name)
		if rc.Principal == "" {
			return nil, newError(ReasonMissingPrincipal,
				"authentication required for %s, but no authenticated user was found", op.Name)
		}

		svcCfg, ok := LookupService(spec.Type)
		if !ok {
			return nil, newError(ReasonUnknownService, "unknown service type: %s", spec.Type)
		}
		version := spec.Version
		if version == "" {
			version = svcCfg.Version
		}

		useOAuth21 := a.useOAuth21(ctx, rc, op.Name)

		handle, userEmail, err := a.acquire(ctx, useOAuth21, svcCfg.Service, version, op.Name, resolvedScopes, rc.SessionID, rc.Principal)
		if err != nil {
			a.logAuthFailure(op.Name, spec.Type, svcCfg.Service, version, rc, useOAuth21, err)
			// Re-raise unchanged; authentication errors are never wrapped.
			return nil, err
		}

		result, err := op.Run(ctx, handle, req)
		if err != nil && IsRefreshError(err) {
			return nil, a.translateRefreshError(err, userEmail, svcCfg.Service)
		}
		return result, err
	}

	return w, nil
}

// RequireMultiple wraps an operation needing several Google services.
// Services are authenticated in declaration order and the wrapper
// short-circuits on the first failure; no cleanup is needed because no
// resources are held across failures. Generation selection here is
// deliberately simpler than the single-service path: it only checks global
// enablement plus principal presence, with no token-presence fallback.
func (a *Authenticator) RequireMultiple(specs []ServiceSpec, op MultiOperation) (*Wrapped, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("operation %q requires at least one service spec", op.Name)
	}
	slots := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if spec.ParamName == "" {
			return nil, fmt.Errorf("operation %q: service spec %d needs a param name", op.Name, i)
		}
		if slots[spec.ParamName] {
			return nil, fmt.Errorf("operation %q: duplicate injected param %q", op.Name, spec.ParamName)
		}
		slots[spec.ParamName] = true
	}
	if op.Run == nil {
		return nil, fmt.Errorf("operation %q has no implementation", op.Name)
	}

	// Handle slots are dropped from the visible schema.
	var visible []Param
	for _, p := range op.Params {
		if !slots[p.Name] {
			visible = append(visible, p)
		}
	}

	var allScopes []string
	for _, spec := range specs {
		allScopes = append(allScopes, ResolveScopes(spec.Scopes)...)
	}

	w := &Wrapped{
		name:           op.Name,
		description:    op.Description,
		visibleParams:  visible,
		requiredScopes: allScopes,
	}

	w.handler = func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rc := a.Resolve(ctx, op.Name)
		if rc.Principal == "" {
			return nil, newError(ReasonMissingPrincipal,
				"authentication required for %s, but no authenticated user was found", op.Name)
		}

		handles := make(map[string]*services.Handle, len(specs))
		for _, spec := range specs {
			svcCfg, ok := LookupService(spec.Type)
			if !ok {
				return nil, newError(ReasonUnknownService, "unknown service type: %s", spec.Type)
			}
			version := spec.Version
			if version == "" {
				version = svcCfg.Version
			}
			resolved := ResolveScopes(spec.Scopes)

			useOAuth21 := a.useOAuth21Simple(rc)
			handle, _, err := a.acquire(ctx, useOAuth21, svcCfg.Service, version, op.Name, resolved, rc.SessionID, rc.Principal)
			if err != nil {
				a.logger.Error("authentication failed for service",
					logging.Tool(op.Name),
					slog.String("service_type", spec.Type),
					logging.UserHash(rc.Principal),
					logging.Err(err),
				)
				return nil, err
			}
			handles[spec.ParamName] = handle
		}

		result, err := op.Run(ctx, handles, req)
		if err != nil && IsRefreshError(err) {
			return nil, a.translateRefreshError(err, rc.Principal, "multiple services")
		}
		return result, err
	}

	return w, nil
}

// logAuthFailure records an authentication failure with full diagnostic
// context. Only *Error values get the detailed treatment; other errors are
// factory-level and logged plainly.
func (a *Authenticator) logAuthFailure(toolName, serviceType, serviceName, version string, rc RequestAuthContext, useOAuth21 bool, err error) {
	var authErr *Error
	if errors.As(err, &authErr) {
		a.logger.Error("authentication failed",
			logging.Tool(toolName),
			slog.String("service_type", serviceType),
			logging.Service(serviceName),
			logging.Version(version),
			logging.Mechanism(rc.Mechanism),
			logging.UserHash(rc.Principal),
			logging.Session(rc.SessionID),
			logging.Generation(useOAuth21),
			slog.String("reason", authErr.Reason.String()),
			logging.Err(err),
		)
		return
	}
	a.logger.Error("service client construction failed",
		logging.Tool(toolName), logging.Service(serviceName), logging.Err(err))
}
