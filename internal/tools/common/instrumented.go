package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/trace"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/config"
	"workspacemcp/internal/instrumentation"
	"workspacemcp/internal/server"
)

// ToolHandler is the mcp-go handler signature shared by all tools.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Instrument wraps a tool handler with metrics and audit logging. Without
// configured instrumentation the handler runs undecorated.
func Instrument(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return InstrumentWithService(toolName, "", "", sc, handler)
}

// InstrumentWithService additionally records Google API operation metrics for
// the named service/operation pair.
func InstrumentWithService(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var metrics *instrumentation.Metrics
		if provider := sc.Instrumentation(); provider != nil {
			metrics = provider.Metrics()
		}
		auditLogger := sc.AuditLogger()

		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		rc := sc.Authenticator().Resolve(ctx, toolName)
		generation := rc.Mechanism
		if generation == "" {
			generation = config.VersionLegacy
		}

		var span trace.Span
		if metrics != nil {
			builder := instrumentation.NewSpanAttributeBuilder().
				WithAccount(rc.Principal).
				WithGeneration(generation)
			if serviceName != "" {
				builder = builder.WithService(serviceName).WithOperation(operation)
			}
			ctx, span = instrumentation.StartToolSpan(ctx, toolName, builder.Build()...)
		}

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithSession(rc.SessionID, generation)
		if rc.Principal != "" {
			invocation = invocation.WithUser(rc.Principal)
		}
		if serviceName != "" {
			invocation = invocation.WithService(serviceName, operation)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			if err != nil {
				invocation.CompleteWithError(err)
			} else {
				invocation.Complete(false, nil)
			}
		} else {
			invocation.CompleteSuccess()
		}

		if span != nil {
			if err != nil {
				instrumentation.SetSpanError(span, err)
			} else {
				instrumentation.SetSpanSuccess(span)
			}
			span.End()
		}

		if metrics != nil {
			if rc.Principal != "" {
				metrics.RecordToolInvocationWithAccount(ctx, toolName, status, rc.Principal, duration)
			} else {
				metrics.RecordToolInvocation(ctx, toolName, status, duration)
			}
			if serviceName != "" {
				metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, duration)
			}
			recordAuthDecision(ctx, metrics, generation, serviceName, err)
			recordRefreshFailure(ctx, metrics, err)
		}

		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
			auditLogger.LogToolAudit(invocation)
		}

		return result, err
	}
}

// recordAuthDecision classifies the handler outcome for the per-call
// authentication decision counter. Only authentication errors count as
// denials; operational failures do not.
func recordAuthDecision(ctx context.Context, metrics *instrumentation.Metrics, generation, serviceName string, err error) {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		metrics.RecordAuthDecision(ctx, generation, authErr.Reason.String())
		if authErr.Reason == auth.ReasonInsufficientScopes {
			metrics.RecordScopeCheckFailure(ctx, serviceName)
		}
		return
	}
	metrics.RecordAuthDecision(ctx, generation, instrumentation.AuthResultGranted)
}

// recordRefreshFailure records the refresh-failure counter when the handler
// error is a translated token-refresh failure.
func recordRefreshFailure(ctx context.Context, metrics *instrumentation.Metrics, err error) {
	var refreshErr *auth.RefreshError
	if errors.As(err, &refreshErr) {
		metrics.RecordTokenRefreshFailure(ctx, refreshErr.Service, refreshErr.Reason)
	}
}
