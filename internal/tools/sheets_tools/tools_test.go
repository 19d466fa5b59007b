package sheets_tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workspacemcp/internal/auth"
	"workspacemcp/internal/config"
	"workspacemcp/internal/google"
	srv "workspacemcp/internal/server"
	"workspacemcp/internal/session"
)

func newTestServerContext(t *testing.T) *srv.ServerContext {
	t.Helper()

	cfg := &config.OAuth{
		OAuth21Enabled: true,
		Transport:      config.TransportStreamableHTTP,
		GoogleClientID: "client-id",
	}
	sessions := session.NewStore()
	authn := auth.New(cfg, auth.Deps{
		Store:     sessions,
		Exchanger: sessions,
		Factory:   google.NewClientFactory(cfg),
	})
	sc := srv.NewServerContext(context.Background(), cfg, authn, sessions, srv.NewSessionIDManager())
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestRegisterSheetsTools(t *testing.T) {
	s := server.NewMCPServer("test", "0.0.1")
	sc := newTestServerContext(t)

	err := RegisterSheetsTools(s, sc)
	require.NoError(t, err)
}

func TestParseValues(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    [][]any
		wantErr bool
	}{
		{
			name: "JSON string",
			raw:  `[["a","b"],["c","d"]]`,
			want: [][]any{{"a", "b"}, {"c", "d"}},
		},
		{
			name: "decoded array",
			raw:  []any{[]any{"a", "b"}},
			want: [][]any{{"a", "b"}},
		},
		{
			name:    "malformed JSON string",
			raw:     `not json`,
			wantErr: true,
		},
		{
			name:    "array of non-arrays",
			raw:     []any{"a", "b"},
			wantErr: true,
		},
		{
			name:    "nil",
			raw:     nil,
			wantErr: true,
		},
		{
			name:    "wrong type",
			raw:     42,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValues(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
