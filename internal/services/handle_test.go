package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMetadata(t *testing.T) {
	h := NewHandleWithClient("gmail", "v1", "user@example.com", http.DefaultClient)

	assert.Equal(t, "gmail", h.ServiceName())
	assert.Equal(t, "v1", h.Version())
	assert.Equal(t, "user@example.com", h.UserEmail())
	assert.NotNil(t, h.HTTPClient())
}

func TestHandleRejectsWrongService(t *testing.T) {
	h := NewHandleWithClient("gmail", "v1", "user@example.com", http.DefaultClient)

	_, err := h.Drive(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `bound to "gmail"`)
}

func TestHandleBuildsBoundClient(t *testing.T) {
	h := NewHandleWithClient("drive", "v3", "user@example.com", http.DefaultClient)

	svc, err := h.Drive(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
