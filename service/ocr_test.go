package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsmind-ai/kb-gateway/types"
)

func TestOCRClientExtractErrorLogs(t *testing.T) {
	image := []byte{0x89, 0x50, 0x4e, 0x47}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/extract-error-logs", r.URL.Path)

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		buf, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, image, buf)

		json.NewEncoder(w).Encode(types.OCRResult{
			ErrorSummary: "postgres connection limit reached",
			FullText:     "FATAL: remaining connection slots are reserved",
			ErrorLines:   []string{"FATAL: remaining connection slots are reserved"},
			Confidence:   0.92,
		})
	}))
	defer server.Close()

	client := NewOCRClient(server.URL, zap.NewNop())
	result, err := client.ExtractErrorLogs(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, "postgres connection limit reached", result.ErrorSummary)
	assert.Equal(t, "FATAL: remaining connection slots are reserved", result.FullText)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
}

func TestOCRClientBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOCRClient(server.URL, zap.NewNop())
	_, err := client.ExtractErrorLogs(context.Background(), []byte{0x01})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestOCRClientUnreachable(t *testing.T) {
	client := NewOCRClient("http://127.0.0.1:1", zap.NewNop())
	_, err := client.ExtractErrorLogs(context.Background(), []byte{0x01})
	assert.Error(t, err)
}
