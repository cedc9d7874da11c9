package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

func TestFromContextFallback(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
}

func TestRequestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := middleware.RequestID(NewRequestLoggerMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodPost, "/save", nil)
	req.Header.Set("User-Agent", "bricks-test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Contains(t, buf.String(), `"path":"/save"`)
	require.Contains(t, buf.String(), `"userAgent":"bricks-test"`)
	require.Contains(t, buf.String(), `"requestId":"`)
}

func TestAddMetaToContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := AddToContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx = AddMetaToContext(ctx, slog.String("playerId", "42"))
	FromContext(ctx).Info("saved")
	require.Contains(t, buf.String(), `"playerId":"42"`)
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client.log")
	logger, closer, err := NewFileLogger(path, slog.LevelInfo)
	require.NoError(t, err)
	logger.Info("hello", "n", 1)
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "msg=hello")
}
