package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/auth"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/server"
)

const (
	testSecret = "handlers-test-secret"
	testUserID = "user-1"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEcho(t *testing.T, handlers ...server.Handler) *echo.Echo {
	t.Helper()
	return server.NewServer(silentLogger(), "", testSecret, handlers...).Echo()
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := auth.GenerateToken(userID, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, e *echo.Echo, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer(t, userID))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelopeOf[T any] struct {
	Success     bool            `json:"success"`
	Data        T               `json:"data"`
	UpdatedChat json.RawMessage `json:"updatedChat"`
	Message     string          `json:"message"`
	Error       string          `json:"error"`
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) envelopeOf[T] {
	t.Helper()
	var env envelopeOf[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func writeTestFile(root, key, content string) error {
	path := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
