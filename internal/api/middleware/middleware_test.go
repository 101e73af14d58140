package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundscape-lab/annotator/internal/logger"
)

func newTracedEcho(buf *bytes.Buffer) *echo.Echo {
	e := echo.New()
	log := logger.NewSlogLogger(buf, logger.LogLevelDebug)
	e.Use(NewTraceID(), NewRequestLogger(log))
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, logger.TraceIDFromContext(c.Request().Context()))
	})
	return e
}

func TestTraceID_GeneratedWhenMissing(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	e := newTracedEcho(buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.Body.String())
	assert.Contains(t, buf.String(), "trace_id="+id)
	assert.Contains(t, buf.String(), "uri=/ping")
}

func TestTraceID_ClientValueKept(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	e := newTracedEcho(buf)

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set(HeaderRequestID, "import-batch-7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "import-batch-7", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "import-batch-7", rec.Body.String())
}

func TestSecureHeaders(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewSecureHeaders(DefaultSecurityConfig()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
}
