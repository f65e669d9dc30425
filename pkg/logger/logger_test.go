package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, getLogLevel(in), in)
	}
}

func TestBusinessLogHelpers(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug")
	ctx := context.Background()

	l.LogRegistrationRejected(ctx, "a@example.com", "Email already registered")
	l.LogTokenRejected(ctx, "expired")
	l.LogMailDispatchFailed(ctx, "a@example.com", errors.New("smtp down"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"Registration Rejected"`)
	assert.Contains(t, out, `"cause":"expired"`)
	assert.Contains(t, out, `"error":"smtp down"`)
}

func TestTokenDiagnosticsHiddenAboveDebug(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")

	l.LogTokenRejected(context.Background(), "signature")

	assert.Empty(t, buf.String())
}

func TestErrorWithContext(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")

	l.ErrorWithContext(context.Background(), "Error processing message", errors.New("bad payload"), map[string]interface{}{"worker": 2})

	out := buf.String()
	assert.Contains(t, out, `"error":"bad payload"`)
	assert.Contains(t, out, `"worker":2`)
}
