package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewRedactingHandler(handler))
}

// TestRedactingHandler tests credential masking in log output.
func TestRedactingHandler(t *testing.T) {
	t.Parallel()

	t.Run("masks sensitive keys", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			key   string
			value string
		}{
			{"authorization", "some-credential"},
			{"Authorization", "some-credential"},
			{"cookie", "session=abc123"},
			{"x-api-key", "key-value"},
			{"password", "hunter2"},
			{"token", "tok_value"},
		}
		for _, tt := range tests {
			var buf bytes.Buffer
			logger := newTestLogger(&buf)
			logger.Info("request", tt.key, tt.value)

			out := buf.String()
			if strings.Contains(out, tt.value) {
				t.Errorf("key %q: value leaked into output: %s", tt.key, out)
			}
			if !strings.Contains(out, MaskValue) {
				t.Errorf("key %q: expected mask in output: %s", tt.key, out)
			}
		}
	})

	t.Run("masks credential-shaped values under any key", func(t *testing.T) {
		t.Parallel()

		values := []string{
			"eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig",
			"Bearer abc123def",
			"Basic dXNlcjpwYXNz",
		}
		for _, v := range values {
			var buf bytes.Buffer
			logger := newTestLogger(&buf)
			logger.Info("request", "header", v)

			if !strings.Contains(buf.String(), MaskValue) {
				t.Errorf("value %q was not masked: %s", v, buf.String())
			}
		}
	})

	t.Run("leaves ordinary attributes intact", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := newTestLogger(&buf)
		logger.Info("fetched", "url", "https://example.com/docs", "status", 200)

		out := buf.String()
		if !strings.Contains(out, "https://example.com/docs") {
			t.Errorf("expected URL in output: %s", out)
		}
		if strings.Contains(out, MaskValue) {
			t.Errorf("unexpected mask in output: %s", out)
		}
	})

	t.Run("masks inside groups", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := newTestLogger(&buf)
		logger.Info("request", slog.Group("headers",
			slog.String("Accept", "text/html"),
			slog.String("Authorization", "Bearer abc"),
		))

		out := buf.String()
		if strings.Contains(out, "Bearer abc") {
			t.Errorf("group value leaked into output: %s", out)
		}
		if !strings.Contains(out, "text/html") {
			t.Errorf("expected benign group value in output: %s", out)
		}
	})

	t.Run("masks attrs added through With", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := newTestLogger(&buf).With("api_key", "secret-value")
		logger.Info("fetched")

		out := buf.String()
		if strings.Contains(out, "secret-value") {
			t.Errorf("With attribute leaked into output: %s", out)
		}
		if !strings.Contains(out, MaskValue) {
			t.Errorf("expected mask in output: %s", out)
		}
	})
}

// TestNewLogger tests verbosity-dependent log levels.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("quiet by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)
		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")

		out := buf.String()
		if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
			t.Errorf("unexpected low-level output: %s", out)
		}
		if !strings.Contains(out, "warn message") {
			t.Errorf("expected warning in output: %s", out)
		}
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)
		logger.Debug("debug message")

		if !strings.Contains(buf.String(), "debug message") {
			t.Errorf("expected debug output: %s", buf.String())
		}
	})
}
