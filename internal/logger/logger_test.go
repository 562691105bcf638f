package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FormatFollowsEnvironment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantJSON    bool
	}{
		{name: "production uses json", environment: "production", wantJSON: true},
		{name: "development uses pretty", environment: "development"},
		{name: "staging uses pretty", environment: "staging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			l.Info("setup created", "setup_id", "setup-1")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"setup created"`)
				assert.Contains(t, buf.String(), `"setup_id":"setup-1"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.Contains(t, buf.String(), "setup_id=setup-1")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, nil)).With("component", "store").WithGroup("chain")

	l.Info("reordered", "items", 3, "note", "two words")

	out := buf.String()
	assert.Contains(t, out, "component=store")
	assert.Contains(t, out, "chain.items=3")
	assert.Contains(t, out, `chain.note="two words"`)
}

func TestContextRoundTrip(t *testing.T) {
	fallback := slog.New(slog.DiscardHandler)
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped := slog.New(slog.DiscardHandler).With("request_id", "r1")
	ctx := NewContext(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx, fallback))
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatJSON, Writer: &buf})

	l.WithError(errors.New("boom")).Error("store failed")

	assert.Contains(t, buf.String(), `"error":"boom"`)
}
