package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

// TestBuildLogger_FiltersByLevel checks that messages below the configured
// level are dropped and that canonical fields are rendered.
func TestBuildLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := BuildLogger("warn", &buf)

	logger.Info("hidden")
	logger.Warn("copy failed", App("vanilla-app"), Error(errors.New("missing")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "copy failed")
	assert.Contains(t, out, "app=vanilla-app")
	assert.Contains(t, out, "error=missing")
}

func TestErrorAttr_Nil(t *testing.T) {
	attr := Error(nil)
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "", attr.Value.String())
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	l := BuildLogger("info", &bytes.Buffer{})
	assert.Same(t, l, OrDiscard(l))
}

// TestAttributeHelpers pins every helper to its canonical key.
func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		attr slog.Attr
		key  string
	}{
		{App("vue-app"), KeyApp},
		{Path("/work/dist"), KeyPath},
		{Source("/work/vue-app/dist"), KeySource},
		{Destination("/work/dist/vue-app"), KeyDestination},
		{Stage("template"), KeyStage},
		{Files(3), KeyFiles},
		{Folders(1), KeyFolders},
		{Failed(1), KeyFailed},
		{DurationMS(1.5), KeyDurationMS},
		{Error(errors.New("boom")), KeyError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.key, tt.attr.Key)
	}
	assert.Equal(t, int64(3), Files(3).Value.Int64())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
