package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := New(Options{Output: buf, Level: level, AddCaller: false})
	return l, buf
}

func decodeEntry(t *testing.T, line string) LogEntry {
	t.Helper()
	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestLogger_WritesJSON(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)

	l.Info("learner registered", String("learner_id", "u1"), Int("xp", 0))

	entry := decodeEntry(t, buf.String())
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "learner registered", entry.Message)
	assert.Equal(t, "u1", entry.Fields["learner_id"])
	assert.Equal(t, float64(0), entry.Fields["xp"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newTestLogger(LevelWarn)

	l.Debug("ignored")
	l.Info("ignored too")
	l.Warn("kept")
	l.Error("kept as well")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "WARN", decodeEntry(t, lines[0]).Level)
	assert.Equal(t, "ERROR", decodeEntry(t, lines[1]).Level)
}

func TestLogger_With(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)

	child := l.With(String("component", "seed"))
	child.Info("one", Int("n", 1))

	entry := decodeEntry(t, buf.String())
	assert.Equal(t, "seed", entry.Fields["component"])
	assert.Equal(t, float64(1), entry.Fields["n"])

	// Parent is unaffected.
	buf.Reset()
	l.Info("two")
	entry = decodeEntry(t, buf.String())
	assert.NotContains(t, entry.Fields, "component")
}

func TestLogger_ErrField(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)

	l.Error("operation failed", Err(errors.New("boom")))
	entry := decodeEntry(t, buf.String())
	assert.Equal(t, "boom", entry.Fields["error"])

	buf.Reset()
	l.Info("ok", Err(nil))
	entry = decodeEntry(t, buf.String())
	assert.Nil(t, entry.Fields["error"], "nil error carries no message")
}

func TestLogger_Formatted(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)

	l.Infof("learner %s reached level %d", "u1", 5)
	entry := decodeEntry(t, buf.String())
	assert.Equal(t, "learner u1 reached level 5", entry.Message)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("INFO"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"), "unknown levels default to info")
}

func TestContextRoundTrip(t *testing.T) {
	l, _ := newTestLogger(LevelInfo)

	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	// Missing logger falls back to a usable default.
	assert.NotNil(t, FromContext(context.Background()))
}
