package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

// recordingLogger captures entries for assertions.
type recordingLogger struct {
	entries []logEntry
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.record("DEBUG", msg, args) }
func (r *recordingLogger) Info(msg string, args ...any)  { r.record("INFO", msg, args) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.record("WARN", msg, args) }
func (r *recordingLogger) Error(msg string, args ...any) { r.record("ERROR", msg, args) }

func (r *recordingLogger) record(level, msg string, args []any) {
	r.entries = append(r.entries, logEntry{level: level, msg: msg, args: args})
}

func TestLogToolCall(t *testing.T) {
	t.Run("success logs completion at info level", func(t *testing.T) {
		l := &recordingLogger{}
		LogToolCall(l, "search_docs", 25*time.Millisecond, nil)

		require.Len(t, l.entries, 1)
		assert.Equal(t, "INFO", l.entries[0].level)
		assert.Equal(t, "Tool execution completed", l.entries[0].msg)
		assert.Equal(t, []any{"tool", "search_docs", "duration_ms", int64(25), "success", true}, l.entries[0].args)
	})

	t.Run("failure logs the error at error level", func(t *testing.T) {
		l := &recordingLogger{}
		LogToolCall(l, "search_docs", time.Millisecond, errors.New("store down"))

		require.Len(t, l.entries, 1)
		assert.Equal(t, "ERROR", l.entries[0].level)
		assert.Equal(t, "Tool execution failed", l.entries[0].msg)
		assert.Contains(t, l.entries[0].args, "store down")
	})
}

func TestLogModelCall(t *testing.T) {
	t.Run("success logs completion at debug level", func(t *testing.T) {
		l := &recordingLogger{}
		LogModelCall(l, "gpt-4o", 80*time.Millisecond, nil)

		require.Len(t, l.entries, 1)
		assert.Equal(t, "DEBUG", l.entries[0].level)
		assert.Equal(t, "Model call completed", l.entries[0].msg)
		assert.Equal(t, []any{"model", "gpt-4o", "duration_ms", int64(80), "success", true}, l.entries[0].args)
	})

	t.Run("failure logs the error at error level", func(t *testing.T) {
		l := &recordingLogger{}
		LogModelCall(l, "gpt-4o", time.Millisecond, errors.New("rate limited"))

		require.Len(t, l.entries, 1)
		assert.Equal(t, "ERROR", l.entries[0].level)
		assert.Equal(t, "Model call failed", l.entries[0].msg)
		assert.Contains(t, l.entries[0].args, "rate limited")
	})
}
