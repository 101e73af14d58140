package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestModuleLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo)

	log.Debug("hidden")
	log.Info("shown", String("dataset", "ds1"), Int("rows", 3))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "dataset=ds1")
	assert.Contains(t, out, "rows=3")
	assert.NotContains(t, out, "time=", "console output omits timestamps")
}

func TestModuleLogger_ModuleAndWith(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	base := NewSlogLogger(buf, LogLevelDebug)

	child := base.Module("annotation").Module("import").With(Uint("phase_id", 7))
	child.Info("row skipped", String("reason", "no_matching_file"))

	out := buf.String()
	assert.Contains(t, out, "module=annotation.import")
	assert.Contains(t, out, "phase_id=7")
	assert.Contains(t, out, "reason=no_matching_file")
}

func TestModuleLogger_WithContextTraceID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo)

	ctx := WithTraceID(context.Background(), "req-42")
	log.WithContext(ctx).Info("handled")
	log.WithContext(context.Background()).Info("untraced")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "trace_id=req-42")
	assert.NotContains(t, lines[1], "trace_id")
	assert.Equal(t, "req-42", TraceIDFromContext(ctx))
}

func TestCentralLogger_ModuleLevels(t *testing.T) {
	t.Parallel()

	cl, err := NewCentralLogger(&LoggingConfig{
		DefaultLevel: "warn",
		Console:      &ConsoleOutput{Enabled: false},
		ModuleLevels: map[string]string{"datastore": "trace"},
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, cl.Close()) }()

	ds, ok := cl.Module("datastore").(*moduleLogger)
	require.True(t, ok)
	assert.Equal(t, traceLevelValue, ds.level)

	nested := cl.moduleLevelLocked("datastore.sqlite")
	assert.Equal(t, traceLevelValue, nested)

	other, ok := cl.Module("api").(*moduleLogger)
	require.True(t, ok)
	assert.Equal(t, parseLogLevel("warn"), other.level)
}

func TestCentralLogger_FileOutputIsJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "annotator.log")
	cl, err := NewCentralLogger(&LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput:   &FileOutput{Enabled: true, Path: path, Level: "debug", MaxSize: 1},
	})
	require.NoError(t, err)

	cl.Module("annotation").Info("result created", Uint("result_id", 12), Float64("start_time", 1.23456))
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "result created", entry["msg"])
	assert.Equal(t, "annotation", entry["module"])
	assert.InDelta(t, 1.235, entry["start_time"], 1e-9)
	assert.InDelta(t, 12, entry["result_id"], 0)
}

func TestCentralLogger_InvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone")

	_, err = NewCentralLogger(nil)
	require.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"trace", "TRACE"},
		{"DEBUG", "DEBUG"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			lvl := parseLogLevel(tt.in)
			assert.Equal(t, tt.want, levelName(slog.AnyValue(lvl)))
		})
	}
}

func TestErrorField(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "boom", Error(errors.New("boom")).Value)
	assert.Nil(t, Error(nil).Value)
	assert.Equal(t, "error", Error(nil).Key)
}

func TestGormLoggerAdapter_Trace(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	adapter := NewGormLoggerAdapter(NewSlogLogger(buf, LogLevelTrace), 50*time.Millisecond)

	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	adapter.Trace(context.Background(), time.Now(), sqlFn, nil)
	assert.Contains(t, buf.String(), "sql query")

	buf.Reset()
	adapter.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	adapter.Trace(context.Background(), time.Now(), sqlFn, errors.New("locked"))
	assert.Contains(t, buf.String(), "query error")

	buf.Reset()
	adapter.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "query error")
}
