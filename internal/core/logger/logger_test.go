package logger

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuild_JSONLevelAndService(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "warn", JSON: true, Service: "users-api", Stdout: zapcore.AddSync(&buf)})

	l.Info("dropped")
	l.Warn("kept", zap.String("id", "u1"))
	cleanup()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &m))
	assert.Equal(t, "kept", m["msg"])
	assert.Equal(t, "warn", m["level"])
	assert.Equal(t, "users-api", m["service"])
	assert.Equal(t, "u1", m["id"])
	assert.Contains(t, m, "ts")
}

func TestBuild_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "loud", JSON: true, Stdout: zapcore.AddSync(&buf)})
	l.Debug("hidden")
	l.Info("shown")
	cleanup()

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestBuild_RotateFileHasNoColor(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	var buf bytes.Buffer
	l, cleanup := Build(Options{
		Level:  "info",
		Stdout: zapcore.AddSync(&buf),
		Rotate: FileRotate{Enable: true, Filename: file, MaxSizeMB: 1},
	})
	l.Info("to file")
	cleanup()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "to file")
	assert.Contains(t, string(b), "INFO")
	assert.NotContains(t, string(b), "\x1b[")
}

func TestToStdLogger(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "info", JSON: true, Stdout: zapcore.AddSync(&buf)})
	defer cleanup()

	std, err := ToStdLogger(l, zapcore.WarnLevel)
	require.NoError(t, err)
	std.Printf("slow sql %dms", 300)
	_ = l.Sync()

	assert.Contains(t, buf.String(), "slow sql 300ms")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestRedirectStdLog(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "info", JSON: true, Stdout: zapcore.AddSync(&buf)})
	defer cleanup()

	undo := RedirectStdLog(l, zapcore.InfoLevel)
	log.Print("from std log")
	undo()
	_ = l.Sync()

	assert.Contains(t, buf.String(), "from std log")
}
