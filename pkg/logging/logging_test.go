package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantLevel zerolog.Level
	}{
		{"default warn level", 0, zerolog.WarnLevel},
		{"info level", 1, zerolog.InfoLevel},
		{"debug level", 2, zerolog.DebugLevel},
		{"trace level", 3, zerolog.TraceLevel},
		{"high verbosity defaults to trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			t.Setenv("XDG_STATE_HOME", tempDir)

			SetupLoggerWithOutput(tt.verbosity, &bytes.Buffer{})

			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())

			logPath := filepath.Join(tempDir, "devsync", "devsync.log")
			_, err := os.Stat(logPath)
			assert.NoError(t, err, "log file should be created at %s", logPath)
		})
	}
}

func TestLogFilePath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	assert.Equal(t, filepath.Join("/custom/state", "devsync", "devsync.log"), LogFilePath())
}

func TestGetLogger(t *testing.T) {
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	logger := GetLogger("installer")
	logger.Info().Msg("test message")

	assert.Contains(t, buf.String(), `"component":"installer"`)
	assert.Contains(t, buf.String(), "test message")
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	done := LogOperationStart(logger, "snapshot")
	done()

	assert.Contains(t, buf.String(), "Operation started")
	assert.Contains(t, buf.String(), "Operation completed")
	assert.Contains(t, buf.String(), "duration")
}

func TestRedact(t *testing.T) {
	t.Cleanup(ResetSecrets)

	var buf bytes.Buffer
	logger := zerolog.New(Redact(&buf))

	RegisterSecret("ghp_abcdef123456")
	RegisterSecret("on")
	logger.Info().Str("env", "GITHUB_TOKEN=ghp_abcdef123456").Msg("rendered entry, logging on")

	assert.NotContains(t, buf.String(), "ghp_abcdef123456")
	assert.Contains(t, buf.String(), "GITHUB_TOKEN="+Mask)
	assert.Contains(t, buf.String(), "logging on", "short values are not masked")

	ResetSecrets()
	buf.Reset()
	logger.Info().Msg("ghp_abcdef123456")
	assert.Contains(t, buf.String(), "ghp_abcdef123456")
}
