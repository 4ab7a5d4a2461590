package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/famblob/pkg/config"
)

func restoreGlobals(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name    string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			level, err := ParseLevel(tc.name)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, level)
		})
	}
}

func TestInitLogger_JSON(t *testing.T) {
	restoreGlobals(t)
	t.Setenv(EnvLevel, "")

	var buf bytes.Buffer
	logger, err := InitLogger("famctl", config.Logging{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "famctl", entry["app"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
}

func TestInitLogger_EnvOverride(t *testing.T) {
	restoreGlobals(t)
	t.Setenv(EnvLevel, "debug")

	var buf bytes.Buffer
	_, err := InitLogger("famctl", config.Logging{Level: "error", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitLogger_Console(t *testing.T) {
	restoreGlobals(t)
	t.Setenv(EnvLevel, "")

	var buf bytes.Buffer
	logger, err := InitLogger("famctl", config.Logging{Level: "info"}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hello console")
	assert.Contains(t, buf.String(), "hello console")
	assert.Contains(t, buf.String(), "app=")
}

func TestInitLogger_Errors(t *testing.T) {
	restoreGlobals(t)
	t.Setenv(EnvLevel, "")

	_, err := InitLogger("famctl", config.Logging{Level: "nope"}, nil)
	assert.Error(t, err)

	_, err = InitLogger("famctl", config.Logging{Level: "info", Format: "xml"}, nil)
	assert.Error(t, err)
}
