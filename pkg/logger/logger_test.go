package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"productapi/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSONAtWarn(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Output: &buf})

	log.Info().Msg("hidden")
	log.Warn().Str("operation", "create").Msg("visible")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "create", entry["operation"])
	assert.Equal(t, "visible", entry["message"])
}

func TestNew_ExplicitLevelWins(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "debug", Output: &buf})

	log.Debug().Msg("debug line")
	assert.Contains(t, buf.String(), "debug line")
}

func TestComponent_TagsEntries(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Output: &buf}).Component("service")

	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"service"`)
}
