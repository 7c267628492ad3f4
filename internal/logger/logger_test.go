package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true, slog.LevelInfo)

	log.Info("token refreshed", "user_id", "u-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "token refreshed", entry["msg"])
	assert.Equal(t, "u-1", entry["user_id"])
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false, slog.LevelWarn)

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown", "limit", 10)
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "limit")
}

func TestPrettyHandler_GroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil)).WithGroup("query").With("name", "top_courses")

	log.Info("executed", "rows", 3)

	out := buf.String()
	assert.Contains(t, out, "query.name")
	assert.Contains(t, out, "query.rows")
}
