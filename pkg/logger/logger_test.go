package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFormatSortsFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithConfig(Config{Level: DEBUG, Output: &buf}).WithField("component", "blob-writer")

	log.Info("blob stored", "status", 201, "blob", "img 1")

	line := buf.String()
	assert.Contains(t, line, "[INFO] blob stored |")
	assert.Contains(t, line, `blob="img 1" component=blob-writer status=201`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithConfig(Config{Level: WARN, Output: &buf})

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "shown")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithConfig(Config{Level: INFO, Output: &buf, Format: "json"}).WithFields("postId", "p1")

	log.Error("commit failed", "error", errors.New("status 400"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "commit failed", entry["msg"])
	assert.Equal(t, "p1", entry["postId"])
	assert.Equal(t, "status 400", entry["error"])
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithConfig(Config{Level: INFO, Output: &buf})
	_ = parent.WithField("index", 3)

	parent.Info("plain")
	assert.NotContains(t, buf.String(), "index")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, WARN, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestOpenOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mediaup.log")
	w, closeFn, err := OpenOutput(path)
	require.NoError(t, err)
	defer closeFn()

	log := NewWithConfig(Config{Level: INFO, Output: w})
	log.Info("written")
	assert.FileExists(t, path)
}
