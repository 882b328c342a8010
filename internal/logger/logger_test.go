package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/fapquiz/internal/config"
)

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.log")
	log, err := New(&config.Config{Env: "production", Log: config.Log{Level: "debug", File: path}})
	require.NoError(t, err)

	log.Info("session finished")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"session finished"`)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&config.Config{Log: config.Log{Level: "loud"}})
	require.Error(t, err)
}
