package util_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/erilali/roomrelay/internal/logger"
	"github.com/erilali/roomrelay/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLoggerConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := util.LoadLoggerConfig(filepath.Join(dir, "absent.json"))
		require.NoError(t, err)
		assert.Equal(t, logger.DefaultLogConfig(), cfg)
	})

	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := util.LoadLoggerConfig("")
		require.NoError(t, err)
		assert.Equal(t, logger.DefaultLogConfig(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(dir, "logger_config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"level":"debug","log_to_json":true,"max_size":50}`), 0o600))

		cfg, err := util.LoadLoggerConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Level)
		assert.True(t, cfg.LogToJSON)
		assert.Equal(t, 50, cfg.MaxSize)
		assert.Equal(t, 5, cfg.MaxBackups)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"level":`), 0o600))

		_, err := util.LoadLoggerConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode logger config")
	})
}
