package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.ini"))
	require.NoError(t, err)
	assert.Equal(t, ModeSQL, cfg.Mode)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
}

func TestLoadParsesShellSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shell.ini")
	content := "[shell]\ndefault_uri = root@127.0.0.1:3306\nmode = js\nconnect_timeout = 5s\nstrict_result_handling = true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "root@127.0.0.1:3306", cfg.DefaultURI)
	assert.Equal(t, ModeJS, cfg.Mode)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.StrictResultHandling)
}
