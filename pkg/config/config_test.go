package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(NewViper(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:5000", cfg.ServerOrigin)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 1, cfg.ProfileUserID)
	assert.Equal(t, "male", cfg.DefaultGender)
	assert.Equal(t, "127.0.0.1:8080", cfg.ServeAddr)
	assert.True(t, cfg.CameraPermission)
	assert.True(t, cfg.GalleryPermission)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("FOOTSIZE_SERVER_ORIGIN", "http://10.0.0.2:5000/")
	t.Setenv("FOOTSIZE_PROFILE_USER_ID", "7")
	t.Setenv("FOOTSIZE_HOME_GENDER", "Female")

	cfg, err := LoadConfig(NewViper(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.2:5000", cfg.ServerOrigin)
	assert.Equal(t, 7, cfg.ProfileUserID)
	assert.Equal(t, "female", cfg.DefaultGender)
}

func TestLoadConfigFlagsWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "footsize.yaml")
	content := "server:\n  origin: http://file-host:5000\nhttp:\n  timeout: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--server.origin=http://flag-host:5000"}))

	cfg, err := LoadConfig(NewViper(), path, fs)
	require.NoError(t, err)

	assert.Equal(t, "http://flag-host:5000", cfg.ServerOrigin)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		ServerOrigin:   "not a url",
		RequestTimeout: -time.Second,
		DefaultGender:  "other",
		LogFormat:      "xml",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.origin")
	assert.Contains(t, err.Error(), "http.timeout")
	assert.Contains(t, err.Error(), "home.gender")
	assert.Contains(t, err.Error(), "log.format")
}
