package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromPath_MinimalConfig(t *testing.T) {
	path := writeConfig(t, `
content:
  CENTER: /media/center.webm
  LEFT: /media/left.webm
  RIGHT: /media/right.webm
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"CENTER", "LEFT", "RIGHT"}, cfg.Labels())
	assert.Equal(t, "mpv", cfg.Player)
	assert.Equal(t, "", cfg.Audio, "all instances muted unless audio is set")
	assert.Equal(t, time.Second, cfg.PollInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.IPCTimeout())
	assert.Equal(t, 1.0, cfg.LoopEpsilonSeconds)
}

func TestLoadFromPath_Overrides(t *testing.T) {
	path := writeConfig(t, `
content:
  CENTER: /media/center.webm
audio: CENTER
player: /opt/mpv/bin/mpv
player_args: ["--hwdec=auto"]
poll_interval_ms: 250
ipc_timeout_ms: 100
loop_epsilon_seconds: 0.5
log_level: debug
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/mpv/bin/mpv", cfg.Player)
	assert.Equal(t, []string{"--hwdec=auto"}, cfg.PlayerArgs)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 100*time.Millisecond, cfg.IPCTimeout())
	assert.Equal(t, 0.5, cfg.LoopEpsilonSeconds)
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidate_RequiresContent(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Path)
}

func TestValidate_AudioLabelMustExist(t *testing.T) {
	path := writeConfig(t, `
content:
  LEFT: /media/left.webm
audio: CENTER
`)

	_, err := LoadFromPath(path)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "audio", verr.Path)
}

func TestValidate_RejectsNonPositiveInterval(t *testing.T) {
	path := writeConfig(t, `
content:
  CENTER: /media/center.webm
poll_interval_ms: 0
`)

	_, err := LoadFromPath(path)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "poll_interval_ms", verr.Path)
}
