package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Config is the videowall runtime configuration.
type Config struct {
	// Content maps position labels (e.g. "CENTER") to video file paths.
	// The label set drives calibration: one display per label.
	Content map[string]string `yaml:"content"`

	// Audio names the position label whose player keeps audio; every other
	// instance runs muted. Empty mutes all instances.
	Audio string `yaml:"audio"`

	Player     string   `yaml:"player"`      // player binary, default "mpv"
	PlayerArgs []string `yaml:"player_args"` // extra flags appended to every instance

	// SocketDir overrides the runtime socket directory. Empty means the
	// standard runtime dir.
	SocketDir string `yaml:"socket_dir"`

	PollIntervalMS     int     `yaml:"poll_interval_ms"`     // loop-watcher sample interval
	IPCTimeoutMS       int     `yaml:"ipc_timeout_ms"`       // per-command channel deadline
	LoopEpsilonSeconds float64 `yaml:"loop_epsilon_seconds"` // backward jump below this is jitter, not a loop

	SpawnRetries int `yaml:"spawn_retries"` // socket reachability probes per instance
	SpawnGraceMS int `yaml:"spawn_grace_ms"` // wait between probes

	LogLevel string `yaml:"log_level"`
}

// ValidationError reports an invalid config value with its YAML path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DefaultConfig returns the built-in defaults. Content is empty; a usable
// config has to name at least one position label.
func DefaultConfig() *Config {
	return &Config{
		Content:            map[string]string{},
		Player:             "mpv",
		PollIntervalMS:     1000,
		IPCTimeoutMS:       500,
		LoopEpsilonSeconds: 1.0,
		SpawnRetries:       10,
		SpawnGraceMS:       200,
		LogLevel:           "info",
	}
}

// PollInterval returns the loop-watcher sample interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// IPCTimeout returns the per-command channel deadline.
func (c *Config) IPCTimeout() time.Duration {
	return time.Duration(c.IPCTimeoutMS) * time.Millisecond
}

// SpawnGrace returns the wait between socket reachability probes.
func (c *Config) SpawnGrace() time.Duration {
	return time.Duration(c.SpawnGraceMS) * time.Millisecond
}

// Labels returns the configured position labels in sorted order.
func (c *Config) Labels() []string {
	labels := make([]string, 0, len(c.Content))
	for label := range c.Content {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (c *Config) Validate() error {
	if len(c.Content) == 0 {
		return &ValidationError{Path: "content", Err: fmt.Errorf("at least one position label is required")}
	}
	for label, path := range c.Content {
		if strings.TrimSpace(label) == "" {
			return &ValidationError{Path: "content", Err: fmt.Errorf("content contains an empty label")}
		}
		if strings.TrimSpace(path) == "" {
			return &ValidationError{Path: "content." + label, Err: fmt.Errorf("video path must not be empty")}
		}
	}
	if c.Audio != "" {
		if _, ok := c.Content[c.Audio]; !ok {
			return &ValidationError{Path: "audio", Err: fmt.Errorf("audio label %q is not in content", c.Audio)}
		}
	}
	if strings.TrimSpace(c.Player) == "" {
		return &ValidationError{Path: "player", Err: fmt.Errorf("player is required")}
	}
	if c.PollIntervalMS <= 0 {
		return &ValidationError{Path: "poll_interval_ms", Err: fmt.Errorf("poll_interval_ms must be > 0")}
	}
	if c.IPCTimeoutMS <= 0 {
		return &ValidationError{Path: "ipc_timeout_ms", Err: fmt.Errorf("ipc_timeout_ms must be > 0")}
	}
	if c.LoopEpsilonSeconds <= 0 {
		return &ValidationError{Path: "loop_epsilon_seconds", Err: fmt.Errorf("loop_epsilon_seconds must be > 0")}
	}
	if c.SpawnRetries < 1 {
		return &ValidationError{Path: "spawn_retries", Err: fmt.Errorf("spawn_retries must be >= 1")}
	}
	if c.SpawnGraceMS < 0 {
		return &ValidationError{Path: "spawn_grace_ms", Err: fmt.Errorf("spawn_grace_ms must be >= 0")}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	return nil
}
