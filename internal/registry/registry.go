// Package registry owns the playback-engine instances: one player process
// plus its IPC channel per resolved screen index.
package registry

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/dogmatiq/linger"
	"go.uber.org/zap"

	"github.com/atelierluma/videowall/internal/mpv"
)

// SpawnError reports that one instance could not be brought up. It degrades
// that instance only; the rest of the wall keeps running.
type SpawnError struct {
	ScreenIndex int
	Label       string
	Err         error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn player for %s (screen %d): %v", e.Label, e.ScreenIndex, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Instance is one playback engine bound to one screen.
type Instance struct {
	ScreenIndex int
	Label       string
	Content     string
	SocketPath  string
	Client      *mpv.Client

	cmd      *exec.Cmd
	degraded bool // guarded by the owning registry's mutex
}

// Registry maps screen indices to instances and owns their lifecycle.
// Mutation (spawn, degrade, shutdown) is serialized by a single mutex;
// callers broadcast against immutable snapshots from Live.
type Registry struct {
	logger *zap.Logger

	mu        sync.Mutex
	instances map[int]*Instance
	shutdown  bool
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		logger:    logger,
		instances: make(map[int]*Instance),
	}
}

// Add registers an already-connected instance. SpawnOptions.Spawn uses it
// internally; tests use it to adopt instances wired to fake endpoints.
func (r *Registry) Add(inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[inst.ScreenIndex] = inst
}

// Live returns the non-degraded instances ordered by screen index. The
// returned slice is a snapshot: later registry mutation does not affect it.
func (r *Registry) Live() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := make([]*Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		if !inst.degraded {
			live = append(live, inst)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].ScreenIndex < live[j].ScreenIndex
	})
	return live
}

// MarkDegraded excludes an instance from further sync phases, silences it
// with a best-effort mute and closes its channel. The process is left
// playing muted until shutdown; killing it here would blank the screen for
// a possibly transient fault, but letting it keep audio would leave stale
// sound fighting the synchronized wall.
func (r *Registry) MarkDegraded(screenIndex int, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[screenIndex]
	if !ok || inst.degraded {
		return
	}
	inst.degraded = true
	if inst.Client != nil {
		if err := inst.Client.Mute(); err != nil {
			r.logger.Debug("mute on degrade failed",
				zap.Int("screen", screenIndex),
				zap.Error(err))
		}
		inst.Client.Close()
	}
	r.logger.Warn("instance degraded",
		zap.Int("screen", screenIndex),
		zap.String("label", inst.Label),
		zap.Error(cause))
}

// LiveCount returns the number of non-degraded instances.
func (r *Registry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, inst := range r.instances {
		if !inst.degraded {
			n++
		}
	}
	return n
}

// ShutdownAll terminates every owned process and releases every channel.
// Idempotent; every exit path of the supervisor defers it so no instance or
// channel outlives the coordinator.
func (r *Registry) ShutdownAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shutdown {
		return
	}
	r.shutdown = true

	for _, inst := range r.instances {
		if inst.Client != nil {
			if err := inst.Client.Quit(); err != nil {
				r.logger.Debug("quit command failed",
					zap.Int("screen", inst.ScreenIndex),
					zap.Error(err))
			}
			inst.Client.Close()
		}
		if inst.cmd != nil && inst.cmd.Process != nil {
			// The quit command is the polite path; make sure regardless.
			if err := inst.cmd.Process.Kill(); err != nil {
				r.logger.Debug("kill failed",
					zap.Int("screen", inst.ScreenIndex),
					zap.Error(err))
			}
			go inst.cmd.Wait()
		}
		r.logger.Info("instance stopped",
			zap.Int("screen", inst.ScreenIndex),
			zap.String("label", inst.Label))
	}
}

// SpawnOptions carries everything Spawn needs to bring up one instance.
type SpawnOptions struct {
	Player     string
	PlayerArgs []string
	AudioLabel string
	IPCTimeout time.Duration
	Retries    int
	Grace      time.Duration
}

// Spawn launches one player bound to a screen index and content path, then
// waits for its IPC endpoint with bounded retries (the process needs time to
// create the socket). On failure the instance is registered degraded rather
// than failing the whole wall.
func (r *Registry) Spawn(ctx context.Context, screenIndex int, label, content, socketPath string, opts SpawnOptions) error {
	args := []string{
		"--loop",
		"--fullscreen",
		fmt.Sprintf("--screen=%d", screenIndex),
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
		"--force-window",
		"--vo=gpu",
	}
	if label != opts.AudioLabel || opts.AudioLabel == "" {
		args = append(args, "--no-audio")
	}
	args = append(args, opts.PlayerArgs...)
	args = append(args, content)

	inst := &Instance{
		ScreenIndex: screenIndex,
		Label:       label,
		Content:     content,
		SocketPath:  socketPath,
	}

	cmd := exec.Command(opts.Player, args...)
	if err := cmd.Start(); err != nil {
		inst.degraded = true
		r.Add(inst)
		return &SpawnError{ScreenIndex: screenIndex, Label: label, Err: err}
	}
	inst.cmd = cmd
	go cmd.Wait()

	r.logger.Info("player started",
		zap.Int("screen", screenIndex),
		zap.String("label", label),
		zap.String("content", content),
		zap.Int("pid", cmd.Process.Pid))

	if err := r.awaitSocket(ctx, socketPath, opts); err != nil {
		cmd.Process.Kill()
		inst.cmd = nil
		inst.degraded = true
		r.Add(inst)
		return &SpawnError{ScreenIndex: screenIndex, Label: label, Err: err}
	}

	client, err := mpv.Dial(socketPath, opts.IPCTimeout)
	if err != nil {
		cmd.Process.Kill()
		inst.cmd = nil
		inst.degraded = true
		r.Add(inst)
		return &SpawnError{ScreenIndex: screenIndex, Label: label, Err: err}
	}

	inst.Client = client
	r.Add(inst)
	return nil
}

func (r *Registry) awaitSocket(ctx context.Context, socketPath string, opts SpawnOptions) error {
	for attempt := 0; attempt < opts.Retries; attempt++ {
		if mpv.Reachable(socketPath, opts.Grace) {
			return nil
		}
		if err := linger.Sleep(ctx, opts.Grace); err != nil {
			return err
		}
	}
	return fmt.Errorf("socket %s not reachable after %d attempts", socketPath, opts.Retries)
}
