// Package coordinator keeps every playback instance frame-aligned: it runs
// the phased pause/seek/resume barrier and the loop watcher that triggers it
// on every content wraparound.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dogmatiq/linger"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atelierluma/videowall/internal/registry"
)

// Options carries the coordinator's timing knobs.
type Options struct {
	// CommandTimeout bounds every per-instance command within a phase.
	CommandTimeout time.Duration
	// PollInterval is the loop-watcher sample interval.
	PollInterval time.Duration
	// Epsilon is the backward jump, in seconds, below which a position
	// regression is treated as seek jitter rather than a loop event.
	Epsilon float64
}

// Coordinator drives the instances owned by a registry. It borrows their
// channels for commands but never owns them.
type Coordinator struct {
	reg    *registry.Registry
	logger *zap.Logger
	opts   Options

	// epoch totally orders resync cycles; a phase operation that observes
	// a newer epoch discards its result instead of corrupting the newer
	// cycle's state.
	epoch atomic.Int64

	// syncing serializes resync cycles. A loop event observed while a
	// resync is in flight is coalesced: the running cycle already
	// re-aligns from position zero.
	syncing atomic.Bool

	phase atomic.Int32
}

// New creates a coordinator over the given registry.
func New(reg *registry.Registry, logger *zap.Logger, opts Options) *Coordinator {
	return &Coordinator{
		reg:    reg,
		logger: logger,
		opts:   opts,
	}
}

// Epoch returns the current sync-epoch counter.
func (c *Coordinator) Epoch() int64 {
	return c.epoch.Load()
}

// CurrentPhase returns the phase of the in-flight resync cycle, or PhaseIdle.
func (c *Coordinator) CurrentPhase() Phase {
	return Phase(c.phase.Load())
}

func (c *Coordinator) setPhase(p Phase) {
	c.phase.Store(int32(p))
}

// SyncAll executes one full resynchronization cycle: pause everything, seek
// everything to zero, resume everything. Each phase is a barrier: it
// completes (or times out per instance) for all instances before the next
// phase begins, so no engine drifts ahead while another is catching up.
//
// An instance that fails a phase is marked degraded and excluded from the
// rest of the cycle; the remaining instances still complete the barrier.
// SyncAll fails only when no responsive instance remains. A call arriving
// while a cycle is already running returns immediately.
func (c *Coordinator) SyncAll(ctx context.Context) error {
	if !c.syncing.CompareAndSwap(false, true) {
		c.logger.Debug("resync already in flight, coalescing trigger")
		return nil
	}
	defer func() {
		c.setPhase(PhaseIdle)
		c.syncing.Store(false)
	}()

	epoch := c.epoch.Add(1)
	log := c.logger.With(zap.Int64("epoch", epoch))
	log.Info("resynchronizing", zap.Int("instances", c.reg.LiveCount()))

	steps := []struct {
		phase Phase
		op    func(context.Context, *registry.Instance) error
	}{
		{PhasePausing, func(ctx context.Context, inst *registry.Instance) error {
			return inst.Client.SetPause(ctx, true)
		}},
		{PhaseSeeking, func(ctx context.Context, inst *registry.Instance) error {
			return inst.Client.SeekAbsolute(ctx, 0)
		}},
		{PhaseResuming, func(ctx context.Context, inst *registry.Instance) error {
			return inst.Client.SetPause(ctx, false)
		}},
	}

	for _, step := range steps {
		if err := c.runPhase(ctx, log, epoch, step.phase, step.op); err != nil {
			return err
		}
	}

	log.Info("resync complete")
	return nil
}

// runPhase broadcasts one command to every live instance concurrently and
// joins all acknowledgments before returning. The broadcast works against
// an immutable snapshot taken at phase start; registry mutation is excluded
// for the duration of each individual command, never mid-snapshot.
func (c *Coordinator) runPhase(
	ctx context.Context,
	log *zap.Logger,
	epoch int64,
	phase Phase,
	op func(context.Context, *registry.Instance) error,
) error {
	c.setPhase(phase)

	instances := c.reg.Live()
	if len(instances) == 0 {
		return fmt.Errorf("no live instances remain entering phase %s", phase)
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)

	for _, inst := range instances {
		inst := inst
		g.Go(func() error {
			opCtx, cancel := context.WithTimeout(ctx, c.opts.CommandTimeout)
			defer cancel()

			err := op(opCtx, inst)
			if err == nil {
				return nil
			}
			if ctx.Err() != nil {
				// Shutdown, not an instance fault.
				return nil
			}
			if c.epoch.Load() != epoch {
				// Straggler from a superseded cycle; discard.
				return nil
			}

			c.reg.MarkDegraded(inst.ScreenIndex, fmt.Errorf("phase %s: %w", phase, err))
			mu.Lock()
			errs = multierr.Append(errs, fmt.Errorf("screen %d (%s): %w", inst.ScreenIndex, inst.Label, err))
			mu.Unlock()
			return nil
		})
	}

	// The barrier: every acknowledgment or per-instance timeout lands here
	// before the next phase may begin.
	g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if errs != nil {
		log.Warn("phase completed with failures",
			zap.Stringer("phase", phase),
			zap.Error(errs))
	}
	if c.reg.LiveCount() == 0 {
		return fmt.Errorf("all instances failed during phase %s: %w", phase, errs)
	}
	return nil
}

// Run performs the startup synchronization and then watches for loop
// wraparound until ctx is canceled: every poll interval it samples the
// reference instance's playback position, and a backward jump larger than
// epsilon triggers a full resync.
//
// The reference is the lowest-indexed live instance. If its channel fails
// outright it is degraded and the next healthy instance is promoted, so
// loop detection survives the loss of the original reference. A transient
// query failure is logged and the previous position retained; one missed
// sample must not desynchronize the fleet.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.SyncAll(ctx); err != nil {
		return fmt.Errorf("startup synchronization failed: %w", err)
	}

	var previous float64
	for {
		if err := linger.Sleep(ctx, c.opts.PollInterval); err != nil {
			return err
		}

		live := c.reg.Live()
		if len(live) == 0 {
			return errors.New("no live instance left to watch")
		}
		ref := live[0]

		position, err := ref.Client.Position(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if isConnectionError(err) {
				// Promote the next healthy instance to reference.
				c.reg.MarkDegraded(ref.ScreenIndex, fmt.Errorf("reference position query: %w", err))
				continue
			}
			c.logger.Warn("reference position query failed",
				zap.Int("screen", ref.ScreenIndex),
				zap.Error(err))
			continue
		}

		if position < previous-c.opts.Epsilon {
			c.logger.Info("loop detected",
				zap.Int("screen", ref.ScreenIndex),
				zap.Float64("position", position),
				zap.Float64("previous", previous))
			if err := c.SyncAll(ctx); err != nil {
				return err
			}
			previous = 0
			continue
		}
		previous = position
	}
}
