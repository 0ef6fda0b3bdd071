package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atelierluma/videowall/internal/calibration"
	"github.com/atelierluma/videowall/internal/runtimepath"
)

// SpawnAll brings up one instance per resolved assignment. Instances spawn
// concurrently; a failed spawn degrades that instance and is logged. An
// error is returned only when not a single instance came up, since a
// partially populated wall still beats a dark one.
func (r *Registry) SpawnAll(ctx context.Context, assignments []calibration.Assignment, content map[string]string, socketDir string, opts SpawnOptions) error {
	sockets := make(map[int]string, len(assignments))
	for _, a := range assignments {
		sockets[a.ScreenIndex] = runtimepath.SocketPath(socketDir, a.ScreenIndex)
	}
	return r.spawnAllAt(ctx, assignments, content, sockets, opts)
}

func (r *Registry) spawnAllAt(ctx context.Context, assignments []calibration.Assignment, content map[string]string, sockets map[int]string, opts SpawnOptions) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, a := range assignments {
		a := a
		g.Go(func() error {
			if err := r.Spawn(ctx, a.ScreenIndex, a.Label, content[a.Label], sockets[a.ScreenIndex], opts); err != nil {
				// Degraded, not fatal. The group keeps going.
				r.logger.Warn("spawn failed", zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if r.LiveCount() == 0 {
		return fmt.Errorf("no player instance became reachable")
	}
	return nil
}
