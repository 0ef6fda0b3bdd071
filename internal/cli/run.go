package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atelierluma/videowall/internal/calibration"
	"github.com/atelierluma/videowall/internal/coordinator"
	"github.com/atelierluma/videowall/internal/display"
	"github.com/atelierluma/videowall/internal/registry"
	"github.com/atelierluma/videowall/internal/runtimepath"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Resolve calibration, start players and keep them synchronized",
		Long: `Resolve the calibrated display mapping against the connected displays,
start one player per display and run the synchronization loop until
interrupted. Refuses to start if the display set does not match the
calibration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWall(rootOpts)
		},
	}
}

func runWall(rootOpts *RootOptions) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}

	logger, err := rootOpts.newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	store, err := rootOpts.calibrationStore()
	if err != nil {
		return err
	}
	mapping, err := store.Load()
	if err != nil {
		return err
	}

	conn, err := display.NewConnection()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer conn.Close()

	attrs, err := conn.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to enumerate displays: %w", err)
	}

	assignments, err := calibration.Resolve(mapping, attrs)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if _, ok := cfg.Content[a.Label]; !ok {
			return fmt.Errorf("calibration label %q has no content entry in config", a.Label)
		}
		logger.Info("display resolved",
			zap.Int("screen", a.ScreenIndex),
			zap.String("label", a.Label),
			zap.String("display", a.Attributes.String()))
	}

	socketDir := cfg.SocketDir
	if socketDir == "" {
		socketDir, err = runtimepath.SocketDir()
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := registry.New(logger)
	defer reg.ShutdownAll()

	if err := reg.SpawnAll(ctx, assignments, cfg.Content, socketDir, registry.SpawnOptions{
		Player:     cfg.Player,
		PlayerArgs: cfg.PlayerArgs,
		AudioLabel: cfg.Audio,
		IPCTimeout: cfg.IPCTimeout(),
		Retries:    cfg.SpawnRetries,
		Grace:      cfg.SpawnGrace(),
	}); err != nil {
		return err
	}

	coord := coordinator.New(reg, logger, coordinator.Options{
		CommandTimeout: cfg.IPCTimeout(),
		PollInterval:   cfg.PollInterval(),
		Epsilon:        cfg.LoopEpsilonSeconds,
	})

	err = coord.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}
