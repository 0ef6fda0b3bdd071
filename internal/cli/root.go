// Package cli implements the videowall command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atelierluma/videowall/internal/calibration"
	"github.com/atelierluma/videowall/internal/config"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	ConfigPath      string
	CalibrationPath string
	Verbose         bool
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand creates the videowall root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "videowall",
		Short:         "Synchronized multi-screen looping video playback",
		Long: `videowall drives one player instance per physical display and keeps
them frame-aligned over arbitrarily long looping playback. Displays are
matched to content by a calibrated hardware identity, so the assignment
survives reboots even when the OS renumbers the screens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "",
		"config file (default ~/.config/videowall/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.CalibrationPath, "calibration", "",
		"calibration file (default ~/.config/videowall/calibration.json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"enable debug logging")

	cmd.AddCommand(
		NewRunCommand(opts),
		NewCalibrateCommand(opts),
		NewDisplaysCommand(),
		NewCheckCommand(opts),
	)
	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.ConfigPath != "" {
		return config.LoadFromPath(o.ConfigPath)
	}
	return config.Load()
}

func (o *RootOptions) calibrationStore() (*calibration.Store, error) {
	path := o.CalibrationPath
	if path == "" {
		var err error
		path, err = calibration.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return calibration.NewStore(path), nil
}

func (o *RootOptions) newLogger(level string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}
	if o.Verbose {
		zapLevel = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
