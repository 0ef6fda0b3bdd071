package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"

	"github.com/spf13/cobra"

	"github.com/atelierluma/videowall/internal/calibration"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the configuration, content files, player and calibration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd.OutOrStdout())
		},
	}
}

func runCheck(rootOpts *RootOptions, out io.Writer) error {
	failed := false
	report := func(name string, err error) {
		if err != nil {
			failed = true
			fmt.Fprintf(out, "FAIL  %s: %v\n", name, err)
			return
		}
		fmt.Fprintf(out, "ok    %s\n", name)
	}

	cfg, err := rootOpts.loadConfig()
	report("config", err)
	if cfg == nil {
		return errors.New("setup check failed")
	}

	for _, label := range cfg.Labels() {
		path := cfg.Content[label]
		_, err := os.Stat(path)
		report(fmt.Sprintf("content %s (%s)", label, path), err)
	}

	_, err = exec.LookPath(cfg.Player)
	report(fmt.Sprintf("player binary %q", cfg.Player), err)

	store, err := rootOpts.calibrationStore()
	report("calibration path", err)

	var mapping *calibration.Mapping
	if store != nil {
		mapping, err = store.Load()
		if errors.Is(err, calibration.ErrNotFound) {
			err = fmt.Errorf("%w (run `videowall calibrate`)", err)
		}
		report("calibration file", err)
	}

	if mapping != nil {
		report("calibration labels", labelsMatch(mapping, cfg.Labels()))
	}

	if failed {
		return errors.New("setup check failed")
	}
	fmt.Fprintln(out, "all checks passed")
	return nil
}

// labelsMatch verifies that the calibrated labels are exactly the
// configured ones, so run cannot fail later on a stale calibration.
func labelsMatch(m *calibration.Mapping, want []string) error {
	got := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		got = append(got, e.Label)
	}
	sort.Strings(got)

	if len(got) != len(want) {
		return fmt.Errorf("calibration has labels %v, config wants %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("calibration has labels %v, config wants %v", got, want)
		}
	}
	return nil
}
