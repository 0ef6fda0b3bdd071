package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atelierluma/videowall/internal/calibration"
	"github.com/atelierluma/videowall/internal/display"
	"github.com/atelierluma/videowall/internal/identity"
)

// NewCalibrateCommand creates the calibrate command.
func NewCalibrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate",
		Short: "Assign position labels to the connected displays",
		Long: `Enumerate the connected displays and interactively assign each
configured position label (e.g. CENTER) to one of them. The resulting
mapping is keyed by hardware identity and survives reboots; rerun this
command whenever displays are added, removed or rearranged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalibrate(rootOpts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runCalibrate(rootOpts *RootOptions, in io.Reader, out io.Writer) error {
	conn, err := display.NewConnection()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer conn.Close()

	attrs, err := conn.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to enumerate displays: %w", err)
	}
	return calibrateDisplays(rootOpts, attrs, in, out)
}

func calibrateDisplays(rootOpts *RootOptions, attrs []display.Attributes, in io.Reader, out io.Writer) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	// Resolution at run time demands an exact match, so calibrating with a
	// surplus display would only produce a mapping that can never resolve.
	if len(attrs) != len(cfg.Content) {
		return fmt.Errorf("config names %d positions but %d displays are connected; connect exactly one display per position and recalibrate",
			len(cfg.Content), len(attrs))
	}

	printDisplays(out, attrs)

	chosen, err := promptAssignments(in, out, cfg.Labels(), attrs)
	if err != nil {
		return err
	}

	mapping := &calibration.Mapping{SchemaVersion: calibration.SchemaVersion}
	for _, label := range cfg.Labels() {
		a := chosen[label]
		mapping.Entries = append(mapping.Entries, calibration.Entry{
			Label:      label,
			Identity:   identity.ForAttributes(a),
			Attributes: a,
		})
	}

	store, err := rootOpts.calibrationStore()
	if err != nil {
		return err
	}
	if err := store.Save(mapping); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nCalibration saved to %s\n", store.Path())
	for _, e := range mapping.Entries {
		fmt.Fprintf(out, "  %-8s -> %s  [%s]\n", e.Label, e.Identity, e.Attributes)
	}
	return nil
}

func printDisplays(out io.Writer, attrs []display.Attributes) {
	fmt.Fprintf(out, "Connected displays:\n")
	for i, a := range attrs {
		fmt.Fprintf(out, "  [%d] %s\n      identity %s\n", i, a, identity.ForAttributes(a))
	}
	fmt.Fprintln(out)
}

// promptAssignments asks the operator which display serves each position
// label. Duplicate and out-of-range answers are rejected and re-asked.
func promptAssignments(in io.Reader, out io.Writer, labels []string, attrs []display.Attributes) (map[string]display.Attributes, error) {
	scanner := bufio.NewScanner(in)
	chosen := make(map[string]display.Attributes, len(labels))
	taken := make(map[int]string, len(labels))

	for _, label := range labels {
		for {
			fmt.Fprintf(out, "Which display is the %s position? (0-%d): ", label, len(attrs)-1)
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("calibration aborted: input closed")
			}

			index, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err != nil || index < 0 || index >= len(attrs) {
				fmt.Fprintf(out, "  please enter a number between 0 and %d\n", len(attrs)-1)
				continue
			}
			if other, ok := taken[index]; ok {
				fmt.Fprintf(out, "  display %d is already assigned to %s\n", index, other)
				continue
			}

			taken[index] = label
			chosen[label] = attrs[index]
			fmt.Fprintf(out, "  %s -> display %d\n", label, index)
			break
		}
	}
	return chosen, nil
}
