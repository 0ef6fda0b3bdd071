package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atelierluma/videowall/internal/display"
)

// NewDisplaysCommand creates the displays command.
func NewDisplaysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "displays",
		Short: "List the connected displays and their hardware identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := display.NewConnection()
			if err != nil {
				return fmt.Errorf("failed to connect to X server: %w", err)
			}
			defer conn.Close()

			attrs, err := conn.Snapshot()
			if err != nil {
				return fmt.Errorf("failed to enumerate displays: %w", err)
			}
			if len(attrs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no displays connected")
				return nil
			}

			printDisplays(cmd.OutOrStdout(), attrs)
			return nil
		},
	}
}
