package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// runStatus reports the configured server and whether it answers. An
// unreachable server is reported, not returned as an error.
func runStatus(ctx context.Context, out io.Writer) error {
	serverURL := getServerURL()
	if _, err := fmt.Fprintf(out, "Server:  %s\n", serverURL); err != nil {
		return err
	}

	var err error
	if herr := newAPIClient().Health(ctx); herr != nil {
		_, err = fmt.Fprintf(out, "Status:  ✗ %v\n", herr)
	} else {
		_, err = fmt.Fprintln(out, "Status:  ✓ ok")
	}
	return err
}
