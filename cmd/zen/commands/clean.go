package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/zen/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build outputs and the staleness ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keepCache, _ := cmd.Flags().GetBool("keep-cache")
			return c.app.Clean(cmd.Context(), options(cmd), app.CleanOptions{KeepCache: keepCache})
		},
	}

	cmd.Flags().Bool("keep-cache", false, "Keep the staleness ledger")

	return cmd
}
