package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oneconcern/lineagesync/pkg/core"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Go back to the last save point",
	Long: `Throw away the changes made since the last save point.

With --remote, local save points are thrown away too, going back to the state
of the remote branch.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if lineageFlags.reset.remote {
			runAction("reset", "Reset To Remote Branch", func(ctx context.Context, c *core.Controller) error {
				return c.ResetToRemote(ctx)
			})
			return
		}
		runAction("reset", "Go Back To Last Save Point (Reset)", func(ctx context.Context, c *core.Controller) error {
			return c.Reset(ctx)
		})
	},
}

func init() {
	addRemoteResetFlag(resetCmd)
	rootCmd.AddCommand(resetCmd)
}
