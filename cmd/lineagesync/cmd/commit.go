package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oneconcern/lineagesync/pkg/core"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Add a save point",
	Long:  "Save the lineage and commit it. Nothing happens if the lineage did not change since the last save point.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("commit", "Add Save Point (Commit)", func(ctx context.Context, c *core.Controller) error {
			return c.Commit(ctx)
		})
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the save points to the remote",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("push", "Upload Changes (Push)", func(ctx context.Context, c *core.Controller) error {
			return c.Push(ctx)
		})
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the changes of the others",
	Long: `Download the save points of the remote branch.

Diverging lineages are merged automatically. On conflicts, you are offered to
throw away your local changes.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("pull", "Download Changes (Pull)", func(ctx context.Context, c *core.Controller) error {
			return c.Pull(ctx)
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Commit, pull and push",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("sync", "Synchronize Changes (Commit, Pull, Push)", func(ctx context.Context, c *core.Controller) error {
			return c.Synchronize(ctx)
		})
	},
}

func init() {
	addCommitMessageFlag(commitCmd)
	addCommitMessageFlag(syncCmd)
	rootCmd.AddCommand(commitCmd, pushCmd, pullCmd, syncCmd)
}
