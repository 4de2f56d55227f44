package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oneconcern/lineagesync/pkg/core"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Commands to manage branches",
	Long:  "Without a sub command, shows the name of the current branch.",
	Args:  cobra.NoArgs,
	Run:   showBranchName,
}

var branchCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the name of the current branch",
	Args:  cobra.NoArgs,
	Run:   showBranchName,
}

func showBranchName(cmd *cobra.Command, args []string) {
	runAction("branch current", "Show Branch Name", func(_ context.Context, c *core.Controller) error {
		return c.ShowBranchName()
	})
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the local and remote branches",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("branch list", "List Branches", func(_ context.Context, c *core.Controller) error {
			repo := c.Repository()
			branches, err := repo.Branches()
			if err != nil {
				return err
			}
			current, err := repo.CurrentBranch()
			if err != nil {
				return err
			}
			for _, b := range branches {
				marker := "  "
				if b == current {
					marker = "* "
				}
				infoLogger.Println(marker + b)
			}
			return nil
		})
	},
}

var branchCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Aliases: []string{"new"},
	Short:   "Create a branch and check it out",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAction("branch create", "Create New Branch", func(_ context.Context, c *core.Controller) error {
			return c.NewBranch(args[0])
		})
	},
}

var branchSwitchCmd = &cobra.Command{
	Use:   "switch [branch]",
	Short: "Check out another branch",
	Long: `Fetch the remote branches and check out a branch.

Remote branches (refs/remotes/...) get a local branch of the same name. The
branch is picked interactively if not given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			lineageFlags.branch.name = args[0]
		}
		runAction("branch switch", "Switch Branch", func(ctx context.Context, c *core.Controller) error {
			return c.SwitchBranch(ctx)
		})
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge [branch]",
	Short: "Merge a branch into the current one",
	Long: `Merge the lineage of another branch into the current branch and commit the result.

The merge is refused when the lineages conflict. The branch is picked
interactively if not given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			lineageFlags.branch.name = args[0]
		}
		runAction("merge", "Merge Branch", func(ctx context.Context, c *core.Controller) error {
			return c.MergeBranch(ctx)
		})
	},
}

func init() {
	branchCmd.AddCommand(branchCurrentCmd, branchListCmd, branchCreateCmd, branchSwitchCmd)
	rootCmd.AddCommand(branchCmd, mergeCmd)
}
