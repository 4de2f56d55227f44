package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oneconcern/lineagesync/pkg/core"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <url> <directory>",
	Short: "Download a shared lineage project",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		url, dir := args[0], args[1]
		p := newTerminalPrompter()
		runTask("clone", "Download Shared Project", p, func(ctx context.Context) error {
			repo, err := core.Clone(ctx, url, dir, repositoryOptions(p)...)
			if err != nil {
				return err
			}
			g := repo.Model().Graph
			infoLogger.Printf("cloned %s: %d spots, %d links", repo.Root(), g.NumVertices(), g.NumEdges())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cloneCmd)
}
