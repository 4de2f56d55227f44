package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oneconcern/lineagesync/pkg/core"
	"github.com/oneconcern/lineagesync/pkg/model"
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Repair common editing mistakes in the lineage",
	Long: `Flip links pointing backwards in time, remove duplicated links and links
between spots of the same timepoint. The repaired lineage is saved, not committed.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("fix", "Fix Lineage", func(ctx context.Context, c *core.Controller) error {
			repo := c.Repository()
			report := model.FixInconsistencies(repo.Model(), logger)
			for _, w := range report.Warnings {
				infoLogger.Println("warning: " + w)
			}
			if !report.Changed() {
				infoLogger.Println("nothing to fix")
				return nil
			}
			printEdges("flipped", report.Flipped)
			printEdges("removed duplicates", report.Duplicate)
			printEdges("removed same timepoint links", report.SameTime)
			return repo.Save(ctx)
		})
	},
}

func printEdges(title string, edges []string) {
	if len(edges) > 0 {
		infoLogger.Printf("%s: %s", title, strings.Join(edges, "; "))
	}
}

func init() {
	rootCmd.AddCommand(fixCmd)
}
