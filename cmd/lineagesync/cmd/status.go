package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oneconcern/lineagesync/pkg/core"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the project",
	Long:  "Show the project, the current branch and the files changed since the last save point.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAction("status", "Status", func(ctx context.Context, c *core.Controller) error {
			repo := c.Repository()
			project, err := core.ReadProject(repo.Root())
			if err != nil {
				return err
			}
			branch, err := repo.CurrentBranch()
			if err != nil {
				return err
			}
			g := repo.Model().Graph
			infoLogger.Printf("project:  %s", project.Name)
			infoLogger.Printf("branch:   %s", branch)
			infoLogger.Printf("lineage:  %d spots, %d links (%s on disk)",
				g.NumVertices(), g.NumEdges(), units.HumanSize(float64(dirSize(repo.Root()))))

			changes, err := repo.Changes()
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				infoLogger.Println("no changes since the last save point")
			}
			for _, change := range changes {
				infoLogger.Println(color.YellowString("  modified: ") + change)
			}
			if !lineageFlags.status.diff {
				return nil
			}
			lines, err := repo.Diff(ctx)
			if err != nil {
				return err
			}
			for _, line := range lines {
				text := line.String()
				switch text[0] {
				case '+':
					text = color.GreenString(text)
				case '-':
					text = color.RedString(text)
				}
				infoLogger.Println(text)
			}
			return nil
		})
	},
}

func dirSize(dir string) int64 {
	var size int64
	_ = filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func init() {
	addDiffFlag(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
