package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oneconcern/lineagesync/pkg/codec"
	"github.com/oneconcern/lineagesync/pkg/core"
	"github.com/oneconcern/lineagesync/pkg/model"
	"github.com/oneconcern/lineagesync/pkg/storage/localfs"
)

var shareCmd = &cobra.Command{
	Use:   "share <directory> <url>",
	Short: "Share a lineage on an empty remote repository",
	Long: `Share a lineage on an empty remote repository.

The remote is cloned into the directory, which must be empty. The lineage is
saved there in the lineage.project directory, committed and pushed.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dir, url := args[0], args[1]
		p := newTerminalPrompter()
		runTask("share", "Share Project", p, func(ctx context.Context) error {
			if _, err := settings.EnsureAuthor(); err != nil {
				return err
			}
			mdl, err := sharedModel(ctx)
			if err != nil {
				return err
			}
			opts := append(repositoryOptions(p), core.WithProject(core.Project{
				Name:      lineageFlags.share.name,
				ImageData: lineageFlags.share.imageData,
			}))
			if _, err := core.Share(ctx, mdl, dir, url, opts...); err != nil {
				return err
			}
			p.Notify("Share Project", "The lineage is now shared at "+url)
			return nil
		})
	},
}

// sharedModel loads the lineage given by --from
func sharedModel(ctx context.Context) (*model.Model, error) {
	from := lineageFlags.share.from
	if from == "" {
		return model.New(), nil
	}
	if !isDir(from) {
		return nil, errNotADirectory.WrapMessage(from)
	}
	mdl, _, err := codec.Read(ctx, localfs.NewDir(from), codec.Logger(logger))
	return mdl, err
}

func init() {
	addProjectNameFlag(shareCmd)
	addImageDataFlag(shareCmd)
	addFromFlag(shareCmd)
	rootCmd.AddCommand(shareCmd)
}
