package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/oneconcern/lineagesync/pkg/core"
	"github.com/oneconcern/lineagesync/pkg/credentials"
	"github.com/oneconcern/lineagesync/pkg/ui"
)

// session holds the credentials entered during the process
var session *credentials.Session

// projectRoot resolves the --project flag into a project directory. The
// flag may name the git working copy or its project directory.
func projectRoot(location string) (string, error) {
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", err
	}
	if filepath.Base(abs) == core.ProjectDir {
		return abs, nil
	}
	return filepath.Join(abs, core.ProjectDir), nil
}

func repositoryOptions(p ui.Prompter) []core.Option {
	if session == nil {
		session = credentials.NewSession(p)
	}
	author, _ := settings.EnsureAuthor()
	return []core.Option{
		core.Logger(logger),
		core.WithAuthor(author),
		core.WithMergeParams(settings.Merge),
		core.WithRemote(settings.Remote),
		core.WithCredentials(session.Provider),
		core.WithMetrics(lineageFlags.root.metrics.IsEnabled()),
	}
}

func newController(repo *core.Repository, p ui.Prompter) *core.Controller {
	return core.NewController(repo, p,
		core.ControllerLogger(logger),
		core.WithAuthorGate(settings.EnsureAuthor),
	)
}

// openController opens the project named by --project
func openController(ctx context.Context, p ui.Prompter) (*core.Controller, error) {
	root, err := projectRoot(lineageFlags.root.project)
	if err != nil {
		return nil, err
	}
	repo, err := core.Open(ctx, root, nil, repositoryOptions(p)...)
	if err != nil {
		return nil, err
	}
	return newController(repo, p), nil
}

// runAction runs an action of the controller on the project named by
// --project. The process exits with a non zero code if the action failed.
func runAction(command, title string, action func(context.Context, *core.Controller) error) {
	p := newTerminalPrompter()
	runTask(command, title, p, func(ctx context.Context) error {
		ctrl, err := openController(ctx, p)
		if err != nil {
			return err
		}
		return action(ctx, ctrl)
	})
}

// runTask runs an action and waits for its completion. Failures are shown
// by the prompter.
func runTask(command, title string, p ui.Prompter, action func(context.Context) error) {
	if err := execute(command, title, p, action); err != nil {
		osExit(1)
	}
}

func execute(command, title string, p ui.Prompter, action func(context.Context) error) (err error) {
	defer func(t0 time.Time) {
		cliUsage(t0, command, err)
	}(time.Now())

	runner := ui.NewRunner(p, ui.RunnerLogger(logger))
	runner.Run(context.Background(), title, action, func(e error) {
		err = e
	})
	runner.Wait()
	return err
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
