package core

import (
	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/merge"
	"github.com/oneconcern/lineagesync/pkg/vcs"
)

// Option configures a repository
type Option func(*Repository)

// Logger for repository operations
func Logger(l *zap.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.l = l
		}
	}
}

// WithMerger sets the algorithm merging diverged lineages. It defaults to
// merge.Proximity.
func WithMerger(m merge.Merger) Option {
	return func(r *Repository) {
		if m != nil {
			r.merger = m
		}
	}
}

// WithMergeParams sets the thresholds of the merge algorithm. It defaults to
// merge.DefaultParams.
func WithMergeParams(p merge.Params) Option {
	return func(r *Repository) {
		r.params = p
	}
}

// WithAuthor sets the author of commits
func WithAuthor(a vcs.Author) Option {
	return func(r *Repository) {
		r.author = a
	}
}

// WithCredentials sets the factory of credential providers used by remote
// operations. Each operation gets its own provider.
func WithCredentials(factory func() vcs.CredentialsProvider) Option {
	return func(r *Repository) {
		r.credentials = factory
	}
}

// WithRemote sets the name of the git remote to synchronize with
func WithRemote(name string) Option {
	return func(r *Repository) {
		r.remote = name
	}
}

// WithProject sets the local settings written when sharing a project
func WithProject(p Project) Option {
	return func(r *Repository) {
		r.project = p
	}
}

// WithLegacyUUIDs saves snapshots in the format carrying a UUID per spot
func WithLegacyUUIDs(enabled bool) Option {
	return func(r *Repository) {
		r.legacyUUIDs = enabled
	}
}

// WithMetrics toggles metrics collection
func WithMetrics(enabled bool) Option {
	return func(r *Repository) {
		r.EnableMetrics(enabled)
	}
}
