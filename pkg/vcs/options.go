package vcs

import "go.uber.org/zap"

// Option configures a git working copy
type Option func(*Git)

// Logger for git operations
func Logger(l *zap.Logger) Option {
	return func(g *Git) {
		if l != nil {
			g.l = l
		}
	}
}

// WithCredentials sets the factory of credentials providers. A new
// provider is built for every transport operation.
func WithCredentials(factory func() CredentialsProvider) Option {
	return func(g *Git) {
		g.credentials = factory
	}
}

// Remote sets the name of the remote to synchronize with
func Remote(name string) Option {
	return func(g *Git) {
		if name != "" {
			g.remote = name
		}
	}
}
