// Copyright © 2018 One Concern

package vcs

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/vcs/status"
)

const maxAuthAttempts = 5

// withAuth runs a transport operation, asking for credentials again each
// time the remote rejects them
func (g *Git) withAuth(url string, op func(transport.AuthMethod) error) error {
	if g.credentials == nil {
		return op(nil)
	}
	provider := g.credentials()

	var auth transport.AuthMethod
	if provider.Cached() {
		var err error
		if auth, err = provider.Get(url); err != nil {
			return err
		}
	}
	for attempt := 1; ; attempt++ {
		err := op(auth)
		if !isAuthError(err) {
			return err
		}
		if attempt > maxAuthAttempts {
			return status.ErrCredentials.Wrap(err).WrapMessage(url)
		}
		g.l.Info("authentication required", zap.String("url", url), zap.Int("attempt", attempt))
		if auth, err = provider.Get(url); err != nil {
			return err
		}
	}
}

func isAuthError(err error) bool {
	return errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed)
}
