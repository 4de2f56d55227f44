// Package credentials keeps the credentials of remote repositories for the
// lifetime of the process.
package credentials

import (
	"sync"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/oneconcern/lineagesync/pkg/core/status"
	"github.com/oneconcern/lineagesync/pkg/ui"
	"github.com/oneconcern/lineagesync/pkg/vcs"
)

// Asker requests credentials from users
type Asker interface {
	RequestCredentials(url string, previousAttemptFailed bool) ui.Result[ui.Credentials]
}

// Session caches the credentials entered by the user.
//
// The cache is shared by all transport operations. It is populated on demand
// and only cleared explicitly.
type Session struct {
	mu    sync.Mutex
	creds *ui.Credentials
	asker Asker
}

// NewSession builds an empty session
func NewSession(asker Asker) *Session {
	return &Session{asker: asker}
}

// Clear forgets the cached credentials
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
}

// HasCredentials tells if credentials are cached
func (s *Session) HasCredentials() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds != nil
}

// Provider builds a provider for a single transport operation
func (s *Session) Provider() vcs.CredentialsProvider {
	return &SingleUse{session: s}
}

// SingleUse provides credentials to one transport operation.
//
// The provider can't tell why it is consulted: being asked a second time
// within the same operation is taken as a sign that the previous credentials
// were rejected. The user is then prompted again.
type SingleUse struct {
	session *Session
	counter int
}

// Cached tells if the session holds credentials
func (p *SingleUse) Cached() bool {
	return p.session.HasCredentials()
}

// Get the credentials for a remote, prompting the user if none are cached or
// if the previous ones were rejected.
//
// status.ErrCancelled is returned when the user dismisses the prompt.
func (p *SingleUse) Get(url string) (transport.AuthMethod, error) {
	p.counter++
	failed := p.counter > 1

	s := p.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil || failed {
		result := s.asker.RequestCredentials(url, failed)
		if result.Cancelled {
			s.creds = nil
			return nil, status.ErrCancelled.WrapMessage("credentials for %s", url)
		}
		creds := result.Value
		s.creds = &creds
	}
	return &githttp.BasicAuth{
		Username: s.creds.Username,
		Password: s.creds.Password,
	}, nil
}
