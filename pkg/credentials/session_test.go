package credentials

import (
	"testing"

	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneconcern/lineagesync/pkg/core/status"
	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/ui"
)

type askerFunc func(string, bool) ui.Result[ui.Credentials]

func (f askerFunc) RequestCredentials(url string, failed bool) ui.Result[ui.Credentials] {
	return f(url, failed)
}

type recordingAsker struct {
	answers []ui.Result[ui.Credentials]
	failed  []bool
}

func (r *recordingAsker) RequestCredentials(_ string, failed bool) ui.Result[ui.Credentials] {
	r.failed = append(r.failed, failed)
	answer := r.answers[0]
	r.answers = r.answers[1:]
	return answer
}

func TestSingleUseProvider(t *testing.T) {
	asker := &recordingAsker{answers: []ui.Result[ui.Credentials]{
		ui.Ok(ui.Credentials{Username: "alice", Password: "wrong"}),
		ui.Ok(ui.Credentials{Username: "alice", Password: "secret"}),
	}}
	session := NewSession(asker)
	require.False(t, session.HasCredentials())

	first := session.Provider()
	assert.False(t, first.Cached())
	auth, err := first.Get("https://example.com/lineage.git")
	require.NoError(t, err)
	assert.Equal(t, "wrong", auth.(*githttp.BasicAuth).Password)

	// asked again within the same operation: the credentials were rejected
	auth, err = first.Get("https://example.com/lineage.git")
	require.NoError(t, err)
	assert.Equal(t, "secret", auth.(*githttp.BasicAuth).Password)
	assert.Equal(t, []bool{false, true}, asker.failed)

	// the next operation reuses the cache without prompting
	second := session.Provider()
	assert.True(t, second.Cached())
	auth, err = second.Get("https://example.com/lineage.git")
	require.NoError(t, err)
	assert.Equal(t, "alice", auth.(*githttp.BasicAuth).Username)
	assert.Len(t, asker.failed, 2)

	session.Clear()
	assert.False(t, session.HasCredentials())
}

func TestSingleUseProviderCancelled(t *testing.T) {
	session := NewSession(askerFunc(func(string, bool) ui.Result[ui.Credentials] {
		return ui.Cancel[ui.Credentials]()
	}))
	_, err := session.Provider().Get("https://example.com/lineage.git")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrCancelled))
	assert.False(t, session.HasCredentials())
}
