package ui

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/oneconcern/lineagesync/pkg/core/status"
	"github.com/oneconcern/lineagesync/pkg/errors"
)

type mockPrompter struct {
	mock.Mock
}

func (m *mockPrompter) RequestCommitMessage() Result[string] {
	return m.Called().Get(0).(Result[string])
}

func (m *mockPrompter) RequestCredentials(url string, failed bool) Result[Credentials] {
	return m.Called(url, failed).Get(0).(Result[Credentials])
}

func (m *mockPrompter) ShowError(title string, err error) {
	m.Called(title, err)
}

func (m *mockPrompter) ShowBranchPicker(branches []string, current string) Result[string] {
	return m.Called(branches, current).Get(0).(Result[string])
}

func (m *mockPrompter) Notify(title, message string) {
	m.Called(title, message)
}

func (m *mockPrompter) Confirm(title, message string) bool {
	return m.Called(title, message).Bool(0)
}

func TestRunner(t *testing.T) {
	defer goleak.VerifyNone(t)

	failure := errors.New("boom")
	prompter := &mockPrompter{}
	prompter.On("ShowError", "failing", failure).Once()

	r := NewRunner(prompter, RunnerLogger(zaptest.NewLogger(t)))
	var (
		mu      sync.Mutex
		results = make(map[string]error)
	)
	record := func(title string) func(error) {
		return func(err error) {
			mu.Lock()
			defer mu.Unlock()
			results[title] = err
		}
	}

	ctx := context.Background()
	r.Run(ctx, "working", func(context.Context) error { return nil }, record("working"))
	r.Run(ctx, "failing", func(context.Context) error { return failure }, record("failing"))
	r.Run(ctx, "cancelled", func(context.Context) error {
		return status.ErrCancelled.WrapMessage("commit message")
	}, record("cancelled"))
	r.Run(ctx, "no callback", func(context.Context) error { return nil }, nil)
	r.Wait()

	assert.Len(t, results, 3)
	assert.NoError(t, results["working"])
	assert.Equal(t, failure, results["failing"])
	assert.NoError(t, results["cancelled"], "cancellations are not failures")
	prompter.AssertExpectations(t)
}

func TestResult(t *testing.T) {
	ok := Ok("message")
	assert.False(t, ok.Cancelled)
	assert.Equal(t, "message", ok.Value)

	cancelled := Cancel[Credentials]()
	assert.True(t, cancelled.Cancelled)
	assert.Empty(t, cancelled.Value.Username)
}
