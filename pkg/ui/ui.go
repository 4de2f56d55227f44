// Package ui defines the interactions of lineage repositories with their
// users.
package ui

// Result of a prompt. Cancelled is true when the user dismissed the prompt,
// in which case Value is the zero value.
type Result[T any] struct {
	Value     T
	Cancelled bool
}

// Ok wraps the value entered by the user
func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Cancel is the result of a dismissed prompt
func Cancel[T any]() Result[T] {
	return Result[T]{Cancelled: true}
}

// Credentials to authenticate against a remote repository
type Credentials struct {
	Username string
	Password string
}

// Prompter asks users for input and shows them outcomes
type Prompter interface {
	RequestCommitMessage() Result[string]
	RequestCredentials(url string, previousAttemptFailed bool) Result[Credentials]
	ShowError(title string, err error)
	ShowBranchPicker(branches []string, current string) Result[string]
	Notify(title, message string)
	Confirm(title, message string) bool
}
