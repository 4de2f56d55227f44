package cmd

import "github.com/oneconcern/lineagesync/pkg/errors"

var (
	errNotADirectory = errors.New("not a directory")
	errAuthorMissing = errors.New("both --name and --email must be set")
)
