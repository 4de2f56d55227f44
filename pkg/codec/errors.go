package codec

import "github.com/oneconcern/lineagesync/pkg/errors"

var (
	// ErrCorruptTable is returned when a table does not match the expected format
	ErrCorruptTable = errors.New("corrupt table")

	// ErrLabelTooLong is returned when a label doesn't fit in a record
	ErrLabelTooLong = errors.New("label too long")
)

var (
	errTagLookupRange  = errors.New("tag lookup index out of range")
	errLabelIndex      = errors.New("unknown label index")
	errUnknownEndpoint = errors.New("link endpoint is not a known spot")
	errDuplicateID     = errors.New("duplicate id")
)
