// Copyright © 2018 One Concern

package core

import (
	"context"
	"io"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/oneconcern/lineagesync/pkg/codec"
	"github.com/oneconcern/lineagesync/pkg/model"
	"github.com/oneconcern/lineagesync/pkg/storage/localfs"
)

// DiffLine is a line of the description of a lineage, with the way it
// changed
type DiffLine struct {
	Op   diffpatch.Operation
	Text string
}

func (d DiffLine) String() string {
	switch d.Op {
	case diffpatch.DiffInsert:
		return "+ " + d.Text
	case diffpatch.DiffDelete:
		return "- " + d.Text
	default:
		return "  " + d.Text
	}
}

// Committed loads the snapshot of some revision
func (r *Repository) Committed(ctx context.Context, rev string) (*model.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committed(ctx, rev)
}

func (r *Repository) committed(ctx context.Context, rev string) (*model.Model, error) {
	store := localfs.New(nil)
	err := r.vcs.ReadTree(rev, modelPath(), func(name string, content io.Reader) error {
		return store.Put(ctx, name, content)
	})
	if err != nil {
		return nil, err
	}
	m, _, err := codec.Read(ctx, store, r.codecOptions()...)
	return m, err
}

// Diff compares the in-memory model with the last commit. Only changed lines
// are returned.
func (r *Repository) Diff(ctx context.Context) ([]DiffLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.committed(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	return diffModels(head, r.mdl), nil
}

func diffModels(from, to *model.Model) []DiffLine {
	a, b := describe(from), describe(to)

	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var result []DiffLine
	for _, d := range diffs {
		if d.Type == diffpatch.DiffEqual {
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			result = append(result, DiffLine{Op: d.Type, Text: line})
		}
	}
	return result
}

func describe(m *model.Model) string {
	var sb strings.Builder
	for _, line := range model.Describe(m) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
