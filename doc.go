/*
Package lineagesync shares cell lineage projects between annotators.

A lineage is a graph of spots (cells at a timepoint) linked across time,
with colored tags. lineagesync saves it in a compact paged binary format
inside a git working copy, and synchronizes it with a remote repository:
share, clone, commit, push, pull, branches and merges.

Lineages that diverged are merged automatically by matching spots on their
position and shape. Contradicting edits are reported as conflicts instead
of being merged.
*/
package lineagesync
