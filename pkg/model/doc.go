// Package model describes the objects synchronized by lineagesync.
//
// The object model is composed of:
//
//	Graph:
//	  A directed graph of spots (vertices) and links (edges). Spots carry a
//	  label, a timepoint and an ellipsoid shape. The order of the outgoing
//	  links of a spot is meaningful: it tells which daughter cell comes first.
//
//	Tag sets:
//	  Named lists of colored tags. A spot or a link carries at most one tag
//	  of each tag set.
//
//	Model:
//	  A graph with its tag sets and tag assignments. A model is what gets
//	  persisted, committed and merged.
package model
