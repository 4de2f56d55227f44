// Package codec persists lineage models as a directory of paged binary
// tables, preserving the identity of spots and links across save and load
// cycles.
//
// Layout of a snapshot directory:
//
//	tagsetstructure          tag sets, tags and colors (yaml)
//	spots_tag_lookup_table   distinct tag combinations used by spots
//	links_tag_lookup_table   distinct tag combinations used by links
//	spots/{0,1000,...}.raw   spot records
//	links/{0,1000,...}.raw   link records
//	spots_labels/{0,...}.raw label dictionary
//
// Each page holds up to 1000 consecutive ids. A page starts with a one byte
// format version and the length of the attribute block of its records, as a
// 32 bits integer. Integers are big endian 32 bits, floats are IEEE 754 64
// bits, strings are UTF-8 prefixed by their 16 bits length.
//
// Spot record: id, legacy UUID (format 1 only), label index or -1, tag
// lookup index, attributes (timepoint, position, covariance, bounding sphere
// radius²).
//
// Link record: id, source id, target id, position in the outgoing links of
// the source, position in the incoming links of the target, tag lookup index.
//
// Label record: id, label.
//
// Pages are read until the first missing page file.
package codec
