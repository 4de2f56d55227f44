package codec

import (
	"path"
	"strconv"
)

const (
	// PageSize is the number of ids covered by a page file
	PageSize = 1000

	tagSetStructureKey = "tagsetstructure"
	spotsTable         = "spots"
	linksTable         = "links"
	labelsTable        = "spots_labels"
	spotsLookupKey     = "spots_tag_lookup_table"
	linksLookupKey     = "links_tag_lookup_table"

	pageSuffix = ".raw"
)

// format versions
const (
	formatWithUUID    byte = 1
	formatWithoutUUID byte = 2
)

func pageKey(table string, first int) string {
	return path.Join(table, strconv.Itoa(first)+pageSuffix)
}
