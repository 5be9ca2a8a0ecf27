package dataset

import (
	"fmt"
	"strings"

	"github.com/eoscience/eopfzarr/store"
	"github.com/eoscience/eopfzarr/zarrpath"
)

// SubdatasetEntry is one rewritten catalog entry. Index is 1-based and
// contiguous regardless of what the inner catalog numbered.
type SubdatasetEntry struct {
	Index int
	Name  string
	Desc  string
}

// RewriteSubdatasets rebrands an inner subdataset catalog so every
// entry reopens through this driver. The inner name prefix is swapped
// for ours and the remainder is kept byte for byte; entries already
// carrying our prefix pass through unchanged, so rewriting is
// idempotent.
func RewriteSubdatasets(subs []store.Subdataset) []SubdatasetEntry {
	entries := make([]SubdatasetEntry, 0, len(subs))
	for _, sub := range subs {
		entries = append(entries, SubdatasetEntry{
			Index: len(entries) + 1,
			Name:  rewriteName(sub.Name),
			Desc:  sub.Desc,
		})
	}
	return entries
}

func rewriteName(name string) string {
	upper := strings.ToUpper(name)
	if strings.HasPrefix(upper, zarrpath.Prefix) {
		return name
	}
	if strings.HasPrefix(upper, zarrpath.InnerPrefix) {
		return zarrpath.Prefix + name[len(zarrpath.InnerPrefix):]
	}
	return zarrpath.Prefix + name
}

// SubdatasetMetadata renders the catalog as the SUBDATASETS metadata
// dictionary.
func SubdatasetMetadata(entries []SubdatasetEntry) map[string]string {
	items := make(map[string]string, 2*len(entries)+1)
	items["SUBDATASET_COUNT"] = fmt.Sprintf("%d", len(entries))
	for _, e := range entries {
		items[fmt.Sprintf("SUBDATASET_%d_NAME", e.Index)] = e.Name
		items[fmt.Sprintf("SUBDATASET_%d_DESC", e.Index)] = e.Desc
	}
	return items
}
