package domain

import "sort"

// ChangeSet partitions document ids for one reconciliation run.
// The four lists are disjoint; every id known to either the source
// snapshot or the fingerprint store appears in exactly one of them.
type ChangeSet struct {
	// New are ids present in the source with no fingerprint record.
	New []string

	// Updated are ids whose content hash differs from the stored one.
	Updated []string

	// Deleted are ids present in the store but absent from the source
	// snapshot. Only populated by full-enumeration runs.
	Deleted []string

	// Unchanged are ids whose hash matches; they are skipped entirely.
	Unchanged []string
}

// Sort orders every list so classification output is deterministic
// regardless of source enumeration order.
func (c *ChangeSet) Sort() {
	sort.Strings(c.New)
	sort.Strings(c.Updated)
	sort.Strings(c.Deleted)
	sort.Strings(c.Unchanged)
}

// Total returns the number of ids across all four lists.
func (c *ChangeSet) Total() int {
	return len(c.New) + len(c.Updated) + len(c.Deleted) + len(c.Unchanged)
}
