package cloudsync

// changeSet is the data structure backing SyncState's changeset, chosen per
// spec.md §9's "Non-deterministic change selection" note: it must support
// O(1) insertion, removal, and membership, plus round-robin sampling. The
// fairness property required by §5/§9 is "eventually visits every
// non-discarded entry with changed set" — round robin over a slice with
// swap-to-end removal gives that directly and deterministically, which is
// easier to reason about (and to test) than the original's
// random.sample-based approach while satisfying the same contract.
type changeSet struct {
	entries []*SyncEntry
	index   map[*SyncEntry]int
	cursor  int
}

func newChangeSet() *changeSet {
	return &changeSet{index: make(map[*SyncEntry]int)}
}

// add inserts e if not already present. O(1).
func (c *changeSet) add(e *SyncEntry) {
	if _, ok := c.index[e]; ok {
		return
	}
	c.index[e] = len(c.entries)
	c.entries = append(c.entries, e)
}

// remove deletes e if present, swapping the last entry into its slot to
// keep removal O(1).
func (c *changeSet) remove(e *SyncEntry) {
	i, ok := c.index[e]
	if !ok {
		return
	}
	last := len(c.entries) - 1
	c.entries[i] = c.entries[last]
	c.index[c.entries[i]] = i
	c.entries = c.entries[:last]
	delete(c.index, e)
	if c.cursor > last {
		c.cursor = 0
	}
}

// contains reports membership in O(1).
func (c *changeSet) contains(e *SyncEntry) bool {
	_, ok := c.index[e]
	return ok
}

// len reports the number of entries currently pending.
func (c *changeSet) len() int {
	return len(c.entries)
}

// sample returns the next entry in round-robin order, or nil if empty.
// Repeated calls cycle through every entry before repeating any, which is
// the fairness guarantee spec.md §5 asks for.
func (c *changeSet) sample() *SyncEntry {
	if len(c.entries) == 0 {
		return nil
	}
	if c.cursor >= len(c.entries) {
		c.cursor = 0
	}
	e := c.entries[c.cursor]
	c.cursor++
	return e
}

// all returns a snapshot slice of every entry currently in the set.
func (c *changeSet) all() []*SyncEntry {
	out := make([]*SyncEntry, len(c.entries))
	copy(out, c.entries)
	return out
}
