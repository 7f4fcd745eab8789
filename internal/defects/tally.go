package defects

import (
	"cmp"
	"slices"
	"sync"
)

// DefaultMinCount is the smallest count kept in a ranking.
const DefaultMinCount = 2

// Entry is one ranked file.
type Entry struct {
	Path  string
	Count int
}

// Tally counts defect fixes per depot path. It is safe for concurrent use.
type Tally struct {
	mu     sync.Mutex
	counts map[string]int
	total  int
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Add records one defect fix touching path.
func (t *Tally) Add(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[path]++
	t.total++
}

// Count returns the defect fixes recorded for path.
func (t *Tally) Count(path string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.counts[path]
}

// Len returns the number of distinct paths.
func (t *Tally) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.counts)
}

// Total returns the number of recorded touches across all paths, the
// file-touch count of a run.
func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Ranked returns the entries with at least minCount fixes, most fixed first.
// Equal counts are ordered by path.
func (t *Tally) Ranked(minCount int) []Entry {
	t.mu.Lock()

	entries := make([]Entry, 0, len(t.counts))

	for path, count := range t.counts {
		if count >= minCount {
			entries = append(entries, Entry{Path: path, Count: count})
		}
	}

	t.mu.Unlock()

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Path, b.Path)
	})

	return entries
}
