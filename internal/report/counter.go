package report

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Entry is one node type and its occurrence count.
type Entry struct {
	Name  string
	Count int
}

// Tally holds occurrence counts in the order the names were requested.
type Tally struct {
	entries []Entry
}

// NewTally returns a tally with every name at zero.
func NewTally(names []string) Tally {
	entries := make([]Entry, len(names))
	for i, name := range names {
		entries[i] = Entry{Name: name}
	}
	return Tally{entries: entries}
}

// Entries returns a copy of the entries in request order.
func (t Tally) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len returns the number of entries.
func (t Tally) Len() int { return len(t.entries) }

// Count returns the count for name and whether name is in the tally.
func (t Tally) Count(name string) (int, bool) {
	for _, e := range t.entries {
		if e.Name == name {
			return e.Count, true
		}
	}
	return 0, false
}

// add returns a new tally with counts added position by position.
func (t Tally) add(counts []int) Tally {
	next := t.Entries()
	for i := range next {
		next[i].Count += counts[i]
	}
	return Tally{entries: next}
}

// CountFunc returns how many nodes of typeName a cell contains.
type CountFunc func(ctx context.Context, cell Cell, typeName string) (int, error)

// CountOptions tunes CountOccurrences.
type CountOptions struct {
	// Concurrency bounds the number of cells counted at once; values below
	// two count sequentially.
	Concurrency int
	// Progress is called once per counted (cell, type) pair. Calls are
	// serialized and done increases by one each time.
	Progress func(done int)
}

// CountOccurrences calls count once per cell and requested type and sums
// the results. The first error aborts the run. Cells may be counted in
// parallel; per-cell counts are always added in scan order.
func CountOccurrences(ctx context.Context, names []string, cells []Cell, count CountFunc, opts CountOptions) (Tally, error) {
	perCell := make([][]int, len(cells))

	var (
		mu   sync.Mutex
		done int
	)
	advance := func() {
		if opts.Progress == nil {
			return
		}
		mu.Lock()
		done++
		opts.Progress(done)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))
	for i, cell := range cells {
		g.Go(func() error {
			counts := make([]int, len(names))
			for j, name := range names {
				if err := gctx.Err(); err != nil {
					return err
				}
				n, err := count(gctx, cell, name)
				if err != nil {
					return fmt.Errorf("counting %s in workspace %s %s: %w", name, cell.Workspace.Name, cell.Combination.Label(), err)
				}
				counts[j] = n
				advance()
			}
			perCell[i] = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Tally{}, err
	}

	tally := NewTally(names)
	for _, counts := range perCell {
		tally = tally.add(counts)
	}
	return tally, nil
}

// FilterAtOrBelow keeps the entries whose count is at most threshold, in
// their original order.
func FilterAtOrBelow(t Tally, threshold int) Tally {
	var kept []Entry
	for _, e := range t.entries {
		if e.Count <= threshold {
			kept = append(kept, e)
		}
	}
	return Tally{entries: kept}
}
