package report

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Window selects matches by their 1-based position in the whole scan.
type Window struct {
	StartAt int
	Limit   int
}

// Validate rejects a start below 1 and a negative limit. A zero limit is
// valid and emits nothing.
func (w Window) Validate() error {
	if w.StartAt < 1 {
		return fmt.Errorf("%w: start-at must be at least 1, got %d", ErrInvalidArgument, w.StartAt)
	}
	if w.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidArgument, w.Limit)
	}
	return nil
}

// Contains reports whether the match at index is emitted.
func (w Window) Contains(index int) bool {
	return index >= w.StartAt && index-w.StartAt < w.Limit
}

// exhaustedAfter reports whether no match after index can be emitted.
func (w Window) exhaustedAfter(index int) bool {
	return index+1-w.StartAt >= w.Limit
}

// Match is an emitted match and its position.
type Match[T any] struct {
	Index int
	Cell  Cell
	Item  T
}

// PageResult summarizes a pagination run.
type PageResult struct {
	Window  Window
	Total   int
	Emitted int
}

// Truncated reports whether more matches exist than the limit allows.
func (r PageResult) Truncated() bool { return r.Total > r.Window.Limit }

// Empty reports whether no cell had a match.
func (r PageResult) Empty() bool { return r.Total == 0 }

// MatchFunc returns the matches of one cell in order.
type MatchFunc[T any] func(ctx context.Context, cell Cell) ([]T, error)

// PaginateOptions tunes Paginate.
type PaginateOptions struct {
	// Concurrency above one fetches the matches of all cells in parallel
	// before they are numbered and emitted in scan order.
	Concurrency int
}

// Paginate numbers the matches of all cells in scan order and calls emit
// for those inside the window. Once the window is exhausted the remaining
// cells only add their match count to the total.
func Paginate[T any](ctx context.Context, cells []Cell, match MatchFunc[T], w Window, emit func(Match[T]) error, opts PaginateOptions) (PageResult, error) {
	if err := w.Validate(); err != nil {
		return PageResult{}, err
	}

	fetch := func(i int) ([]T, error) { return match(ctx, cells[i]) }
	if opts.Concurrency > 1 && len(cells) > 1 {
		prefetched, err := prefetch(ctx, cells, match, opts.Concurrency)
		if err != nil {
			return PageResult{}, err
		}
		fetch = func(i int) ([]T, error) { return prefetched[i], nil }
	}

	res := PageResult{Window: w}
	for i, cell := range cells {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		items, err := fetch(i)
		if err != nil {
			return res, fmt.Errorf("matching in workspace %s %s: %w", cell.Workspace.Name, cell.Combination.Label(), err)
		}
		if w.exhaustedAfter(res.Total) {
			res.Total += len(items)
			continue
		}
		for _, item := range items {
			res.Total++
			if !w.Contains(res.Total) {
				continue
			}
			if err := emit(Match[T]{Index: res.Total, Cell: cell, Item: item}); err != nil {
				return res, err
			}
			res.Emitted++
		}
	}
	return res, nil
}

func prefetch[T any](ctx context.Context, cells []Cell, match MatchFunc[T], concurrency int) ([][]T, error) {
	out := make([][]T, len(cells))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, cell := range cells {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items, err := match(gctx, cell)
			if err != nil {
				return fmt.Errorf("matching in workspace %s %s: %w", cell.Workspace.Name, cell.Combination.Label(), err)
			}
			out[i] = items
			return nil
		})
	}
	return out, g.Wait()
}
