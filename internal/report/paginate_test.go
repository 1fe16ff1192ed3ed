package report

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence hands out consecutive integers per cell, so every match
// carries its expected global index.
func sequence(cells []Cell, perCell []int) MatchFunc[int] {
	starts := map[string]int{}
	next := 1
	for i, cell := range cells {
		starts[cell.Workspace.Name] = next
		next += perCell[i]
	}
	counts := map[string]int{}
	for i, cell := range cells {
		counts[cell.Workspace.Name] = perCell[i]
	}
	return func(_ context.Context, cell Cell) ([]int, error) {
		items := make([]int, counts[cell.Workspace.Name])
		for i := range items {
			items[i] = starts[cell.Workspace.Name] + i
		}
		return items, nil
	}
}

func collect(t *testing.T, cells []Cell, match MatchFunc[int], w Window, opts PaginateOptions) ([]int, PageResult) {
	t.Helper()
	var got []int
	res, err := Paginate(context.Background(), cells, match, w, func(m Match[int]) error {
		assert.Equal(t, m.Item, m.Index, "index is global across cells")
		got = append(got, m.Index)
		return nil
	}, opts)
	require.NoError(t, err)
	return got, res
}

func TestPaginate_FirstPage(t *testing.T) {
	cells := testCells("a", "b", "c", "d")
	match := sequence(cells, []int{3, 0, 4, 5})

	got, res := collect(t, cells, match, Window{StartAt: 1, Limit: 5}, PaginateOptions{})
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, 5, res.Emitted)
	assert.True(t, res.Truncated())
	assert.False(t, res.Empty())
}

func TestPaginate_Offset(t *testing.T) {
	cells := testCells("a", "b", "c", "d")
	match := sequence(cells, []int{3, 0, 4, 5})

	got, res := collect(t, cells, match, Window{StartAt: 4, Limit: 3}, PaginateOptions{})
	assert.Equal(t, []int{4, 5, 6}, got)
	assert.Equal(t, 12, res.Total)
}

func TestPaginate_WindowBeyondMatches(t *testing.T) {
	cells := testCells("a", "b")
	match := sequence(cells, []int{2, 1})

	got, res := collect(t, cells, match, Window{StartAt: 10, Limit: 5}, PaginateOptions{})
	assert.Empty(t, got)
	assert.Equal(t, 3, res.Total)
	assert.False(t, res.Truncated())
}

func TestPaginate_ZeroLimit(t *testing.T) {
	cells := testCells("a", "b")
	got, res := collect(t, cells, sequence(cells, []int{2, 1}), Window{StartAt: 1, Limit: 0}, PaginateOptions{})
	assert.Empty(t, got)
	assert.Equal(t, 3, res.Total)
	assert.True(t, res.Truncated())
}

func TestPaginate_NoMatches(t *testing.T) {
	cells := testCells("a", "b")
	got, res := collect(t, cells, sequence(cells, []int{0, 0}), Window{StartAt: 1, Limit: 5}, PaginateOptions{})
	assert.Empty(t, got)
	assert.True(t, res.Empty())
	assert.False(t, res.Truncated())
}

func TestPaginate_ExhaustedCellsOnlyCount(t *testing.T) {
	cells := testCells("a", "b", "c")
	var calls atomic.Int32
	inner := sequence(cells, []int{5, 4, 4})
	match := func(ctx context.Context, cell Cell) ([]int, error) {
		calls.Add(1)
		return inner(ctx, cell)
	}

	var emitted []Cell
	res, err := Paginate(context.Background(), cells, match, Window{StartAt: 2, Limit: 4}, func(m Match[int]) error {
		emitted = append(emitted, m.Cell)
		return nil
	}, PaginateOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "every cell is still counted")
	assert.Equal(t, 13, res.Total)
	assert.Len(t, emitted, 4)
	assert.Equal(t, "a", emitted[0].Workspace.Name)
	assert.Equal(t, "a", emitted[3].Workspace.Name)
}

func TestPaginate_ParallelPrefetchKeepsOrder(t *testing.T) {
	cells := testCells("a", "b", "c", "d", "e", "f")
	match := sequence(cells, []int{2, 0, 3, 1, 4, 2})
	w := Window{StartAt: 3, Limit: 6}

	want, wantRes := collect(t, cells, match, w, PaginateOptions{})
	for _, n := range []int{2, 4, 8} {
		got, res := collect(t, cells, match, w, PaginateOptions{Concurrency: n})
		assert.Equal(t, want, got, "concurrency %d", n)
		assert.Equal(t, wantRes, res, "concurrency %d", n)
	}
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, want)
}

func TestPaginate_InvalidWindow(t *testing.T) {
	emit := func(Match[int]) error { return nil }
	for _, w := range []Window{{StartAt: 0, Limit: 5}, {StartAt: -3, Limit: 5}, {StartAt: 1, Limit: -1}} {
		_, err := Paginate(context.Background(), testCells("a"), sequence(testCells("a"), []int{1}), w, emit, PaginateOptions{})
		assert.ErrorIs(t, err, ErrInvalidArgument, "%+v", w)
	}
}

func TestPaginate_Errors(t *testing.T) {
	cells := testCells("a", "broken")
	match := func(_ context.Context, cell Cell) ([]int, error) {
		if cell.Workspace.Name == "broken" {
			return nil, assert.AnError
		}
		return []int{1}, nil
	}
	for _, n := range []int{1, 4} {
		_, err := Paginate(context.Background(), cells, match, Window{StartAt: 1, Limit: 5}, func(Match[int]) error { return nil }, PaginateOptions{Concurrency: n})
		assert.ErrorIs(t, err, assert.AnError)
	}

	_, err := Paginate(context.Background(), testCells("a"), match, Window{StartAt: 1, Limit: 5}, func(Match[int]) error { return assert.AnError }, PaginateOptions{})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestWindowContains(t *testing.T) {
	w := Window{StartAt: 4, Limit: 3}
	for i := 1; i <= 12; i++ {
		assert.Equal(t, i >= 4 && i <= 6, w.Contains(i), "index %d", i)
	}
}
