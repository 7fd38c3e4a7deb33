package store

import (
	"context"
	"sync"
)

// Table is an in-memory collection keyed by an integer id. Ids are
// assigned on Create and never reused. Rows keep insertion order.
type Table[T any] struct {
	mu     sync.RWMutex
	nextID int
	rows   []T
	id     func(T) int
	setID  func(*T, int)
}

func NewTable[T any](id func(T) int, setID func(*T, int)) *Table[T] {
	return &Table[T]{nextID: 1, id: id, setID: setID}
}

func (t *Table[T]) List(_ context.Context) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]T{}, t.rows...), nil
}

// Filter returns the rows keep accepts.
func (t *Table[T]) Filter(_ context.Context, keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := []T{}
	for _, row := range t.rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func (t *Table[T]) Get(_ context.Context, id int) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := t.index(id); i >= 0 {
		return t.rows[i], nil
	}
	var zero T
	return zero, ErrNotFound
}

func (t *Table[T]) Create(_ context.Context, row T) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setID(&row, t.nextID)
	t.nextID++
	t.rows = append(t.rows, row)
	return row, nil
}

// Update applies fn to a copy of the row and stores it if fn succeeds.
// The id cannot be changed.
func (t *Table[T]) Update(_ context.Context, id int, fn func(*T) error) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	i := t.index(id)
	if i < 0 {
		return zero, ErrNotFound
	}
	row := t.rows[i]
	if err := fn(&row); err != nil {
		return zero, err
	}
	t.setID(&row, id)
	t.rows[i] = row
	return row, nil
}

func (t *Table[T]) Delete(_ context.Context, id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.index(id)
	if i < 0 {
		return ErrNotFound
	}
	t.rows = append(t.rows[:i:i], t.rows[i+1:]...)
	return nil
}

// index finds id. Caller holds mu.
func (t *Table[T]) index(id int) int {
	for i, row := range t.rows {
		if t.id(row) == id {
			return i
		}
	}
	return -1
}
