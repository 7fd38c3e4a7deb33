package store

import (
	"context"
	"sync"

	"github.com/cellhub/admin/types"
)

// CelluleRepository holds cellules and their members.
type CelluleRepository struct {
	*Table[types.Cellule]

	mu      sync.RWMutex
	members map[int][]int
}

func NewCelluleRepository() *CelluleRepository {
	return &CelluleRepository{
		Table:   NewTable(func(c types.Cellule) int { return c.ID }, func(c *types.Cellule, id int) { c.ID = id }),
		members: map[int][]int{},
	}
}

func (r *CelluleRepository) AddMember(ctx context.Context, celluleID, userID int) error {
	if _, err := r.Get(ctx, celluleID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.members[celluleID] {
		if id == userID {
			return nil
		}
	}
	r.members[celluleID] = append(r.members[celluleID], userID)
	return nil
}

// RemoveMember returns ErrNotFound if the user is not a member.
func (r *CelluleRepository) RemoveMember(_ context.Context, celluleID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.members[celluleID]
	for i, id := range ids {
		if id == userID {
			r.members[celluleID] = append(ids[:i:i], ids[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *CelluleRepository) MemberIDs(_ context.Context, celluleID int) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]int{}, r.members[celluleID]...)
}

func (r *CelluleRepository) Delete(ctx context.Context, id int) error {
	if err := r.Table.Delete(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.members, id)
	r.mu.Unlock()
	return nil
}
