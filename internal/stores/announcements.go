package stores

import (
	"sync"

	"github.com/cellhub/admin/types"
)

// AnnouncementStore caches announcements. Payloads are JSON.
type AnnouncementStore struct {
	*Resource[types.Announcement]

	selectedMu sync.RWMutex
	selected   *types.Announcement
}

func NewAnnouncementStore(deps Deps) *AnnouncementStore {
	return &AnnouncementStore{Resource: NewResource(deps, ResourceConfig[types.Announcement]{
		Path:    "/API/announcements",
		ListKey: "announcements",
		ItemKey: "announcement",
		ID:      func(a types.Announcement) int { return a.ID },
		Messages: Messages{
			Fetch:  "Failed to load announcements",
			Create: "Failed to add announcement",
			Update: "Failed to update announcement",
			Delete: "Failed to delete announcement",
		},
	})}
}

// Select remembers an announcement for a detail or edit view. nil
// clears the selection.
func (s *AnnouncementStore) Select(a *types.Announcement) {
	s.selectedMu.Lock()
	defer s.selectedMu.Unlock()
	if a == nil {
		s.selected = nil
		return
	}
	copied := *a
	s.selected = &copied
}

func (s *AnnouncementStore) Selected() *types.Announcement {
	s.selectedMu.RLock()
	defer s.selectedMu.RUnlock()
	return s.selected
}
