package stores

import (
	"context"
	"net/http"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/types"
)

// EventStore caches events. Create and update are multipart so that an
// image can travel with the fields.
type EventStore struct {
	*Resource[types.Event]
}

func NewEventStore(deps Deps) *EventStore {
	return &EventStore{NewResource(deps, ResourceConfig[types.Event]{
		Path:         "/API/events",
		ListKey:      "event",
		ItemKey:      "event",
		UpdateMethod: http.MethodPatch,
		ID:           func(e types.Event) int { return e.ID },
		Messages: Messages{
			Fetch:  "Failed to load events",
			Create: "Failed to create event",
			Update: "Failed to update event",
			Delete: "Failed to delete event",
		},
	})}
}

// Registrations lists who signed up for the event.
func (s *EventStore) Registrations(ctx context.Context, eventID int) ([]types.Registration, error) {
	req := apiclient.Request{Method: http.MethodGet, Path: s.itemPath(eventID) + "/registrations"}
	resp, err := s.call(ctx, req, "Failed to load registrations")
	if err != nil {
		return nil, err
	}
	regs, _, err := apiclient.DecodeKey[[]types.Registration](resp.Body, "registrations")
	if err != nil {
		return nil, err
	}
	return regs, nil
}
