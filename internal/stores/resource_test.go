package stores

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/internal/session"
	"github.com/cellhub/admin/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves canned responses and counts hits per "METHOD path".
type fakeAPI struct {
	mu     sync.Mutex
	hits   map[string]int
	routes map[string]http.HandlerFunc
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{hits: map[string]int{}, routes: map[string]http.HandlerFunc{}}
}

func (f *fakeAPI) on(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	f.routes[method+" "+path] = h
	f.mu.Unlock()
}

func (f *fakeAPI) json(method, path string, status int, body any) {
	f.on(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func (f *fakeAPI) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[method+" "+path]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.hits[key]++
	h, ok := f.routes[key]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
		return
	}
	h(w, r)
}

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newDeps(t *testing.T, api *fakeAPI) Deps {
	t.Helper()
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	tokens := session.NewMemory()
	require.NoError(t, tokens.SetToken("tok"))
	client, err := apiclient.New(ts.URL, tokens)
	require.NoError(t, err)
	return Deps{API: client, Now: func() time.Time { return fixedNow }}
}

func seedEvents(t *testing.T, api *fakeAPI, events ...types.Event) *EventStore {
	t.Helper()
	api.json(http.MethodGet, "/API/events", http.StatusOK, map[string]any{"event": events})
	store := NewEventStore(newDeps(t, api))
	require.NoError(t, store.FetchAll(context.Background()))
	return store
}

func TestFetchAllReplacesItems(t *testing.T) {
	api := newFakeAPI()
	store := seedEvents(t, api, types.Event{ID: 1, Title: "A"}, types.Event{ID: 2, Title: "B"})

	first := store.Snapshot()
	require.NoError(t, store.FetchAll(context.Background()))
	second := store.Snapshot()

	assert.Equal(t, first.Items, second.Items)
	assert.Len(t, second.Items, 2)
	assert.False(t, second.Loading)
	assert.Empty(t, second.Err)
	assert.Equal(t, fixedNow, second.FetchedAt)
	assert.Greater(t, second.Version, first.Version)
}

func TestFetchAllMissingKeyYieldsEmptyList(t *testing.T) {
	api := newFakeAPI()
	api.json(http.MethodGet, "/API/events", http.StatusOK, map[string]any{})
	store := NewEventStore(newDeps(t, api))

	require.NoError(t, store.FetchAll(context.Background()))
	assert.NotNil(t, store.Items())
	assert.Empty(t, store.Items())
}

func TestFetchAllFailureRecordsMessage(t *testing.T) {
	api := newFakeAPI()
	store := seedEvents(t, api, types.Event{ID: 1})
	api.json(http.MethodGet, "/API/events", http.StatusInternalServerError, map[string]string{"message": "db down"})

	err := store.FetchAll(context.Background())
	require.Error(t, err)

	state := store.Snapshot()
	assert.Equal(t, "db down", state.Err)
	assert.False(t, state.Loading)
	assert.Len(t, state.Items, 1)

	store.ClearError()
	assert.Empty(t, store.Err())
}

func TestFetchAllFallbackMessage(t *testing.T) {
	api := newFakeAPI()
	api.on(http.MethodGet, "/API/events", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	store := NewEventStore(newDeps(t, api))

	require.Error(t, store.FetchAll(context.Background()))
	assert.Equal(t, "Failed to load events", store.Err())
}

func TestCreateAppendsExactlyOnce(t *testing.T) {
	api := newFakeAPI()
	store := seedEvents(t, api, types.Event{ID: 1}, types.Event{ID: 2})
	api.json(http.MethodPost, "/API/events", http.StatusCreated, map[string]any{
		"event": types.Event{ID: 3, Title: "Kickoff"},
	})

	created, err := store.Create(context.Background(), apiclient.NewMultipart().Field("title", "Kickoff"))
	require.NoError(t, err)
	assert.Equal(t, 3, created.ID)

	ids := eventIDs(store.Items())
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestCreateReplacesCachedEntityWithSameID(t *testing.T) {
	api := newFakeAPI()
	store := seedEvents(t, api, types.Event{ID: 1}, types.Event{ID: 3, Title: "old"})
	api.json(http.MethodPost, "/API/events", http.StatusCreated, map[string]any{
		"event": types.Event{ID: 3, Title: "Kickoff"},
	})

	_, err := store.Create(context.Background(), apiclient.NewMultipart().Field("title", "Kickoff"))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, eventIDs(store.Items()))
	found, ok := store.Find(3)
	require.True(t, ok)
	assert.Equal(t, "Kickoff", found.Title)
}

func TestCreateFailureLeavesItems(t *testing.T) {
	api := newFakeAPI()
	store := seedEvents(t, api, types.Event{ID: 1})
	api.json(http.MethodPost, "/API/events", http.StatusBadRequest, map[string]string{"message": "title too short"})

	_, err := store.Create(context.Background(), apiclient.NewMultipart())
	require.Error(t, err)
	assert.Equal(t, "title too short", apiclient.MessageOf(err, ""))
	assert.Equal(t, "title too short", store.Err())
	assert.Equal(t, []int{1}, eventIDs(store.Items()))
}

func TestCreateWithoutEntityIsAnError(t *testing.T) {
	api := newFakeAPI()
	store := seedEvents(t, api)
	api.json(http.MethodPost, "/API/events", http.StatusCreated, map[string]string{"message": "ok"})

	_, err := store.Create(context.Background(), apiclient.NewMultipart())
	require.Error(t, err)
	assert.Empty(t, store.Items())
}

func TestUpdateMergesPartialResponse(t *testing.T) {
	api := newFakeAPI()
	other := types.Event{ID: 2, Title: "Other", Location: "Hall"}
	store := seedEvents(t, api, types.Event{ID: 1, Title: "Old", Location: "Room 1", Type: "workshop"}, other)
	api.on(http.MethodPatch, "/API/events/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"event":{"id":1,"title":"New"}}`))
	})

	updated, err := store.Update(context.Background(), 1, apiclient.NewMultipart().Field("title", "New"))
	require.NoError(t, err)

	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "Room 1", updated.Location)
	assert.Equal(t, "workshop", updated.Type)

	got, ok := store.Find(2)
	require.True(t, ok)
	assert.Equal(t, other, got)
	assert.Len(t, store.Items(), 2)
}

func TestUpdateUnknownIDChangesNothing(t *testing.T) {
	api := newFakeAPI()
	store := seedEvents(t, api, types.Event{ID: 1, Title: "A"})
	before := store.Snapshot()
	api.json(http.MethodPatch, "/API/events/9", http.StatusOK, map[string]any{"event": types.Event{ID: 9}})

	_, err := store.Update(context.Background(), 9, apiclient.NewMultipart())
	require.NoError(t, err)
	assert.Equal(t, before.Items, store.Items())
	assert.Equal(t, before.Version, store.Snapshot().Version)
}

func TestDeleteRemovesOnlyThatID(t *testing.T) {
	api := newFakeAPI()
	store := seedEvents(t, api, types.Event{ID: 1}, types.Event{ID: 2}, types.Event{ID: 3})
	api.json(http.MethodDelete, "/API/events/2", http.StatusOK, map[string]string{"message": "deleted"})

	require.NoError(t, store.Delete(context.Background(), 2))
	assert.Equal(t, []int{1, 3}, eventIDs(store.Items()))
}

func TestDeleteFailureKeepsEntity(t *testing.T) {
	api := newFakeAPI()
	store := seedEvents(t, api, types.Event{ID: 1})

	err := store.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apiclient.StatusOf(err))
	assert.Equal(t, []int{1}, eventIDs(store.Items()))
}

func TestLoadingWhileInFlight(t *testing.T) {
	api := newFakeAPI()
	release := make(chan struct{})
	entered := make(chan struct{})
	api.on(http.MethodGet, "/API/events", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		_, _ = w.Write([]byte(`{"event":[]}`))
	})
	store := NewEventStore(newDeps(t, api))

	done := make(chan error)
	go func() { done <- store.FetchAll(context.Background()) }()

	<-entered
	assert.True(t, store.Snapshot().Loading)
	close(release)
	require.NoError(t, <-done)
	assert.False(t, store.Snapshot().Loading)
}

func TestStale(t *testing.T) {
	api := newFakeAPI()
	store := NewEventStore(newDeps(t, api))
	assert.True(t, store.Stale(time.Hour))

	api.json(http.MethodGet, "/API/events", http.StatusOK, map[string]any{"event": []types.Event{}})
	require.NoError(t, store.FetchAll(context.Background()))
	assert.False(t, store.Stale(time.Hour))
	assert.True(t, store.Stale(-time.Second))
}

func TestRegistrations(t *testing.T) {
	api := newFakeAPI()
	store := NewEventStore(newDeps(t, api))
	api.on(http.MethodGet, "/API/events/4/registrations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"registrations":[{"id":1,"event_id":4,"user":{"user_id":9,"first_name":"Ada"},"status":"registered","registered_at":"2026-03-01T10:00:00Z"}]}`))
	})

	regs, err := store.Registrations(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, 9, regs[0].UserID())
}

func eventIDs(events []types.Event) []int {
	ids := make([]int, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}
