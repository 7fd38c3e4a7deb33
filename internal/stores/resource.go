package stores

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/internal/logger"
	"github.com/pkg/errors"
)

// API is the slice of the HTTP client the stores depend on.
type API interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
}

// Deps are the collaborators shared by every store.
type Deps struct {
	API    API
	Logger logger.Logger
	Now    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logger.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// State is a point-in-time copy of a store. Version increases on every
// change to Items; FetchedAt is the time of the last successful fetch.
type State[T any] struct {
	Items     []T
	Loading   bool
	Err       string
	FetchedAt time.Time
	Version   uint64
}

// Messages are the fallback texts recorded when the server gives none.
type Messages struct {
	Fetch  string
	Create string
	Update string
	Delete string
}

// ResourceConfig describes one REST collection.
type ResourceConfig[T any] struct {
	// Path is the collection path, e.g. /API/events.
	Path string
	// ListKey is the response key holding the list on GET.
	ListKey string
	// ItemKey is the response key holding the entity on POST and
	// PUT/PATCH. Empty means the whole body.
	ItemKey string
	// UpdateMethod defaults to PUT.
	UpdateMethod string
	ID           func(T) int
	Messages     Messages
}

// Resource is a cache of one resource type kept in line with the
// server. Items only change after the matching call succeeded.
type Resource[T any] struct {
	cfg  ResourceConfig[T]
	deps Deps

	mu       sync.RWMutex
	state    State[T]
	inflight int
}

// NewResource builds a Resource. Most callers use the typed stores.
func NewResource[T any](deps Deps, cfg ResourceConfig[T]) *Resource[T] {
	if cfg.UpdateMethod == "" {
		cfg.UpdateMethod = http.MethodPut
	}
	return &Resource[T]{cfg: cfg, deps: deps.withDefaults()}
}

// Snapshot returns a copy of the current state.
func (r *Resource[T]) Snapshot() State[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.state
	out.Items = append([]T(nil), r.state.Items...)
	return out
}

// Items returns a copy of the cached entities.
func (r *Resource[T]) Items() []T {
	return r.Snapshot().Items
}

// Find returns the cached entity with the given id.
func (r *Resource[T]) Find(id int) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.state.Items {
		if r.cfg.ID(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Err returns the last recorded error message.
func (r *Resource[T]) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Err
}

// ClearError drops the recorded error message.
func (r *Resource[T]) ClearError() {
	r.mu.Lock()
	r.state.Err = ""
	r.mu.Unlock()
}

// Stale reports whether the cache was never fetched or is older than
// maxAge.
func (r *Resource[T]) Stale(maxAge time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state.FetchedAt.IsZero() {
		return true
	}
	return r.deps.Now().Sub(r.state.FetchedAt) > maxAge
}

// FetchAll replaces the cache with the server's list. On failure the
// message is recorded and the error returned; Items stay untouched.
func (r *Resource[T]) FetchAll(ctx context.Context) error {
	r.begin()
	defer r.end()

	resp, err := r.deps.API.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: r.cfg.Path})
	if err != nil {
		return r.fail(err, r.cfg.Messages.Fetch)
	}
	items, _, err := apiclient.DecodeKey[[]T](resp.Body, r.cfg.ListKey)
	if err != nil {
		return r.fail(err, r.cfg.Messages.Fetch)
	}
	if items == nil {
		items = []T{}
	}

	r.mu.Lock()
	r.state.Items = items
	r.state.FetchedAt = r.deps.Now()
	r.state.Version++
	r.mu.Unlock()
	return nil
}

// Create posts payload and appends the entity the server returns. An
// entity already cached under the same id is replaced instead.
func (r *Resource[T]) Create(ctx context.Context, payload apiclient.Payload) (T, error) {
	var zero T
	r.begin()
	defer r.end()

	resp, err := r.deps.API.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: r.cfg.Path, Payload: payload})
	if err != nil {
		return zero, r.fail(err, r.cfg.Messages.Create)
	}
	created, present, err := apiclient.DecodeKey[T](resp.Body, r.cfg.ItemKey)
	if err == nil && !present {
		err = errors.Errorf("response has no %q entity", r.cfg.ItemKey)
	}
	if err != nil {
		return zero, r.fail(err, r.cfg.Messages.Create)
	}

	r.mu.Lock()
	items := append([]T(nil), r.state.Items...)
	id := r.cfg.ID(created)
	replaced := false
	for i, item := range items {
		if r.cfg.ID(item) == id {
			items[i] = created
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, created)
	}
	r.state.Items = items
	r.state.Version++
	r.mu.Unlock()
	return created, nil
}

// Update sends payload to the entity and merges the returned fields
// over the cached copy. Fields the server leaves out keep their cached
// values; other entities are not touched.
func (r *Resource[T]) Update(ctx context.Context, id int, payload apiclient.Payload) (T, error) {
	var zero T
	r.begin()
	defer r.end()

	resp, err := r.deps.API.Do(ctx, apiclient.Request{Method: r.cfg.UpdateMethod, Path: r.itemPath(id), Payload: payload})
	if err != nil {
		return zero, r.fail(err, r.cfg.Messages.Update)
	}
	raw, present, err := apiclient.DecodeKey[json.RawMessage](resp.Body, r.cfg.ItemKey)
	if err != nil {
		return zero, r.fail(err, r.cfg.Messages.Update)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.state.Items {
		if r.cfg.ID(item) != id {
			continue
		}
		merged := item
		if present {
			if err := json.Unmarshal(raw, &merged); err != nil {
				r.state.Err = fallbackMessage(err, r.cfg.Messages.Update)
				return zero, errors.Wrap(err, "merge updated entity")
			}
		}
		items := append([]T(nil), r.state.Items...)
		items[i] = merged
		r.state.Items = items
		r.state.Version++
		return merged, nil
	}

	var updated T
	if present {
		if err := json.Unmarshal(raw, &updated); err != nil {
			return zero, errors.Wrap(err, "decode updated entity")
		}
	}
	return updated, nil
}

// Delete removes the entity on the server, then from the cache.
func (r *Resource[T]) Delete(ctx context.Context, id int) error {
	r.begin()
	defer r.end()

	if _, err := r.deps.API.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: r.itemPath(id)}); err != nil {
		return r.fail(err, r.cfg.Messages.Delete)
	}
	r.remove(id)
	return nil
}

func (r *Resource[T]) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]T, 0, len(r.state.Items))
	for _, item := range r.state.Items {
		if r.cfg.ID(item) != id {
			items = append(items, item)
		}
	}
	r.state.Items = items
	r.state.Version++
}

// patch applies fn to the cached entity with the given id.
func (r *Resource[T]) patch(id int, fn func(*T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.state.Items {
		if r.cfg.ID(item) != id {
			continue
		}
		items := append([]T(nil), r.state.Items...)
		fn(&items[i])
		r.state.Items = items
		r.state.Version++
		return
	}
}

// call runs a request that is not a plain collection operation, with
// the same loading and error bookkeeping.
func (r *Resource[T]) call(ctx context.Context, req apiclient.Request, fallback string) (*apiclient.Response, error) {
	r.begin()
	defer r.end()

	resp, err := r.deps.API.Do(ctx, req)
	if err != nil {
		return nil, r.fail(err, fallback)
	}
	return resp, nil
}

func (r *Resource[T]) itemPath(id int) string {
	return r.cfg.Path + "/" + strconv.Itoa(id)
}

// begin marks an operation in flight. Loading stays on until the last
// concurrent operation ends.
func (r *Resource[T]) begin() {
	r.mu.Lock()
	r.inflight++
	r.state.Loading = true
	r.state.Err = ""
	r.mu.Unlock()
}

func (r *Resource[T]) end() {
	r.mu.Lock()
	r.inflight--
	r.state.Loading = r.inflight > 0
	r.mu.Unlock()
}

func (r *Resource[T]) fail(err error, fallback string) error {
	msg := fallbackMessage(err, fallback)
	r.deps.Logger.Error(msg, err)

	r.mu.Lock()
	r.state.Err = msg
	r.mu.Unlock()
	return err
}

func fallbackMessage(err error, fallback string) string {
	if fallback == "" {
		fallback = "request failed"
	}
	return apiclient.MessageOf(err, fallback)
}
