package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/internal/session"
	"github.com/cellhub/admin/internal/stores"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

// backend is a canned API keyed by "METHOD /path".
type backend struct {
	mu     sync.Mutex
	hits   map[string]int
	routes map[string]http.HandlerFunc
}

func newBackend() *backend {
	return &backend{hits: map[string]int{}, routes: map[string]http.HandlerFunc{}}
}

func (b *backend) json(method, path string, status int, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (b *backend) raw(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

func (b *backend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.hits[key]++
	h, ok := b.routes[key]
	b.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
		return
	}
	h(w, r)
}

func (b *backend) deps(t *testing.T) stores.Deps {
	t.Helper()
	ts := httptest.NewServer(b)
	t.Cleanup(ts.Close)

	tokens := session.NewMemory()
	require.NoError(t, tokens.SetToken("tok"))
	client, err := apiclient.New(ts.URL, tokens)
	require.NoError(t, err)
	return stores.Deps{API: client, Now: func() time.Time { return testNow }}
}
