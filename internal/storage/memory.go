package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Memory is an in-process bucket, used by the development server and
// in tests.
type Memory struct {
	bucket string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemory(bucket string) *Memory {
	return &Memory{bucket: bucket, objects: map[string]memoryObject{}}
}

func (m *Memory) EnsureBucket(context.Context) error {
	return nil
}

func (m *Memory) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read object")
	}
	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Bucket() string {
	return m.bucket
}

// ContentType returns the stored content type of key.
func (m *Memory) ContentType(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.contentType, ok
}

// Keys returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
