package stores

import (
	"context"
	"net/http"
	"sync"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/types"
)

const defaultDocumentName = "document.pdf"

// DocumentStore caches uploaded documents and the one currently open
// for preview.
type DocumentStore struct {
	*Resource[types.Document]

	currentMu sync.RWMutex
	current   *types.Blob
}

func NewDocumentStore(deps Deps) *DocumentStore {
	return &DocumentStore{Resource: NewResource(deps, ResourceConfig[types.Document]{
		Path:    "/API/documents",
		ListKey: "documents",
		ID:      func(d types.Document) int { return d.ID },
		Messages: Messages{
			Fetch:  "Failed to load documents",
			Create: "Failed to upload document",
			Delete: "Failed to delete document",
		},
	})}
}

// Upload sends a document form. The server answers with the document
// itself, not an envelope.
func (s *DocumentStore) Upload(ctx context.Context, form *apiclient.MultipartPayload) (types.Document, error) {
	return s.Create(ctx, form)
}

// Open downloads the document content and makes it current.
func (s *DocumentStore) Open(ctx context.Context, id int) (*types.Blob, error) {
	blob, err := s.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	s.currentMu.Lock()
	s.current = blob
	s.currentMu.Unlock()
	return blob, nil
}

// Download fetches the document content without making it current.
func (s *DocumentStore) Download(ctx context.Context, id int) (*types.Blob, error) {
	resp, err := s.call(ctx, apiclient.Request{Method: http.MethodGet, Path: s.itemPath(id)}, "Unable to display document")
	if err != nil {
		return nil, err
	}
	raw := apiclient.ReadBlob(resp, defaultDocumentName)
	return &types.Blob{
		DocumentID:  id,
		Filename:    raw.Filename,
		ContentType: raw.ContentType,
		Data:        raw.Data,
	}, nil
}

// Current returns the open document, or nil.
func (s *DocumentStore) Current() *types.Blob {
	s.currentMu.RLock()
	defer s.currentMu.RUnlock()
	return s.current
}

// CloseDocument drops the open document.
func (s *DocumentStore) CloseDocument() {
	s.currentMu.Lock()
	s.current = nil
	s.currentMu.Unlock()
}
