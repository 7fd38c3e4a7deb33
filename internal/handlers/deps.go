package handlers

import (
	"time"

	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/storage"
	"github.com/cellhub/admin/internal/store"
)

// Deps are shared by the resource handlers.
type Deps struct {
	Store *store.Store
	// Files keeps uploaded images and documents.
	Files *storage.Storage
	Log   logger.Logger
	Now   func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
