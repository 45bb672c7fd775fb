package gorm

import (
	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server/store"

	"gorm.io/gorm"
)

// Ensure SitesStore implements store.SitesStore
var _ store.SitesStore = (*SitesStore)(nil)

// SitesStore implements store.SitesStore using GORM
type SitesStore struct {
	*EntityStore[model.Site, *model.Site]
}

// NewSitesStore creates a new SitesStore
func NewSitesStore(db *gorm.DB) *SitesStore {
	return &SitesStore{NewEntityStore[model.Site](db, "sites", "slug")}
}
