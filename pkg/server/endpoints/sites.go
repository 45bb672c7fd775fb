package endpoints

import (
	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server"
)

// RegisterSitesEndpoints registers the /sites/ resource, addressed by slug
func RegisterSitesEndpoints(s *server.Server) {
	registerResource[model.Site](s, "site", "/sites/", s.SitesStore)
}
