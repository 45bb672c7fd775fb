package endpoints

import (
	"github.com/projectbackend/backend/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)
	RegisterSessionEndpoints(srv)
	RegisterSitesEndpoints(srv)
	RegisterUsersEndpoints(srv)
}
