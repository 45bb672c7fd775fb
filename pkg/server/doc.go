// Package server provides the HTTP server for the backend API.
//
// It uses gorilla/mux for routing and gorilla/handlers for access logging
// and panic recovery. Every request is counted by the Prometheus middleware.
//
// # Server Setup
//
//	srv := server.NewServer(server.Deps{
//	    Config:   cfg,
//	    Sites:    sites,
//	    Users:    users,
//	    Health:   health,
//	    Sessions: sessions,
//	}, "0.0.0.0", "8000")
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - /sites/ and /users/ - CRUD resources, mutations need a session
//   - /session/login, /session/logout, /session/verify - session lifecycle
//   - /, /health, /metrics - operational endpoints
package server
