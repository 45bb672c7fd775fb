// Command backendctl runs the sites and users REST backend.
//
// The backend stores sites and users in PostgreSQL and guards every mutating
// request with a session token obtained from POST /session/login.
//
// # Quick Start
//
//	# Run database migrations
//	backendctl db migrate
//
//	# Create a user
//	BACKEND_USER_PASSWORD=secret backendctl user create ada@example.com Ada
//
//	# Start the server
//	backendctl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - AUDIT_DATABASE_URL: optional PostgreSQL connection string for the audit trail
//   - BACKEND_CONFIG_PATH: directory holding backend.yml
//   - BACKEND_<ATTRIBUTE>: overrides any configuration attribute, e.g. BACKEND_SESSION_TTL
//   - PORT: Server port (default: 8000)
//   - BIND_ADDRESS: Server bind address (default: 0.0.0.0)
package main
