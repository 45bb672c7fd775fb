// Package config provides configuration management for the backend.
//
// Configuration is read from ${BACKEND_CONFIG_PATH:-/etc/backend/config}/backend.yml
// and then overridden by environment variables named BACKEND_<ATTRIBUTE>,
// e.g. BACKEND_SESSION_TTL. Every attribute remembers whether its value came
// from the defaults, the file or the environment.
//
// # Key Configuration Options
//
//   - session_ttl, session_idle_timeout: session lifetimes in seconds
//   - session_store: gorm, redis or memory
//   - login_rate_limit, login_rate_burst: per client login throttling
//   - seed_user_*: the user ensured at startup
//   - log_level, log_file: logging
//
// DATABASE_URL is read by pkg/db and is not part of this package.
package config
