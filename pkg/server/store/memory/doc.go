// Package memory provides in-process implementations of the store
// interfaces. Endpoint and CLI tests run against them instead of PostgreSQL.
package memory
