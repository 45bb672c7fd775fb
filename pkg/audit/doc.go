// Package audit records security-relevant operations as RFC5424 syslog lines.
//
// Every login, logout and entity mutation produces an Event. Log renders
// it once into a Record, writes the syslog line to stdout through
// DefaultLogger and, when AUDIT_DATABASE_URL is set, appends the same
// record to the audit_messages table.
//
// # Usage
//
//	audit.Log(audit.EntityEvent{
//		UserKey:   7,
//		Entity:    "site",
//		Key:       "12",
//		Operation: audit.OperationCreate,
//		Success:   true,
//	})
//
// Logging can be switched off at runtime with SetEnabled.
package audit
