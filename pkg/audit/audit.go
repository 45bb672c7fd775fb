package audit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SDID constants for structured data IDs (RFC5424).
// 32473 is the Private Enterprise Number reserved for documentation (RFC 5612).
const (
	SDIDAuth    = "auth@32473"
	SDIDSubject = "subject@32473"
	SDIDAction  = "action@32473"
	SDIDClient  = "client@32473"
)

// AppName is the RFC5424 APP-NAME of every audit message
const AppName = "backend"

// Syslog facility constants
const (
	FacilityAuth     = 4  // LOG_AUTH - security/authorization messages
	FacilityAuthPriv = 10 // LOG_AUTHPRIV - security/authorization messages (private)
)

// Severity levels matching syslog (RFC5424)
type Severity int

const (
	SeverityEmergency Severity = iota // 0
	SeverityAlert                     // 1
	SeverityCritical                  // 2
	SeverityError                     // 3
	SeverityWarning                   // 4
	SeverityNotice                    // 5
	SeverityInfo                      // 6
	SeverityDebug                     // 7
)

// Event represents an audit event
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// Logger writes audit records as RFC5424 syslog lines
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewLogger creates a new audit logger writing to stdout
func NewLogger() *Logger {
	return &Logger{writer: os.Stdout}
}

// SetWriter sets the output writer for the logger
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	l.writer = w
	l.mu.Unlock()
}

// Log writes the event stamped with the current time
func (l *Logger) Log(event Event) {
	l.Write(NewRecord(event, time.Now()))
}

// Write emits one syslog line for the record
func (l *Logger) Write(record Record) {
	line := record.Syslog()

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, line)
}

// formatStructuredData formats the structured data according to RFC5424.
// SD-IDs and parameters are sorted so identical events produce identical lines.
// Format: [sdid param1="value1" param2="value2"][sdid2 ...]
func formatStructuredData(sd map[string]map[string]string) string {
	if len(sd) == 0 {
		return ""
	}

	var parts []string
	for _, sdid := range sortedKeys(sd) {
		params := sd[sdid]
		paramParts := []string{sdid}
		for _, key := range sortedKeys(params) {
			paramParts = append(paramParts, fmt.Sprintf("%s=%s", key, escapeSDValue(params[key])))
		}
		parts = append(parts, "["+strings.Join(paramParts, " ")+"]")
	}
	return strings.Join(parts, "")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// escapeSDValue escapes special characters in structured data values per RFC5424
func escapeSDValue(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "]", "\\]")
	return "\"" + value + "\""
}

// Default logger instance
var DefaultLogger = NewLogger()

// DefaultStore persists records; nil when AUDIT_DATABASE_URL is unset
var DefaultStore *Store

var (
	enabledMu     sync.RWMutex
	auditEnabled  = true
	storeInitOnce sync.Once
)

// IsEnabled returns whether audit logging is enabled
func IsEnabled() bool {
	enabledMu.RLock()
	defer enabledMu.RUnlock()
	return auditEnabled
}

// SetEnabled turns audit logging on or off
func SetEnabled(enabled bool) {
	enabledMu.Lock()
	auditEnabled = enabled
	enabledMu.Unlock()
}

// Log writes an event to the default logger and store (if audit is enabled)
func Log(event Event) {
	if !IsEnabled() {
		return
	}
	record := NewRecord(event, time.Now())
	DefaultLogger.Write(record)

	storeInitOnce.Do(func() {
		var err error
		DefaultStore, err = NewStore()
		if err != nil {
			log.Error().Err(err).Msg("Failed to connect to audit database")
		}
	})

	if DefaultStore != nil {
		if err := DefaultStore.Save(record); err != nil {
			log.Error().Err(err).Str("msgid", event.MessageID()).Msg("Failed to save audit event")
		}
	}
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
