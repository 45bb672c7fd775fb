package audit

import (
	"fmt"
	"os"
	"time"
)

var (
	processHostname, _ = os.Hostname()
	processID          = os.Getpid()
)

// Record is one rendered audit event. The syslog line and the
// audit_messages row are both produced from it, so they agree on every field.
type Record struct {
	Facility  int
	Severity  Severity
	Timestamp time.Time
	Hostname  string
	ProcID    int
	MsgID     string
	SData     map[string]map[string]string
	Message   string
}

// NewRecord captures the event as of now, attributed to this process
func NewRecord(event Event, now time.Time) Record {
	return Record{
		Facility:  event.Facility(),
		Severity:  event.Severity(),
		Timestamp: now.UTC(),
		Hostname:  processHostname,
		ProcID:    processID,
		MsgID:     event.MessageID(),
		SData:     event.StructuredData(),
		Message:   event.Message(),
	}
}

// Priority is the RFC5424 PRI value
func (r Record) Priority() int {
	return r.Facility*8 + int(r.Severity)
}

// Syslog renders the record as one RFC5424 line, newline included.
// Format: <PRI>VERSION TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (r Record) Syslog() string {
	sd := formatStructuredData(r.SData)
	if sd == "" {
		sd = "-"
	}
	hostname := r.Hostname
	if hostname == "" {
		hostname = "-"
	}

	return fmt.Sprintf("<%d>1 %s %s %s %d %s %s %s\n",
		r.Priority(),
		r.Timestamp.Format("2006-01-02T15:04:05.000Z"),
		hostname,
		AppName,
		r.ProcID,
		r.MsgID,
		sd,
		r.Message,
	)
}
