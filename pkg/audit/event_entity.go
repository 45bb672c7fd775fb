package audit

import "fmt"

// EntityEvent records a create, update or delete of a site or user
type EntityEvent struct {
	UserKey      int
	ClientIP     string
	Entity       string
	Key          string
	Operation    Operation
	Success      bool
	ErrorMessage string
}

func (e EntityEvent) MessageID() string {
	return e.Entity
}

func (e EntityEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("user %d %sd %s %s", e.UserKey, e.Operation, e.Entity, e.Key)
	}
	msg := fmt.Sprintf("user %d tried to %s %s %s", e.UserKey, e.Operation, e.Entity, e.Key)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e EntityEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e EntityEvent) Facility() int {
	return FacilityAuthPriv
}

func (e EntityEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": fmt.Sprintf("%d", e.UserKey),
		},
		SDIDSubject: {
			e.Entity: e.Key,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation.String(),
			"result":    result(e.Success),
		},
	}
}
