package audit

import "fmt"

// SessionEvent records a login or logout
type SessionEvent struct {
	Email        string
	ClientIP     string
	Operation    Operation
	Success      bool
	ErrorMessage string
}

func (e SessionEvent) MessageID() string {
	return "session"
}

func (e SessionEvent) Message() string {
	verb := "logged in"
	if e.Operation == OperationLogout {
		verb = "logged out"
	}
	who := e.Email
	if who == "" {
		who = "anonymous"
	}
	if e.Success {
		return fmt.Sprintf("%s %s", who, verb)
	}
	msg := fmt.Sprintf("%s failed to %s", who, e.Operation)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e SessionEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e SessionEvent) Facility() int {
	return FacilityAuth
}

func (e SessionEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation.String(),
			"result":    result(e.Success),
		},
	}
	if e.Email != "" {
		sd[SDIDAuth] = map[string]string{"user": e.Email}
	}
	return sd
}
