package audit

//go:generate go run github.com/dmarkham/enumer -type Operation -trimprefix Operation -transform lower -json -output operation.gen.go
type Operation int

const (
	OperationCreate Operation = iota
	OperationUpdate
	OperationDelete
	OperationLogin
	OperationLogout
)
