package domain

import "strings"

// Operation is the verb carried in the envelope context.
type Operation string

// Built-in operations understood by every controller resource.
const (
	OpCreate  Operation = "CREATE"
	OpUpdate  Operation = "UPDATE"
	OpDelete  Operation = "DELETE"
	OpRead    Operation = "READ"
	OpReadAll Operation = "READALL"
)

// ParseOperation normalizes a custom operation string. Custom operations are
// sent upper-cased, exactly as the built-in ones.
func ParseOperation(s string) Operation {
	return Operation(strings.ToUpper(strings.TrimSpace(s)))
}

// String returns the wire form of the operation.
func (o Operation) String() string {
	return string(o)
}

// IsBuiltin reports whether o is one of the five standard operations.
func (o Operation) IsBuiltin() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete, OpRead, OpReadAll:
		return true
	}
	return false
}
