package app

import (
	"strings"
	"time"
)

// Operation tracks one CLI invocation. Its ID tags every log line the
// invocation writes.
type Operation struct {
	ID      string
	Name    string
	Args    []string
	Started time.Time
	Status  string // "success" or "error"
}

// NewOperation creates an operation that starts now and succeeds unless failed.
func NewOperation(id, name string, args []string, now time.Time) *Operation {
	return &Operation{
		ID:      id,
		Name:    name,
		Args:    args,
		Started: now,
		Status:  "success",
	}
}

// Fail marks the operation as failed when err is non-nil and returns err.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}

// Succeeded reports whether nothing has failed the operation.
func (op *Operation) Succeeded() bool {
	return op.Status == "success"
}

// Summary renders the operation name and arguments on one line.
func (op *Operation) Summary() string {
	if len(op.Args) == 0 {
		return op.Name
	}
	return op.Name + " " + strings.Join(op.Args, " ")
}
