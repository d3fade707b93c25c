package engine

import (
	"errors"
	"fmt"
)

// ErrContention is wrapped in a StoreError when an upsert keeps losing
// compare-and-swap races against other writers.
var ErrContention = errors.New("too much write contention")

// StoreError reports a failed store operation. Its message is safe to show
// clients; the wrapped error carries driver detail for server-side logs.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s", e.Op)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
