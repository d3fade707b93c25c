// Package model defines the scouting domain: templates, records, and the
// tagged field values that flow between clients and the store.
package model

import "fmt"

// Kind selects which template section a record is authored against.
type Kind string

const (
	KindPit   Kind = "pit"
	KindMatch Kind = "match"
)

// Kinds lists every record kind in a stable order.
var Kinds = []Kind{KindPit, KindMatch}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k Kind) IsValid() bool {
	switch k {
	case KindPit, KindMatch:
		return true
	}
	return false
}

// ParseKind converts s into a Kind, rejecting unknown values.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown record kind %q", s)
	}
	return k, nil
}
