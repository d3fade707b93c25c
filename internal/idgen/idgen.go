// Package idgen generates request and record identifiers.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// RequestPrefix is prepended to every request id.
const RequestPrefix = "req-"

// Alphabet defines the character set used for the random portion of request ids.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters in a request id (excluding the prefix).
const Length = 12

// RequestID returns a short, URL-safe id used to correlate log lines
// with a single HTTP request.
func RequestID() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return RequestPrefix + id, nil
}

// RecordID returns a new random record identity in the canonical UUID
// form scouting clients use.
func RecordID() string {
	return uuid.NewString()
}
