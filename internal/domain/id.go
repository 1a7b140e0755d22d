package domain

import (
	"github.com/google/uuid"
)

// NewID generates a UUIDv7 string for client-owned identifiers such as
// outbound request ids.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
