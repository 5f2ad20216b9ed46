package domain

import (
	"strings"

	"github.com/google/uuid"
)

// KeyGenerator produces process-unique node keys.
type KeyGenerator func() string

// NewKey returns a fresh 12-character node key.
func NewKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
