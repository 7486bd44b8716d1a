package types

import (
	"time"

	"github.com/google/uuid"
)

// Run describes one recorded conversion.
type Run struct {
	ID        string
	Input     string
	CreatedAt time.Time
	Files     int
}

// NewRun creates a run with a fresh random ID.
func NewRun(input string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Input:     input,
		CreatedAt: time.Now().UTC(),
	}
}
