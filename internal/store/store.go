// ABOUTME: Transcript data types for foundry-agent persistence
// ABOUTME: A thread is one conversation context; an exchange is one message and its reply

package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Thread summarizes one recorded conversation context.
type Thread struct {
	ID            string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExchangeCount int
}

// Exchange is one user message and the reply the agent gave.
type Exchange struct {
	ID        string
	ThreadID  string
	Command   string // agent.Command name, e.g. "passthrough"
	UserText  string
	Reply     string
	CreatedAt time.Time
}
