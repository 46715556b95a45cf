// ABOUTME: Thread holds the ordered turns of one conversation
// ABOUTME: Threads are replaced wholesale on clear, never edited in place

package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a thread.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

// Thread is the dialogue context sent to the model with every message.
type Thread struct {
	ID        string
	CreatedAt time.Time

	mu    sync.Mutex
	turns []Turn
}

// NewThread returns an empty thread with a fresh ID.
func NewThread() *Thread {
	return &Thread{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
}

// Turns returns a copy of the thread's turns in order.
func (t *Thread) Turns() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len reports how many turns the thread holds.
func (t *Thread) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}

// appendExchange adds a user turn followed by the assistant's reply.
func (t *Thread) appendExchange(userText, reply string) {
	now := time.Now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns,
		Turn{Role: RoleUser, Text: userText, At: now},
		Turn{Role: RoleAssistant, Text: reply, At: now},
	)
}
