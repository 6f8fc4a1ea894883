package assistant

import (
	"sync"

	"defi-assistant/models"
)

// Conversation is the context sent to the LLM for one session: the persona,
// the durable user/assistant history and, only while a turn is in flight,
// the ephemeral system entries gathered for that turn.
//
// A turn holds mu from enrichment until settling so that turns on the same
// session never interleave.
type Conversation struct {
	mu       sync.Mutex
	persona  models.ChatMessage
	entries  []models.ChatMessage
	maxTurns int
}

// NewConversation creates a conversation that keeps at most maxTurns user/assistant pairs
func NewConversation(persona string, maxTurns int) *Conversation {
	return &Conversation{
		persona:  models.SystemMessage(persona),
		maxTurns: maxTurns,
	}
}

// Len returns the number of entries including the persona
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.length()
}

// Messages returns a copy of the full context, persona first
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Conversation) length() int {
	return 1 + len(c.entries)
}

func (c *Conversation) snapshot() []models.ChatMessage {
	out := make([]models.ChatMessage, 0, c.length())
	out = append(out, c.persona)
	return append(out, c.entries...)
}

func (c *Conversation) push(msg models.ChatMessage) {
	c.entries = append(c.entries, msg)
}

// pop removes the n most recent entries, newest first
func (c *Conversation) pop(n int) {
	for ; n > 0 && len(c.entries) > 0; n-- {
		c.entries[len(c.entries)-1] = models.ChatMessage{}
		c.entries = c.entries[:len(c.entries)-1]
	}
}

// trim drops the oldest user/assistant pairs beyond maxTurns
func (c *Conversation) trim() {
	if c.maxTurns <= 0 {
		return
	}
	excess := len(c.entries) - 2*c.maxTurns
	if excess <= 0 {
		return
	}
	kept := make([]models.ChatMessage, len(c.entries)-excess)
	copy(kept, c.entries[excess:])
	c.entries = kept
}
