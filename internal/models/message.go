// ABOUTME: Message and Conversation types exchanged between user, router, and workers
// ABOUTME: Conversation is append-only and copied whenever it crosses an ownership boundary
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// Message is a single entry in a conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name is the producer of the message (a worker name), empty for the user
	Name string `json:"name,omitempty"`
}

// Validate checks the invariants every appended message must satisfy
func (m Message) Validate() error {
	if !m.Role.IsValid() {
		return fmt.Errorf("invalid message role %q", m.Role)
	}
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("message content cannot be empty")
	}
	return nil
}

// Conversation is an ordered, append-only message log.
// The zero value is an empty conversation ready to use.
type Conversation struct {
	messages []Message
}

// NewConversation starts a conversation with a single user message
func NewConversation(query string) (Conversation, error) {
	var c Conversation
	if err := c.Append(Message{Role: RoleUser, Content: query}); err != nil {
		return Conversation{}, err
	}
	return c, nil
}

// Append validates and appends msg
func (c *Conversation) Append(msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	c.messages = append(c.messages, msg)
	return nil
}

// Len returns the number of messages
func (c Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of the message log
func (c Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Clone returns a conversation that shares no backing storage with c
func (c Conversation) Clone() Conversation {
	return Conversation{messages: c.Messages()}
}

// Last returns the most recent message, if any
func (c Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastAssistant returns the most recent assistant-authored message, if any
func (c Conversation) LastAssistant() (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			return c.messages[i], true
		}
	}
	return Message{}, false
}
