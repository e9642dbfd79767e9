package kernel

import "github.com/google/uuid"

// UserID identifies an authenticated user
type UserID string

// NewUserID generates a new random user id
func NewUserID() UserID { return UserID(uuid.NewString()) }

// String returns the id as a string
func (id UserID) String() string { return string(id) }

// IsEmpty reports whether the id is unset
func (id UserID) IsEmpty() bool { return id == "" }

// SessionID identifies one chat session (a conversation thread)
type SessionID string

// NewSessionID generates a new random session id
func NewSessionID() SessionID { return SessionID(uuid.NewString()) }

// String returns the id as a string
func (id SessionID) String() string { return string(id) }

// IsEmpty reports whether the id is unset
func (id SessionID) IsEmpty() bool { return id == "" }

// MessageID identifies one assistant message within a session
type MessageID string

// NewMessageID generates a new random message id
func NewMessageID() MessageID { return MessageID("msg-" + uuid.NewString()) }

// String returns the id as a string
func (id MessageID) String() string { return string(id) }
