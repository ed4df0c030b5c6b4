package model

import "time"

// SessionID is a short human-readable code identifying one player's session
type SessionID string

// Session is a single-player slot holding the pending registration for its game
type Session struct {
	ID           SessionID     `json:"id"`
	Registration *Registration `json:"registration,omitempty"` // nil until a valid registration is submitted
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Registered reports whether the session has a registration to start a game with
func (s *Session) Registered() bool {
	return s.Registration != nil
}

// Clone returns a copy that shares no memory with s
func (s *Session) Clone() *Session {
	c := *s
	if s.Registration != nil {
		reg := *s.Registration
		c.Registration = &reg
	}
	return &c
}
