// Package model defines the core domain types for the activity signup service.
package model

import "time"

// Activity is an extracurricular offering and its current roster.
// The name is the registry key and is not part of the JSON body.
type Activity struct {
	Description     string   `json:"description" yaml:"description"`
	Schedule        string   `json:"schedule" yaml:"schedule"`
	MaxParticipants int      `json:"max_participants" yaml:"max_participants"`
	Participants    []string `json:"participants" yaml:"participants"`
}

// Clone returns a deep copy of the activity.
func (a Activity) Clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}

// IsFull returns true when the roster has reached max_participants.
func (a *Activity) IsFull() bool {
	return len(a.Participants) >= a.MaxParticipants
}

// Has reports whether email is on the roster.
func (a *Activity) Has(email string) bool {
	for _, p := range a.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// SeedActivity is one entry of a seed document. It carries the name
// explicitly so the document keeps a stable order.
type SeedActivity struct {
	Name     string `yaml:"name"`
	Activity `yaml:",inline"`
}

// Seed is the document the registry is initialised from.
type Seed struct {
	Activities []SeedActivity `yaml:"activities"`
}

// RosterAction names a roster mutation.
type RosterAction string

const (
	ActionSignup     RosterAction = "signup"
	ActionUnregister RosterAction = "unregister"
)

// RosterChange is a journal entry for a single successful roster mutation.
type RosterChange struct {
	ID       string       `json:"id"`
	Activity string       `json:"activity"`
	Email    string       `json:"email"`
	Action   RosterAction `json:"action"`
	At       time.Time    `json:"at"`
}

// MessageResponse is the success envelope for roster mutations.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
