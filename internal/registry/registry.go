// Package registry holds the in-memory activity catalogue and the rosters
// students sign up to.
//
// All state lives behind a single RWMutex: reads share the lock, and every
// roster mutation runs inside one critical section, so at most one mutation
// is in flight at any time.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mergington/activities/internal/model"
)

// ErrUnknownActivity is returned when the requested activity does not exist.
var ErrUnknownActivity = errors.New("activity not found")

// ErrParticipantNotRegistered is returned when unregistering an email that is
// not on the activity's roster.
var ErrParticipantNotRegistered = errors.New("participant not registered for activity")

// ErrActivityFull is returned when capacity enforcement is on and the roster
// has reached max_participants.
var ErrActivityFull = errors.New("activity is full")

// ErrAlreadyRegistered is returned when duplicate rejection is on and the
// email is already on the roster.
var ErrAlreadyRegistered = errors.New("email already registered for this activity")

// Rejection reasons reported to the Recorder.
const (
	ReasonUnknownActivity = "unknown_activity"
	ReasonNotRegistered   = "not_registered"
	ReasonFull            = "full"
	ReasonDuplicate       = "duplicate"
)

// Policy switches the optional signup checks. The zero value accepts every
// signup for a known activity.
type Policy struct {
	EnforceCapacity  bool
	RejectDuplicates bool
}

// Recorder observes roster activity. Calls are made while the registry lock
// is held and must not call back into the registry.
type Recorder interface {
	ObserveRoster(activity string, participants int)
	ObserveChange(activity string, action model.RosterAction)
	ObserveRejection(action model.RosterAction, reason string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRoster(string, int) {}
func (nopRecorder) ObserveChange(string, model.RosterAction) {}
func (nopRecorder) ObserveRejection(model.RosterAction, string) {}

// Option configures a Registry.
type Option func(*Registry)

// WithPolicy sets the signup policy.
func WithPolicy(p Policy) Option {
	return func(r *Registry) {
		r.policy = p
	}
}

// WithRecorder attaches a Recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithClock overrides the time source used for journal entries.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// Registry is the store of all activities, keyed by name.
type Registry struct {
	mu         sync.RWMutex
	seed       model.Seed
	activities map[string]*model.Activity
	journal    []model.RosterChange

	policy   Policy
	recorder Recorder
	now      func() time.Time
}

// New builds a Registry populated from seed.
func New(seed model.Seed, opts ...Option) (*Registry, error) {
	if err := validateSeed(seed); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}

	r := &Registry{
		seed:     seed,
		recorder: nopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}

	r.mu.Lock()
	r.resetLocked()
	r.mu.Unlock()
	return r, nil
}

// Reset discards all roster changes and restores the seed state.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

func (r *Registry) resetLocked() {
	r.activities = make(map[string]*model.Activity, len(r.seed.Activities))
	for _, s := range r.seed.Activities {
		a := s.Activity.Clone()
		r.activities[s.Name] = &a
		r.recorder.ObserveRoster(s.Name, len(a.Participants))
	}
	r.journal = nil
}

// Activities returns a deep copy of every activity keyed by name.
func (r *Registry) Activities() map[string]model.Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]model.Activity, len(r.activities))
	for name, a := range r.activities {
		out[name] = a.Clone()
	}
	return out
}

// Signup appends email to the activity's roster.
func (r *Registry) Signup(name, email string) (model.RosterChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		r.recorder.ObserveRejection(model.ActionSignup, ReasonUnknownActivity)
		return model.RosterChange{}, fmt.Errorf("%w: %s", ErrUnknownActivity, name)
	}
	if r.policy.RejectDuplicates && a.Has(email) {
		r.recorder.ObserveRejection(model.ActionSignup, ReasonDuplicate)
		return model.RosterChange{}, fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	if r.policy.EnforceCapacity && a.IsFull() {
		r.recorder.ObserveRejection(model.ActionSignup, ReasonFull)
		return model.RosterChange{}, fmt.Errorf("%w: %s", ErrActivityFull, name)
	}

	a.Participants = append(a.Participants, email)
	return r.recordLocked(name, email, model.ActionSignup, len(a.Participants)), nil
}

// Unregister removes the first roster entry equal to email.
func (r *Registry) Unregister(name, email string) (model.RosterChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		r.recorder.ObserveRejection(model.ActionUnregister, ReasonUnknownActivity)
		return model.RosterChange{}, fmt.Errorf("%w: %s", ErrUnknownActivity, name)
	}

	idx := -1
	for i, p := range a.Participants {
		if p == email {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.recorder.ObserveRejection(model.ActionUnregister, ReasonNotRegistered)
		return model.RosterChange{}, fmt.Errorf("%w: %s", ErrParticipantNotRegistered, name)
	}

	a.Participants = append(a.Participants[:idx], a.Participants[idx+1:]...)
	return r.recordLocked(name, email, model.ActionUnregister, len(a.Participants)), nil
}

// History returns the journal entries for one activity, oldest first.
func (r *Registry) History(name string) ([]model.RosterChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.activities[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivity, name)
	}

	out := []model.RosterChange{}
	for _, c := range r.journal {
		if c.Activity == name {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *Registry) recordLocked(name, email string, action model.RosterAction, participants int) model.RosterChange {
	change := model.RosterChange{
		ID:       uuid.New().String(),
		Activity: name,
		Email:    email,
		Action:   action,
		At:       r.now(),
	}
	r.journal = append(r.journal, change)
	r.recorder.ObserveChange(name, action)
	r.recorder.ObserveRoster(name, participants)
	return change
}
