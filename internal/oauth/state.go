package oauth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StateStore keeps the short-lived values of the login flow: consent states
// waiting for a callback and one-time exchange codes waiting to be swapped
// for tokens.
type StateStore struct {
	states    sync.Map
	authCodes sync.Map
	now       func() time.Time
}

type authCode struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{now: time.Now}
}

func (s *StateStore) IssueState(ttl time.Duration) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", err
	}
	s.states.Store(state, s.now().Add(ttl))
	return state, nil
}

// ConsumeState reports whether state was issued and has not expired. A state
// can be consumed once.
func (s *StateStore) ConsumeState(state string) bool {
	v, ok := s.states.LoadAndDelete(state)
	if !ok {
		return false
	}
	expiresAt, ok := v.(time.Time)
	return ok && s.now().Before(expiresAt)
}

func (s *StateStore) IssueCode(userID uuid.UUID, ttl time.Duration) (string, error) {
	code, err := GenerateState()
	if err != nil {
		return "", err
	}
	s.authCodes.Store(code, authCode{userID: userID, expiresAt: s.now().Add(ttl)})
	return code, nil
}

func (s *StateStore) ConsumeCode(code string) (uuid.UUID, bool) {
	v, ok := s.authCodes.LoadAndDelete(code)
	if !ok {
		return uuid.Nil, false
	}
	ac, ok := v.(authCode)
	if !ok || !s.now().Before(ac.expiresAt) {
		return uuid.Nil, false
	}
	return ac.userID, true
}

// Purge drops expired states and codes and returns how many were removed.
func (s *StateStore) Purge() int {
	now := s.now()
	removed := 0
	s.states.Range(func(key, value any) bool {
		if expiresAt, ok := value.(time.Time); ok && !now.Before(expiresAt) {
			s.states.Delete(key)
			removed++
		}
		return true
	})
	s.authCodes.Range(func(key, value any) bool {
		if ac, ok := value.(authCode); ok && !now.Before(ac.expiresAt) {
			s.authCodes.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
