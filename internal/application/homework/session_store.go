package homework

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSessionCacheSize is used when the configured size is not positive.
const DefaultSessionCacheSize = 512

// SessionStore keeps the most recently used sessions. Evicted sessions are closed.
type SessionStore struct {
	cache *lru.Cache[string, *Session]
}

func NewSessionStore(size int) (*SessionStore, error) {
	if size <= 0 {
		size = DefaultSessionCacheSize
	}
	cache, err := lru.NewWithEvict[string, *Session](size, func(_ string, s *Session) {
		s.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	return &SessionStore{cache: cache}, nil
}

func (st *SessionStore) Put(s *Session) {
	st.cache.Add(s.ID, s)
}

// Get returns the owner's session; another owner's session looks absent.
func (st *SessionStore) Get(ownerID, id string) (*Session, error) {
	s, ok := st.cache.Get(id)
	if !ok || s.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes and forgets the session.
func (st *SessionStore) Remove(ownerID, id string) error {
	s, err := st.Get(ownerID, id)
	if err != nil {
		return err
	}
	st.cache.Remove(id)
	s.Close()
	return nil
}

func (st *SessionStore) Len() int { return st.cache.Len() }

// Purge closes every session, used on shutdown.
func (st *SessionStore) Purge() { st.cache.Purge() }
