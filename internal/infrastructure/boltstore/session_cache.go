package boltstore

import "github.com/fastygo/taskflow/domain"

const currentSessionKey = "session/current"

// SessionCache persists the signed-in session between CLI runs, the way a
// browser client keeps it in local storage. Tasks are never persisted.
type SessionCache struct {
	store *Store
}

func NewSessionCache(store *Store) *SessionCache {
	return &SessionCache{store: store}
}

func (c *SessionCache) Load() (*domain.Session, error) {
	var s domain.Session
	found, err := c.store.Get(currentSessionKey, &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (c *SessionCache) Save(s *domain.Session) error {
	if s == nil {
		return c.Clear()
	}
	return c.store.Put(currentSessionKey, s)
}

func (c *SessionCache) Clear() error {
	return c.store.Delete(currentSessionKey)
}
