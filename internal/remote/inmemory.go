package remote

import (
	"context"
	"sync"

	"github.com/cyphero-app/cyphero/internal/common"
)

// InMemoryStore is a Store kept entirely in process memory. It backs tests
// and offline development; it can also simulate an unreachable remote.
type InMemoryStore struct {
	mu          sync.Mutex
	users       map[string]User
	credentials map[string]Credential
	offline     bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:       make(map[string]User),
		credentials: make(map[string]Credential),
	}
}

// SetOffline makes every subsequent call fail with common.ErrorConnectivity.
func (s *InMemoryStore) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

func (s *InMemoryStore) checkOnline() error {
	if s.offline {
		return common.ErrorConnectivity
	}
	return nil
}

func (s *InMemoryStore) GetUser(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (s *InMemoryStore) InsertUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return err
	}
	if _, ok := s.users[u.ID]; ok {
		return common.ErrorAlreadyExists
	}
	s.users[u.ID] = *u
	return nil
}

func (s *InMemoryStore) UpdateUserSecret(_ context.Context, id, passwordHash, saltB64 string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return err
	}
	u, ok := s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.Salt = saltB64
	s.users[id] = u
	return nil
}

func (s *InMemoryStore) ListCredentials(_ context.Context, userID string) ([]Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}
	var result []Credential
	for _, c := range s.credentials {
		if c.UserID == userID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *InMemoryStore) UpsertCredential(_ context.Context, c *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return err
	}
	s.credentials[c.ID] = *c
	return nil
}

func (s *InMemoryStore) DeleteCredential(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return err
	}
	delete(s.credentials, id)
	return nil
}

// Credentials returns a snapshot of all stored credential rows.
func (s *InMemoryStore) Credentials() []Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Credential, 0, len(s.credentials))
	for _, c := range s.credentials {
		result = append(result, c)
	}
	return result
}

// Users returns a snapshot of all stored user rows.
func (s *InMemoryStore) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	return result
}
