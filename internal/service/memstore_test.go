package service

import (
	"context"
	"sync"
	"time"

	"student-records/internal/model"
)

// memTokenStore keeps refresh tokens in memory with the same rotation
// guard as the Postgres repository.
type memTokenStore struct {
	mu     sync.Mutex
	users  map[string]model.User
	tokens map[string]model.RefreshToken
}

func newMemTokenStore(users ...model.User) *memTokenStore {
	s := &memTokenStore{users: map[string]model.User{}, tokens: map[string]model.RefreshToken{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memTokenStore) Create(_ context.Context, t model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.ID] = t
	return nil
}

func (s *memTokenStore) FindByToken(_ context.Context, token string) (model.RefreshToken, model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Token == token {
			return t, s.users[t.UserID], nil
		}
	}
	return model.RefreshToken{}, model.User{}, model.ErrTokenNotFound
}

func (s *memTokenStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
	return nil
}

func (s *memTokenStore) Rotate(_ context.Context, oldID string, next model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.tokens[oldID]
	if !ok || old.Revoked {
		return model.ErrTokenRevoked
	}
	old.Revoked = true
	old.ReplacedByToken = &next.Token
	s.tokens[oldID] = old
	s.tokens[next.ID] = next
	return nil
}

func (s *memTokenStore) RevokeForDevice(_ context.Context, userID string, deviceID string) (int64, error) {
	return s.revokeWhere(func(t model.RefreshToken) bool { return t.UserID == userID && t.Device.ID == deviceID }), nil
}

func (s *memTokenStore) RevokeAll(_ context.Context, userID string) (int64, error) {
	return s.revokeWhere(func(t model.RefreshToken) bool { return t.UserID == userID }), nil
}

func (s *memTokenStore) ListActive(_ context.Context, userID string, now time.Time) ([]model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := make([]model.RefreshToken, 0)
	for _, t := range s.tokens {
		if t.UserID == userID && t.Usable(now) {
			active = append(active, t)
		}
	}
	return active, nil
}

func (s *memTokenStore) revokeWhere(match func(model.RefreshToken) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.tokens {
		if !t.Revoked && match(t) {
			t.Revoked = true
			s.tokens[id] = t
			n++
		}
	}
	return n
}
