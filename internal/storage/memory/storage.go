package memory

import (
	"context"
	"sync"

	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	sessions map[model.SessionID]*model.Session
	rounds   []model.RoundResult
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions: make(map[model.SessionID]*model.Session),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *Storage) SessionExists(ctx context.Context, id model.SessionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok, nil
}

// Leaderboard operations

func (s *Storage) AppendRound(ctx context.Context, result *model.RoundResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, *result)
	return nil
}

// ListRounds returns a copy, so callers never observe later appends
func (s *Storage) ListRounds(ctx context.Context) ([]model.RoundResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RoundResult, len(s.rounds))
	copy(out, s.rounds)
	return out, nil
}

func (s *Storage) CountRounds(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rounds), nil
}
