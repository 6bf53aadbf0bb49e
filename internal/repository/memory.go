package repository

import (
	"context"
	"errors"
	"sync"

	"insurance-chatbot/internal/domain"
)

// MemoryStore keeps sessions in memory; thread-safe. Used by the local dev
// server and tests in place of DynamoDB.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*domain.Session)}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return cloneSession(sess), nil
}

func (m *MemoryStore) Put(_ context.Context, sess *domain.Session) error {
	if sess == nil || sess.SessionID == "" {
		return errors.New("repository: session missing id")
	}
	m.mu.Lock()
	m.sessions[sess.SessionID] = cloneSession(sess)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// cloneSession copies the session so callers cannot mutate stored state.
func cloneSession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	slots := make(map[string]string, len(s.Slots))
	for k, v := range s.Slots {
		slots[k] = v
	}
	var preview *domain.QuotePreview
	if s.Preview != nil {
		p := *s.Preview
		p.Breakdown.Items = append([]domain.BreakdownItem(nil), s.Preview.Breakdown.Items...)
		preview = &p
	}
	return &domain.Session{
		SessionID: s.SessionID,
		Intent:    s.Intent,
		Slots:     slots,
		Preview:   preview,
		UpdatedAt: s.UpdatedAt,
	}
}
