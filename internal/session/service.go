// Package session keeps per-user conversation history in memory so the
// answer generator can ground follow-up questions in recent exchanges.
// History lives for the process lifetime only; WhatsApp users start fresh
// after a restart.
package session

import (
	"sync"
	"time"
)

// DefaultMaxTurns bounds how many exchanges are kept per user
const DefaultMaxTurns = 10

// Exchange is one question and answer pair
type Exchange struct {
	Query  string
	Answer string
	Domain string
	At     time.Time
}

// Conversation is the retained history for one user
type Conversation struct {
	UserID    string
	Exchanges []Exchange
}

// Service stores conversations keyed by user ID
type Service struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	maxTurns      int
}

// NewService creates a session service retaining up to maxTurns exchanges
// per user
func NewService(maxTurns int) *Service {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Service{
		conversations: make(map[string]*Conversation),
		maxTurns:      maxTurns,
	}
}

// Record appends an exchange to the user's history, trimming the oldest
// entries beyond the turn limit
func (s *Service) Record(userID, query, answer, domain string) {
	if userID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[userID]
	if !ok {
		conv = &Conversation{UserID: userID}
		s.conversations[userID] = conv
	}

	conv.Exchanges = append(conv.Exchanges, Exchange{
		Query:  query,
		Answer: answer,
		Domain: domain,
		At:     time.Now(),
	})

	if len(conv.Exchanges) > s.maxTurns {
		conv.Exchanges = conv.Exchanges[len(conv.Exchanges)-s.maxTurns:]
	}
}

// History returns up to n most recent exchanges for the user, oldest first
func (s *Service) History(userID string, n int) []Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[userID]
	if !ok || n <= 0 {
		return nil
	}

	exchanges := conv.Exchanges
	if len(exchanges) > n {
		exchanges = exchanges[len(exchanges)-n:]
	}

	out := make([]Exchange, len(exchanges))
	copy(out, exchanges)
	return out
}

// Clear removes the user's history
func (s *Service) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, userID)
}

// Users returns the number of users with retained history
func (s *Service) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
