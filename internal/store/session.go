package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/naka-gawa/issue-slots/internal/domain"
)

// SpinSessions tracks spins per (repo, username) for the life of the process.
type SpinSessions struct {
	mu       sync.Mutex
	sessions map[domain.SessionKey]*domain.SpinSession
}

// NewSpinSessions returns an empty store.
func NewSpinSessions() *SpinSessions {
	return &SpinSessions{sessions: make(map[domain.SessionKey]*domain.SpinSession)}
}

// Get returns the session for key, if any spin was ever recorded.
func (s *SpinSessions) Get(key domain.SessionKey) (domain.SpinSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return domain.SpinSession{}, false
	}
	return *sess, true
}

// Record appends one spin. The allotment check and the write happen under the
// same lock, so concurrent spins can never push Spins past allotment. When the
// allotment is used up it returns domain.ErrSpinLimitReached and the current
// (unmodified) session.
func (s *SpinSessions) Record(key domain.SessionKey, outcome domain.SpinOutcome, winChancePercent string, allotment int) (domain.SpinSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	used := 0
	if ok {
		used = sess.Spins
	}
	if used >= allotment {
		if !ok {
			return domain.SpinSession{}, domain.ErrSpinLimitReached
		}
		return *sess, domain.ErrSpinLimitReached
	}

	if !ok {
		sess = &domain.SpinSession{}
		s.sessions[key] = sess
	}
	sess.Spins++
	if outcome.Won {
		sess.Wins++
	}
	sess.LastSpinID = uuid.NewString()
	sess.LastReels = outcome.Reels
	sess.LastWon = outcome.Won
	sess.WinChancePercent = winChancePercent
	return *sess, nil
}
