package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Maxibaroni/bot-ia-motos/internal/model/chat"
)

// ErrSessionNotFound covers both unknown and expired session ids; the
// HTTP layer turns it into a client-correctable error, never a fault.
var ErrSessionNotFound = errors.New("session not found")

const (
	defaultTTL           = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// Service owns per-session conversation state: session records and
// their append-only transcripts. Sessions idle past the TTL are
// evicted by a janitor goroutine. Reads count as activity too: a user
// who only takes the catalog path never appends, yet must not be
// evicted mid-conversation.
type Service struct {
	mu          sync.Mutex
	sessions    map[string]chat.Session
	transcripts map[string][]chat.Turn

	ttl        time.Duration
	sweepEvery time.Duration
}

// Option customizes the service.
type Option func(*Service)

// WithTTL overrides the idle lifetime of a session.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithSweepInterval overrides how often the janitor runs.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) { s.sweepEvery = d }
}

// NewService bootstraps the in-memory conversation store.
func NewService(opts ...Option) *Service {
	s := &Service{
		sessions:    make(map[string]chat.Session),
		transcripts: make(map[string][]chat.Turn),
		ttl:         defaultTTL,
		sweepEvery:  defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession provisions an anonymous session with an empty transcript.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	now := time.Now().UTC()
	session := chat.Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastActive: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.transcripts[session.ID] = make([]chat.Turn, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier. Expired sessions behave
// as not found even before the janitor removes them.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || s.expired(session, now) {
		return chat.Session{}, ErrSessionNotFound
	}

	session.LastActive = now
	s.sessions[sessionID] = session
	return session, nil
}

// Transcript returns a copy of the stored turns for the session.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Turn, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || s.expired(session, now) {
		return nil, ErrSessionNotFound
	}

	session.LastActive = now
	s.sessions[sessionID] = session

	turns := s.transcripts[sessionID]
	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// AppendExchange appends a user turn and the assistant reply as one
// atomic pair under a single lock acquisition, so two racing exchanges
// can never interleave their halves.
func (s *Service) AppendExchange(_ context.Context, sessionID string, userTurn, assistantTurn chat.Turn) error {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || s.expired(session, now) {
		return ErrSessionNotFound
	}

	s.transcripts[sessionID] = append(s.transcripts[sessionID], userTurn, assistantTurn)
	session.LastActive = now
	s.sessions[sessionID] = session
	return nil
}

// Start launches the eviction janitor; it stops when ctx is canceled.
func (s *Service) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.pruneExpired(time.Now().UTC()); removed > 0 {
					log.Printf("[chat] evicted %d idle session(s)", removed)
				}
			}
		}
	}()
}

func (s *Service) expired(session chat.Session, now time.Time) bool {
	return now.Sub(session.LastActive) > s.ttl
}

func (s *Service) pruneExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, id)
			delete(s.transcripts, id)
			removed++
		}
	}
	return removed
}
