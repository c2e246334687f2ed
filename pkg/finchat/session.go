package finchat

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"
)

// Sender tags a transcript entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// TranscriptEntry is one message in a session transcript. Order of append is
// display order.
type TranscriptEntry struct {
	Sender  Sender    `json:"sender"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Session holds per-conversation state: the append-only transcript and the
// currently loaded document, if any.
type Session struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActiveAt time.Time         `json:"last_active_at"`
	Transcript   []TranscriptEntry `json:"transcript"`
	Document     *Document         `json:"document,omitempty"`
}

// SessionSummary is the list view of a session.
type SessionSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	Messages     int       `json:"messages"`
	HasDocument  bool      `json:"has_document"`
}

// sessionStore keeps all sessions in memory. Sessions are the only mutable
// state in the process and every mutation goes through the store's lock.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxIdle  time.Duration
	now      func() time.Time
}

func newSessionStore(maxIdle time.Duration) *sessionStore {
	if maxIdle <= 0 {
		maxIdle = 24 * time.Hour
	}
	return &sessionStore{
		sessions: make(map[string]*Session),
		maxIdle:  maxIdle,
		now:      time.Now,
	}
}

func newSessionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform source is broken.
		return hex.EncodeToString([]byte(time.Now().Format("150405.000000000")))[:16]
	}
	return hex.EncodeToString(buf)
}

// Create registers a new session, optionally pre-seeded with a bot greeting.
func (s *sessionStore) Create(greeting string) Session {
	now := s.now().UTC()
	session := &Session{
		ID:           newSessionID(),
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if greeting != "" {
		session.Transcript = append(session.Transcript, TranscriptEntry{
			Sender:  SenderBot,
			Message: greeting,
			At:      now,
		})
	}

	s.mu.Lock()
	s.pruneLocked(now)
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return snapshotSession(session)
}

// Get returns a copy of the session, or a SESSION_NOT_FOUND error.
func (s *sessionStore) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, NewError(ErrCodeSessionNotFound, "session not found: "+id)
	}
	return snapshotSession(session), nil
}

// List returns summaries of all live sessions, most recently active first.
func (s *sessionStore) List() []SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]SessionSummary, 0, len(s.sessions))
	for _, session := range s.sessions {
		summaries = append(summaries, SessionSummary{
			ID:           session.ID,
			CreatedAt:    session.CreatedAt,
			LastActiveAt: session.LastActiveAt,
			Messages:     len(session.Transcript),
			HasDocument:  session.Document != nil,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActiveAt.After(summaries[j].LastActiveAt)
	})
	return summaries
}

// Delete drops the session. Returns false when the id is unknown.
func (s *sessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// AppendExchange appends one user entry followed by one bot entry, in that
// order, as a single atomic transcript mutation.
func (s *sessionStore) AppendExchange(id, userMessage, botReply string) (user, bot TranscriptEntry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return TranscriptEntry{}, TranscriptEntry{}, NewError(ErrCodeSessionNotFound, "session not found: "+id)
	}
	now := s.now().UTC()
	user = TranscriptEntry{Sender: SenderUser, Message: userMessage, At: now}
	bot = TranscriptEntry{Sender: SenderBot, Message: botReply, At: now}
	session.Transcript = append(session.Transcript, user, bot)
	session.LastActiveAt = now
	return user, bot, nil
}

// SetDocument replaces the session's loaded document.
func (s *sessionStore) SetDocument(id string, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return NewError(ErrCodeSessionNotFound, "session not found: "+id)
	}
	session.Document = doc
	session.LastActiveAt = s.now().UTC()
	return nil
}

// pruneLocked drops sessions idle longer than maxIdle. Caller holds the lock.
func (s *sessionStore) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxIdle)
	for id, session := range s.sessions {
		if session.LastActiveAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// snapshotSession copies a session so callers never alias store-owned slices.
func snapshotSession(session *Session) Session {
	copied := *session
	copied.Transcript = make([]TranscriptEntry, len(session.Transcript))
	copy(copied.Transcript, session.Transcript)
	if session.Document != nil {
		doc := *session.Document
		copied.Document = &doc
	}
	return copied
}
