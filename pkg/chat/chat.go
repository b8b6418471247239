package chat

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/google/uuid"
)

// ============================================================================
// Types
// ============================================================================

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolUse is a tool result shown next to the assistant answer it fed
type ToolUse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Entry is one rendered line of the transcript
type Entry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Tools     []ToolUse `json:"tools,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a browser conversation. It points at the graph thread holding
// the model-side history and keeps its own display transcript.
type Session struct {
	ID                string    `json:"id"`
	ThreadID          string    `json:"thread_id"`
	PreviousThreadIDs []string  `json:"previous_thread_ids,omitempty"`
	Transcript        []Entry   `json:"transcript"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// ============================================================================
// Domain Methods
// ============================================================================

func NewSession(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.NewString(),
		ThreadID:   uuid.NewString(),
		Transcript: []Entry{},
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Touch extends the session lifetime
func (s *Session) Touch(ttl time.Duration) {
	s.UpdatedAt = time.Now()
	s.ExpiresAt = s.UpdatedAt.Add(ttl)
}

func (s *Session) Append(e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.Transcript = append(s.Transcript, e)
	s.UpdatedAt = e.CreatedAt
}

// OwnsThread reports whether id is the current or a previous thread
func (s *Session) OwnsThread(id string) bool {
	return id == s.ThreadID || slices.Contains(s.PreviousThreadIDs, id)
}

// Reset moves the session to a fresh thread that none of its earlier threads
// share and clears the transcript. It returns the old thread id and transcript.
func (s *Session) Reset() (string, []Entry) {
	oldThread := s.ThreadID
	oldTranscript := s.Transcript

	s.PreviousThreadIDs = append(s.PreviousThreadIDs, oldThread)
	next := uuid.NewString()
	for s.OwnsThread(next) {
		next = uuid.NewString()
	}

	s.ThreadID = next
	s.Transcript = []Entry{}
	s.UpdatedAt = time.Now()
	return oldThread, oldTranscript
}

// Clone returns a deep copy
func (s *Session) Clone() *Session {
	c := *s
	c.PreviousThreadIDs = slices.Clone(s.PreviousThreadIDs)
	c.Transcript = make([]Entry, len(s.Transcript))
	for i, e := range s.Transcript {
		e.Tools = slices.Clone(e.Tools)
		c.Transcript[i] = e
	}
	return &c
}

// ============================================================================
// Ports
// ============================================================================

// SessionStore persists sessions
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
	// CleanExpired removes expired sessions and returns how many were dropped
	CleanExpired(ctx context.Context) (int, error)
}

// TokenService signs the session cookie
type TokenService interface {
	Issue(sessionID string, expiresAt time.Time) (string, error)
	Validate(token string) (string, error)
}

// Archiver keeps the transcript of a thread the session is leaving
type Archiver interface {
	Archive(ctx context.Context, sessionID, threadID string, transcript []Entry) error
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("CHAT")

var (
	CodeSessionNotFound = ErrRegistry.Register("SESSION_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Session not found")
	CodeSessionExpired  = ErrRegistry.Register("SESSION_EXPIRED", errx.TypeAuthorization, http.StatusUnauthorized, "Session expired")
	CodeInvalidToken    = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid session token")
	CodeEmptyPrompt     = ErrRegistry.Register("EMPTY_PROMPT", errx.TypeValidation, http.StatusBadRequest, "Message cannot be empty")
	CodeThreadForbidden = ErrRegistry.Register("THREAD_FORBIDDEN", errx.TypeAuthorization, http.StatusForbidden, "Thread does not belong to this session")
	CodeAgentFailed     = ErrRegistry.Register("AGENT_FAILED", errx.TypeExternal, http.StatusBadGateway, "The travel agent could not answer")
)

func ErrSessionNotFound() *errx.Error {
	return ErrRegistry.New(CodeSessionNotFound)
}

func ErrSessionExpired() *errx.Error {
	return ErrRegistry.New(CodeSessionExpired)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrEmptyPrompt() *errx.Error {
	return ErrRegistry.New(CodeEmptyPrompt)
}

func ErrThreadForbidden() *errx.Error {
	return ErrRegistry.New(CodeThreadForbidden)
}

func ErrAgentFailed() *errx.Error {
	return ErrRegistry.New(CodeAgentFailed)
}
