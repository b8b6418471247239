package chatsrv

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/graphx"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/chat"
	"github.com/Abraxas-365/wanderlust/pkg/lockx"
	"github.com/Abraxas-365/wanderlust/pkg/logx"
)

// Runner is the compiled agent graph
type Runner interface {
	Stream(ctx context.Context, input graphx.Update, threadID string) *graphx.Stream
	History(ctx context.Context, threadID string) ([]memoryx.Checkpoint, error)
}

// ChatService runs conversation turns against the agent graph and keeps each
// session's transcript
type ChatService struct {
	sessions chat.SessionStore
	tokens   chat.TokenService
	graph    Runner
	archiver chat.Archiver
	ttl      time.Duration
	locks    *lockx.Keyed
}

// NewChatService wires the service. archiver may be nil.
func NewChatService(
	sessions chat.SessionStore,
	tokens chat.TokenService,
	graph Runner,
	archiver chat.Archiver,
	ttl time.Duration,
) *ChatService {
	return &ChatService{
		sessions: sessions,
		tokens:   tokens,
		graph:    graph,
		archiver: archiver,
		ttl:      ttl,
		locks:    lockx.NewKeyed(),
	}
}

// Start creates a session on a fresh thread and returns it with its token
func (s *ChatService) Start(ctx context.Context) (*chat.Session, string, error) {
	session := chat.NewSession(s.ttl)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(session.ID, session.ExpiresAt)
	if err != nil {
		return nil, "", err
	}

	logx.WithFields(logx.Fields{
		"session_id": session.ID,
		"thread_id":  session.ThreadID,
	}).Infof("session started")

	return session, token, nil
}

func (s *ChatService) TTL() time.Duration {
	return s.ttl
}

// Refresh issues a token covering the session's current expiry
func (s *ChatService) Refresh(session *chat.Session) (string, error) {
	return s.tokens.Issue(session.ID, session.ExpiresAt)
}

// Load resolves a session token
func (s *ChatService) Load(ctx context.Context, token string) (*chat.Session, error) {
	sessionID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, sessionID)
}

func (s *ChatService) get(ctx context.Context, sessionID string) (*chat.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired() {
		return nil, chat.ErrSessionExpired().WithDetail("session_id", sessionID)
	}
	return session, nil
}

// Send runs one turn. Tool results and AI text are passed to emit as the
// graph produces them, followed by EventDone. A failed run emits EventError,
// keeps the user entry and appends no assistant entry.
func (s *ChatService) Send(ctx context.Context, sessionID, prompt string, emit func(chat.Event)) (*chat.Session, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, chat.ErrEmptyPrompt()
	}
	if emit == nil {
		emit = func(chat.Event) {}
	}

	unlock, err := s.locks.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Append(chat.Entry{Role: chat.RoleUser, Content: prompt})
	session.Touch(s.ttl)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	log := logx.WithFields(logx.Fields{
		"session_id": session.ID,
		"thread_id":  session.ThreadID,
	})

	answer, tools, runErr := s.run(ctx, session.ThreadID, prompt, emit)
	if runErr != nil {
		log.Errorf("agent run failed: %v", runErr)
		emit(chat.EventError{Message: errorMessage(runErr)})
		return session, chat.ErrAgentFailed().WithError(runErr)
	}

	session.Append(chat.Entry{Role: chat.RoleAssistant, Content: answer, Tools: tools})
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	log.Debugf("turn completed with %d tool result(s)", len(tools))
	emit(chat.EventDone{ThreadID: session.ThreadID})
	return session, nil
}

func (s *ChatService) run(ctx context.Context, threadID, prompt string, emit func(chat.Event)) (string, []chat.ToolUse, error) {
	stream := s.graph.Stream(ctx, graphx.Update{
		Messages: []llm.Message{llm.NewUserMessage(prompt)},
	}, threadID)
	defer stream.Close()

	var answer string
	var tools []chat.ToolUse
	for {
		snap, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return answer, tools, nil
		}
		if err != nil {
			return "", nil, err
		}
		if snap.Node == graphx.START {
			continue
		}

		last, ok := snap.Last()
		if !ok {
			continue
		}
		event, ok := chat.EventFromMessage(last)
		if !ok {
			continue
		}

		switch ev := event.(type) {
		case chat.EventToolResult:
			tools = append(tools, chat.ToolUse{Name: ev.ToolName, Content: ev.Content})
		case chat.EventAIResponse:
			answer = ev.Content
		}
		emit(event)
	}
}

func errorMessage(err error) string {
	var nodeErr *graphx.NodeError
	if errors.As(err, &nodeErr) {
		return "The " + nodeErr.Node + " step failed: " + nodeErr.Err.Error()
	}
	return err.Error()
}

// Reset moves the session to a new thread with an empty transcript. The old
// transcript is archived when an archiver is configured.
func (s *ChatService) Reset(ctx context.Context, sessionID string) (*chat.Session, error) {
	unlock, err := s.locks.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	oldThread, transcript := session.Reset()
	session.Touch(s.ttl)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	if s.archiver != nil && len(transcript) > 0 {
		if err := s.archiver.Archive(ctx, session.ID, oldThread, transcript); err != nil {
			logx.Warnf("failed to archive transcript of thread %s: %v", oldThread, err)
		}
	}

	logx.WithFields(logx.Fields{
		"session_id": session.ID,
		"old_thread": oldThread,
		"thread_id":  session.ThreadID,
	}).Infof("conversation reset")

	return session, nil
}

// History returns the checkpoints of one of the session's threads
func (s *ChatService) History(ctx context.Context, sessionID, threadID string) ([]memoryx.Checkpoint, error) {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.OwnsThread(threadID) {
		return nil, chat.ErrThreadForbidden().WithDetail("thread_id", threadID)
	}
	return s.graph.History(ctx, threadID)
}
