package chatapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/chat"
	"github.com/Abraxas-365/wanderlust/pkg/chat/chatsrv"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/Abraxas-365/wanderlust/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

const sessionLocal = "chat_session"

const DefaultTitle = "🧳 AI Travel Agent"

// CookieOptions controls the session cookie
type CookieOptions struct {
	Name     string
	Secure   bool
	SameSite string
	Path     string
}

type Options struct {
	Title       string
	Cookie      CookieOptions
	TurnTimeout time.Duration
}

// ChatHandlers serves the chat page and its JSON/SSE API
type ChatHandlers struct {
	service *chatsrv.ChatService
	opts    Options
}

func NewChatHandlers(service *chatsrv.ChatService, opts Options) *ChatHandlers {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Cookie.Name == "" {
		opts.Cookie.Name = "wanderlust_session"
	}
	if opts.Cookie.Path == "" {
		opts.Cookie.Path = "/"
	}
	if opts.Cookie.SameSite == "" {
		opts.Cookie.SameSite = fiber.CookieSameSiteLaxMode
	}
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = 2 * time.Minute
	}
	return &ChatHandlers{service: service, opts: opts}
}

// RegisterRoutes mounts the page routes on router and the API under /api/v1
func (h *ChatHandlers) RegisterRoutes(router fiber.Router) {
	session := h.ResolveSession()

	router.Get("/", session, h.Index)
	router.Post("/messages", session, h.PostMessage)
	router.Post("/reset", session, h.PostReset)

	api := router.Group("/api/v1")
	api.Get("/session", session, h.GetSession)
	api.Post("/chat", session, h.StreamChat)
	api.Post("/reset", session, h.Reset)
	api.Get("/threads/:id/history", session, h.GetThreadHistory)
}

// ResolveSession loads the session named by the cookie, starting a new one
// when the cookie is missing, invalid or points at an expired session
func (h *ChatHandlers) ResolveSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Cookies(h.opts.Cookie.Name); token != "" {
			session, err := h.service.Load(c.UserContext(), token)
			if err == nil {
				c.Locals(sessionLocal, session)
				return c.Next()
			}
			logx.Debugf("discarding session cookie: %v", err)
		}

		session, token, err := h.service.Start(c.UserContext())
		if err != nil {
			return err
		}
		h.setCookie(c, token, session.ExpiresAt)
		c.Locals(sessionLocal, session)
		return c.Next()
	}
}

func getSession(c *fiber.Ctx) *chat.Session {
	session, _ := c.Locals(sessionLocal).(*chat.Session)
	return session
}

func (h *ChatHandlers) setCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.opts.Cookie.Name,
		Value:    token,
		Path:     h.opts.Cookie.Path,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.opts.Cookie.Secure,
		SameSite: h.opts.Cookie.SameSite,
	})
}

func (h *ChatHandlers) refreshCookie(c *fiber.Ctx, session *chat.Session) {
	token, err := h.service.Refresh(session)
	if err != nil {
		logx.Warnf("failed to refresh session cookie: %v", err)
		return
	}
	h.setCookie(c, token, session.ExpiresAt)
}

func (h *ChatHandlers) turnContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.opts.TurnTimeout)
}

// ============================================================================
// Page
// ============================================================================

type messageRequest struct {
	Message string `json:"message" form:"message"`
}

// Index renders the transcript, the sidebar and the prompt form
func (h *ChatHandlers) Index(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return renderPage(c, newPageView(h.opts.Title, getSession(c), c.Query("error")))
}

// PostMessage runs a turn from the form and redirects back to the page
func (h *ChatHandlers) PostMessage(c *fiber.Ctx) error {
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return redirectWithError(c, "Invalid request body")
	}

	ctx, cancel := h.turnContext(c)
	defer cancel()

	session, err := h.service.Send(ctx, getSession(c).ID, req.Message, nil)
	if session != nil {
		h.refreshCookie(c, session)
	}
	if err != nil {
		return redirectWithError(c, userMessage(err))
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// PostReset starts a new thread and redirects back to the page
func (h *ChatHandlers) PostReset(c *fiber.Ctx) error {
	session, err := h.service.Reset(c.UserContext(), getSession(c).ID)
	if err != nil {
		return redirectWithError(c, userMessage(err))
	}
	h.refreshCookie(c, session)
	return c.Redirect("/", fiber.StatusSeeOther)
}

func redirectWithError(c *fiber.Ctx, msg string) error {
	return c.Redirect("/?error="+url.QueryEscape(msg), fiber.StatusSeeOther)
}

func userMessage(err error) string {
	if e, ok := errx.As(err); ok {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	return err.Error()
}

// ============================================================================
// API
// ============================================================================

// GetSession returns the caller's session with its transcript
func (h *ChatHandlers) GetSession(c *fiber.Ctx) error {
	return c.JSON(getSession(c))
}

// Reset starts a new thread and returns the updated session
func (h *ChatHandlers) Reset(c *fiber.Ctx) error {
	session, err := h.service.Reset(c.UserContext(), getSession(c).ID)
	if err != nil {
		return err
	}
	h.refreshCookie(c, session)
	return c.JSON(session)
}

// GetThreadHistory returns every checkpoint of one of the caller's threads
func (h *ChatHandlers) GetThreadHistory(c *fiber.Ctx) error {
	threadID := c.Params("id")
	if threadID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "thread id is required",
		})
	}

	history, err := h.service.History(c.UserContext(), getSession(c).ID, threadID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"thread_id":   threadID,
		"checkpoints": history,
	})
}

// StreamChat runs a turn and streams its events as server-sent events
func (h *ChatHandlers) StreamChat(c *fiber.Ctx) error {
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	session := getSession(c)
	if session.IsExpired() {
		return chat.ErrSessionExpired()
	}
	if strings.TrimSpace(req.Message) == "" {
		return chat.ErrEmptyPrompt()
	}

	// Touch happens inside Send, so refresh against the extended lifetime
	touched := session.Clone()
	touched.Touch(h.service.TTL())
	h.refreshCookie(c, touched)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	sessionID := session.ID
	parent := c.UserContext()
	timeout := h.opts.TurnTimeout

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		emit := func(e chat.Event) {
			if err := writeEvent(w, e); err != nil {
				logx.Debugf("client went away: %v", err)
				cancel()
			}
		}

		_, err := h.service.Send(ctx, sessionID, req.Message, emit)
		if err != nil && !errx.Is(err, chat.CodeAgentFailed) {
			emit(chat.EventError{Message: userMessage(err)})
		}
	})
	return nil
}

func writeEvent(w *bufio.Writer, e chat.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type(), data); err != nil {
		return err
	}
	return w.Flush()
}
