package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/campusbot/internal/helpers"
	"github.com/mohammad-safakhou/campusbot/internal/rag"
	"github.com/mohammad-safakhou/campusbot/session"
)

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type ChatResponse struct {
	SessionID string `json:"session_id,omitempty"`
	Answer    string `json:"answer"`
}

func (s *Server) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	question := helpers.SanitizeHTMLStrict(req.Question)
	if strings.TrimSpace(question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	ctx := c.Request().Context()
	sess, err := s.deps.Sessions.EnsureSession(ctx, req.SessionID, s.cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if wantsEventStream(c.Request()) {
		return s.streamChat(c, sess, question)
	}

	answer, err := s.deps.Answerer.Answer(ctx, sess, question)
	observeTurn("json", err)
	if err != nil {
		return answerError(err)
	}
	if err := s.deps.Sessions.Save(ctx, sess, s.cfg.SessionTTL); err != nil {
		s.log.WithError(err).WithField("session", sess.ID()).Warn("save session failed")
	}
	return c.JSON(http.StatusOK, ChatResponse{SessionID: sess.ID(), Answer: answer})
}

// streamChat writes each token as an SSE data event and finishes with a done event
// carrying the session id.
func (s *Server) streamChat(c echo.Context, sess *session.Session, question string) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.Header().Set("X-Session-ID", sess.ID())
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	_, err := s.deps.Answerer.Stream(ctx, sess, question, func(token string) error {
		if err := writeEvent(res, "", token); err != nil {
			return err
		}
		res.Flush()
		return nil
	})
	observeTurn("sse", err)
	if err != nil {
		s.log.WithError(err).WithField("session", sess.ID()).Warn("streamed answer failed")
		_ = writeEvent(res, "error", "An error occurred while generating the answer.")
		res.Flush()
		return nil
	}
	if err := s.deps.Sessions.Save(ctx, sess, s.cfg.SessionTTL); err != nil {
		s.log.WithError(err).WithField("session", sess.ID()).Warn("save session failed")
	}
	_ = writeEvent(res, "done", sess.ID())
	res.Flush()
	return nil
}

// chatForm answers a single form-encoded question without keeping history.
func (s *Server) chatForm(c echo.Context) error {
	question := helpers.SanitizeHTMLStrict(c.FormValue("question"))
	if strings.TrimSpace(question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}
	answer, err := s.deps.Answerer.Answer(c.Request().Context(), session.New(""), question)
	observeTurn("form", err)
	if err != nil {
		return answerError(err)
	}
	return c.JSON(http.StatusOK, ChatResponse{Answer: answer})
}

func answerError(err error) error {
	if errors.Is(err, rag.ErrEmptyQuestion) {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}
	return echo.NewHTTPError(http.StatusBadGateway, "could not generate an answer").SetInternal(err)
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get(echo.HeaderAccept), "text/event-stream")
}

// writeEvent emits one SSE event. Multi-line data is sent as one data field per line.
func writeEvent(w http.ResponseWriter, event, data string) error {
	var b strings.Builder
	if event != "" {
		b.WriteString("event: ")
		b.WriteString(event)
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := w.Write([]byte(b.String()))
	return err
}
