package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/campusbot/internal/helpers"
	"github.com/mohammad-safakhou/campusbot/session"
)

// EndMarker closes every streamed websocket answer.
const EndMarker = "[END]"

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 8 << 10
	// questions read ahead while an answer is streaming
	questionBacklog = 4
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range s.cfg.AllowOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// chatSocket serves one conversation per connection: each text frame is a question,
// answered as a sequence of token frames followed by EndMarker. Frames are read on a
// separate goroutine so a disconnect cancels the answer being generated.
func (s *Server) chatSocket(c echo.Context) error {
	up := s.upgrader()
	conn, err := up.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade failed")
		return nil
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	sess := session.New("")
	log := s.log.WithField("session", sess.ID())
	log.Debug("websocket connected")

	questions := make(chan string, questionBacklog)
	go func() {
		defer close(questions)
		defer cancel()
		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WithError(err).Warn("websocket closed unexpectedly")
				}
				return
			}
			if kind != websocket.TextMessage {
				continue
			}
			select {
			case questions <- string(payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	send := func(text string) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, []byte(text))
	}

	for payload := range questions {
		question := helpers.SanitizeHTMLStrict(payload)
		if strings.TrimSpace(question) == "" {
			continue
		}

		_, err = s.deps.Answerer.Stream(ctx, sess, question, send)
		observeTurn("websocket", err)
		if ctx.Err() != nil {
			log.Debug("websocket closed during answer")
			return nil
		}
		if err != nil {
			log.WithError(err).Warn("websocket answer failed")
			if werr := send("An error occurred while generating the answer."); werr != nil {
				return nil
			}
		}
		if err := send(EndMarker); err != nil {
			return nil
		}
	}
	return nil
}
