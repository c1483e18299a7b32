package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/auth"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation/flow"
)

const (
	wsReadLimit    = 64 << 20
	wsWriteTimeout = 10 * time.Second
)

// Runner executes chat submissions.
type Runner interface {
	Chat(ctx context.Context, sub conversation.Submission) (conversation.Reply, error)
	StreamChat(ctx context.Context, sub conversation.Submission) (<-chan conversation.Frame, <-chan error)
}

// MessageHandler accepts chat submissions over JSON, SSE and WebSocket.
type MessageHandler struct {
	runner   Runner
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewMessageHandler(log *slog.Logger, runner Runner) *MessageHandler {
	return &MessageHandler{
		runner: runner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOrigin,
		},
		logger: log.With(slog.String("handler", "message")),
	}
}

func (h *MessageHandler) Register(e *echo.Echo) {
	e.POST("/chat/ai", h.SendMessage)
	e.GET("/chat/ws", h.StreamSocket)
}

// SendMessage runs one submission. With stream set the reply is written as
// server-sent events, otherwise as a single JSON envelope.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	sub, err := h.bindSubmission(c)
	if err != nil {
		return fail(c, err)
	}
	if sub.Stream {
		return h.streamMessage(c, sub)
	}

	reply, err := h.runner.Chat(c.Request().Context(), sub)
	if err != nil {
		h.logger.Error("chat submission failed",
			slog.String("conversation_id", sub.ConversationID),
			slog.Any("error", err),
		)
		return fail(c, err)
	}
	msg := reply.Message
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: &msg, UpdatedChat: reply.UpdatedChat})
}

func (h *MessageHandler) streamMessage(c echo.Context, sub conversation.Submission) error {
	flusher, isFlusher := c.Response().Writer.(http.Flusher)
	if !isFlusher {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	writer := bufio.NewWriter(c.Response().Writer)
	frames, errs := h.runner.StreamChat(c.Request().Context(), sub)
	err := drainStream(frames, errs, func(frame conversation.Frame) error {
		return writeSSEJSON(writer, flusher, frame)
	})
	if err != nil {
		h.logger.Warn("stream client went away",
			slog.String("conversation_id", sub.ConversationID),
			slog.Any("error", err),
		)
	}
	return nil
}

// StreamSocket upgrades to WebSocket. Each inbound text message is one
// submission whose frames are written back as JSON messages, in order.
func (h *MessageHandler) StreamSocket(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	write := func(frame conversation.Frame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(frame)
	}

	conn.SetReadLimit(wsReadLimit)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read ended", slog.Any("error", err))
			}
			return nil
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var sub conversation.Submission
		if err := json.Unmarshal(data, &sub); err != nil {
			if werr := write(conversation.Frame{Done: true, Error: "invalid submission: " + err.Error()}); werr != nil {
				return nil
			}
			continue
		}
		sub.UserID = userID
		sub.Stream = true
		if err := h.validate(c, &sub); err != nil {
			if werr := write(conversation.Frame{Done: true, Error: clientMessage(err)}); werr != nil {
				return nil
			}
			continue
		}

		frames, errs := h.runner.StreamChat(ctx, sub)
		if err := drainStream(frames, errs, write); err != nil {
			h.logger.Warn("websocket write failed",
				slog.String("conversation_id", sub.ConversationID),
				slog.Any("error", err),
			)
			return nil
		}
	}
}

func (h *MessageHandler) bindSubmission(c echo.Context) (conversation.Submission, error) {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return conversation.Submission{}, err
	}
	var sub conversation.Submission
	if err := c.Bind(&sub); err != nil {
		return conversation.Submission{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sub.UserID = userID
	if err := h.validate(c, &sub); err != nil {
		return conversation.Submission{}, err
	}
	return sub, nil
}

func (h *MessageHandler) validate(c echo.Context, sub *conversation.Submission) error {
	if err := flow.ValidateSubmission(*sub); err != nil {
		return err
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(sub)
}

// drainStream forwards every frame, then the terminal error frame if the
// run failed. The error channel closes before the frame channel, so both
// are read until closed. It returns the first write error.
func drainStream(frames <-chan conversation.Frame, errs <-chan error, write func(conversation.Frame) error) error {
	for frames != nil || errs != nil {
		select {
		case frame, open := <-frames:
			if !open {
				frames = nil
				continue
			}
			if err := write(frame); err != nil {
				return err
			}
		case err, open := <-errs:
			if !open {
				errs = nil
				continue
			}
			if err != nil {
				if werr := write(flow.ErrorFrame(err)); werr != nil {
					return werr
				}
			}
		}
	}
	return nil
}

func writeSSEData(writer *bufio.Writer, flusher http.Flusher, payload string) error {
	if _, err := writer.WriteString(fmt.Sprintf("data: %s\n\n", payload)); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func writeSSEJSON(writer *bufio.Writer, flusher http.Flusher, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writeSSEData(writer, flusher, string(data))
}

// sameOrigin admits non-browser clients and browsers on the serving host.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
