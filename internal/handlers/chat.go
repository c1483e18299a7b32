package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/auth"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
)

// FileDeleter removes the uploaded files referenced by a conversation.
type FileDeleter interface {
	DeleteFiles(ctx context.Context, conv conversation.Conversation) int
}

// ChatHandler manages the caller's conversation records.
type ChatHandler struct {
	store  conversation.Store
	files  FileDeleter
	logger *slog.Logger
}

type renameChatRequest struct {
	ChatID string `json:"chatId" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

type deleteChatRequest struct {
	ChatID string `json:"chatId" validate:"required"`
}

func NewChatHandler(log *slog.Logger, store conversation.Store, files FileDeleter) *ChatHandler {
	return &ChatHandler{
		store:  store,
		files:  files,
		logger: log.With(slog.String("handler", "chat")),
	}
}

func (h *ChatHandler) Register(e *echo.Echo) {
	group := e.Group("/chat")
	group.POST("/create", h.Create)
	group.GET("/get", h.List)
	group.POST("/rename", h.Rename)
	group.POST("/delete", h.Delete)
}

// Create starts an empty conversation for the caller.
func (h *ChatHandler) Create(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	conv, err := h.store.Create(c.Request().Context(), conversation.Conversation{
		UserID: userID,
		Name:   conversation.DefaultTitle,
	})
	if err != nil {
		h.logger.Error("create chat failed", slog.String("user_id", userID), slog.Any("error", err))
		return fail(c, err)
	}
	return ok(c, conv)
}

// List returns the caller's conversations, most recently updated first.
func (h *ChatHandler) List(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	convs, err := h.store.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("list chats failed", slog.String("user_id", userID), slog.Any("error", err))
		return fail(c, err)
	}
	return ok(c, convs)
}

func (h *ChatHandler) Rename(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req renameChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fail(c, echo.NewHTTPError(http.StatusBadRequest, "name is required"))
	}
	conv, err := h.store.Rename(c.Request().Context(), userID, req.ChatID, name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: conv, Message: "Chat renamed"})
}

// Delete removes the conversation, then its uploaded files. File deletion
// failures are logged by the deleter and do not fail the request.
func (h *ChatHandler) Delete(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req deleteChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	conv, err := h.store.Delete(ctx, userID, req.ChatID)
	if err != nil {
		return fail(c, err)
	}
	if h.files != nil {
		deleted := h.files.DeleteFiles(context.WithoutCancel(ctx), conv)
		h.logger.Info("chat deleted",
			slog.String("conversation_id", conv.ID),
			slog.Int("files_deleted", deleted),
		)
	}
	return okMessage(c, "Chat deleted")
}
