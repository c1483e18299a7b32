package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/auth"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/memory"
)

// MemoryHandler exposes the caller's long-term memories.
type MemoryHandler struct {
	service memory.Service
	logger  *slog.Logger
}

type memoryListResponse struct {
	Success  bool          `json:"success"`
	Memories []memory.Item `json:"memories"`
}

type deleteMemoryRequest struct {
	ID string `json:"id" validate:"required"`
}

// NewMemoryHandler creates a MemoryHandler. A nil service answers 503.
func NewMemoryHandler(log *slog.Logger, service memory.Service) *MemoryHandler {
	return &MemoryHandler{
		service: service,
		logger:  log.With(slog.String("handler", "memory")),
	}
}

func (h *MemoryHandler) Register(e *echo.Echo) {
	e.GET("/memories", h.List)
	e.DELETE("/memories", h.Delete)
}

func (h *MemoryHandler) checkService() error {
	if h.service == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "memory service not available")
	}
	return nil
}

func (h *MemoryHandler) List(c echo.Context) error {
	if err := h.checkService(); err != nil {
		return err
	}
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	items, err := h.service.GetAll(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("list memories failed", slog.String("user_id", userID), slog.Any("error", err))
		return fail(c, err)
	}
	if items == nil {
		items = []memory.Item{}
	}
	return c.JSON(http.StatusOK, memoryListResponse{Success: true, Memories: items})
}

// Delete removes one memory. Memories of other users are reported as missing.
func (h *MemoryHandler) Delete(c echo.Context) error {
	if err := h.checkService(); err != nil {
		return err
	}
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	var req deleteMemoryRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		return fail(c, echo.NewHTTPError(http.StatusBadRequest, "Memory id is required"))
	}
	if err := h.service.Delete(c.Request().Context(), userID, strings.TrimSpace(req.ID)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, Envelope{Success: true})
}
