package handlers

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// FilesHandler serves uploads written by the local storage provider.
type FilesHandler struct {
	root string
}

// NewFilesHandler serves root under /files. An empty root registers nothing,
// which is the case for remote storage backends.
func NewFilesHandler(root string) *FilesHandler {
	return &FilesHandler{root: strings.TrimSpace(root)}
}

func (h *FilesHandler) Register(e *echo.Echo) {
	if h.root == "" {
		return
	}
	e.Static("/files", h.root)
}
