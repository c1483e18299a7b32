package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/media"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/memory"
)

const messagePromptRequired = "Prompt is required and must be a non-empty string"

// Envelope is the response body shared by every JSON endpoint.
type Envelope struct {
	Success     bool                       `json:"success"`
	Data        any                        `json:"data,omitempty"`
	UpdatedChat *conversation.Conversation `json:"updatedChat,omitempty"`
	Message     string                     `json:"message,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func okMessage(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

// fail renders err with the status its sentinel maps to. Client-side
// failures carry a message; server-side failures carry an error.
func fail(c echo.Context, err error) error {
	status := statusFor(err)
	body := Envelope{Success: false}
	switch {
	case errors.Is(err, media.ErrAttachmentUploadFailed):
		body.Error = "Failed to process or upload files. Details: " + err.Error()
	case status < http.StatusInternalServerError:
		body.Message = clientMessage(err)
	default:
		body.Error = err.Error()
	}
	return c.JSON(status, body)
}

func statusFor(err error) int {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, conversation.ErrConversationNotFound), errors.Is(err, memory.ErrMemoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrInvalidSubmission):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func clientMessage(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if msg, isString := httpErr.Message.(string); isString {
			return msg
		}
	}
	switch {
	case errors.Is(err, conversation.ErrEmptyPrompt):
		return messagePromptRequired
	case errors.Is(err, conversation.ErrConversationNotFound):
		return "Chat not found"
	case errors.Is(err, memory.ErrMemoryNotFound):
		return "Memory not found"
	}
	return err.Error()
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
