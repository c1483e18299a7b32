package flow

import (
	"errors"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
)

// ErrPersistence indicates a completed reply could not be stored.
var ErrPersistence = errors.New("persistence failed")

// StreamError carries the text generated before a stream ended in failure.
type StreamError struct {
	Err         error
	FullContent string
}

func (e *StreamError) Error() string {
	return e.Err.Error()
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// ErrorFrame renders a stream failure as the terminal frame. Text generated
// before the failure is kept in fullContent.
func ErrorFrame(err error) conversation.Frame {
	frame := conversation.Frame{Done: true}
	var se *StreamError
	if errors.As(err, &se) {
		frame.FullContent = se.FullContent
	}
	if errors.Is(err, ErrPersistence) {
		frame.Error = "Failed to save response. Details: " + err.Error()
	} else {
		frame.Error = "Streaming error. Details: " + err.Error()
	}
	return frame
}
