package conversation

import "errors"

var (
	// ErrConversationNotFound indicates no conversation matches the id and owner.
	ErrConversationNotFound = errors.New("chat not found")
	// ErrInvalidSubmission indicates the submission failed validation.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrEmptyPrompt indicates the prompt is missing or blank.
	ErrEmptyPrompt = errors.New("prompt is required and must be a non-empty string")
)
