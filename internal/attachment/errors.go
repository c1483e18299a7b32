package attachment

import "errors"

var (
	// ErrInvalidAttachment indicates a missing name, MIME type or payload.
	ErrInvalidAttachment = errors.New("invalid attachment")
	// ErrUnsupportedAttachmentType indicates no extractor handles the MIME type.
	ErrUnsupportedAttachmentType = errors.New("unsupported attachment type")
	// ErrExtractionTimeout indicates extraction exceeded its time bound.
	ErrExtractionTimeout = errors.New("extraction timed out")
)
