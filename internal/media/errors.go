package media

import "errors"

var (
	// ErrAttachmentUploadFailed indicates an attachment could not be pushed to object storage.
	ErrAttachmentUploadFailed = errors.New("attachment upload failed")
	// ErrProviderUnavailable indicates the storage provider is not configured or reachable.
	ErrProviderUnavailable = errors.New("storage provider unavailable")
	// ErrAssetTooLarge indicates the payload exceeds the configured max size.
	ErrAssetTooLarge = errors.New("attachment too large")
	// ErrPathTraversal indicates a storage key attempted directory traversal.
	ErrPathTraversal = errors.New("path traversal is forbidden")
	// ErrEmptyPayload indicates the attachment carries no inline payload to upload.
	ErrEmptyPayload = errors.New("attachment payload is empty")
)

// UploadError reports the attachment whose upload failed. It matches
// ErrAttachmentUploadFailed with errors.Is.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return "Failed to upload " + e.Name
	}
	return "Failed to upload " + e.Name + ": " + e.Err.Error()
}

func (e *UploadError) Unwrap() []error {
	return []error{ErrAttachmentUploadFailed, e.Err}
}
