package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
)

// Uploader pushes attachment bytes to object storage and records the
// returned reference on the attachment.
type Uploader struct {
	provider  StorageProvider
	keyPrefix string
	maxBytes  int64
	now       func() time.Time
	logger    *slog.Logger
}

// NewUploader creates an uploader over the given storage provider.
func NewUploader(log *slog.Logger, provider StorageProvider, keyPrefix string, maxBytes int64) *Uploader {
	if log == nil {
		log = slog.Default()
	}
	keyPrefix = strings.Trim(strings.TrimSpace(keyPrefix), "/")
	if keyPrefix == "" {
		keyPrefix = "chat-files"
	}
	return &Uploader{
		provider:  provider,
		keyPrefix: keyPrefix,
		maxBytes:  maxBytes,
		now:       time.Now,
		logger:    log.With(slog.String("service", "media_uploader")),
	}
}

// Upload stores the attachment and returns its URL and deletion handle.
// Attachments that already carry a remote reference are not re-uploaded.
func (u *Uploader) Upload(ctx context.Context, att *conversation.Attachment) (string, string, error) {
	if att == nil {
		return "", "", fmt.Errorf("attachment is required")
	}
	if url, handle := att.Remote(); strings.TrimSpace(url) != "" {
		return url, handle, nil
	}
	if u.provider == nil {
		return "", "", &UploadError{Name: att.Name, Err: ErrProviderUnavailable}
	}

	data, err := u.payloadBytes(att)
	if err != nil {
		return "", "", &UploadError{Name: att.Name, Err: err}
	}

	now := u.now()
	key := u.storageKey(now, att.Name)
	if err := u.provider.Put(ctx, key, bytes.NewReader(data), att.Type); err != nil {
		u.logger.Error("upload attachment failed",
			slog.String("name", att.Name),
			slog.String("key", key),
			slog.Any("error", err),
		)
		return "", "", &UploadError{Name: att.Name, Err: err}
	}
	url := u.provider.AccessPath(key)
	att.SetRemote(url, key, now.UTC())
	u.logger.Debug("attachment uploaded",
		slog.String("name", att.Name),
		slog.String("key", key),
		slog.Int("bytes", len(data)),
	)
	return url, key, nil
}

// Delete removes a previously uploaded object by its deletion handle.
func (u *Uploader) Delete(ctx context.Context, handle string) error {
	if u.provider == nil {
		return ErrProviderUnavailable
	}
	if strings.TrimSpace(handle) == "" {
		return nil
	}
	return u.provider.Delete(ctx, handle)
}

// DeleteFiles removes the uploaded files of a conversation. Failures are
// logged and do not stop the remaining deletions.
func (u *Uploader) DeleteFiles(ctx context.Context, conv conversation.Conversation) int {
	deleted := 0
	for _, turn := range conv.Messages {
		for _, f := range turn.Files {
			if strings.TrimSpace(f.RemoteDeletionHandle) == "" {
				continue
			}
			if err := u.Delete(ctx, f.RemoteDeletionHandle); err != nil {
				u.logger.Warn("delete uploaded file failed",
					slog.String("conversation_id", conv.ID),
					slog.String("handle", f.RemoteDeletionHandle),
					slog.Any("error", err),
				)
				continue
			}
			deleted++
		}
	}
	return deleted
}

// Ping reports whether the storage backend is reachable.
func (u *Uploader) Ping(ctx context.Context) error {
	if u.provider == nil {
		return ErrProviderUnavailable
	}
	return u.provider.Ping(ctx)
}

// payloadBytes decodes the inline payload. Images must be valid base64;
// documents whose content is not base64 are uploaded as their raw text.
func (u *Uploader) payloadBytes(att *conversation.Attachment) ([]byte, error) {
	if strings.TrimSpace(att.Content) == "" {
		return nil, ErrEmptyPayload
	}
	data, err := DecodePayload(att.Content, u.maxBytes)
	if err == nil {
		return data, nil
	}
	if att.IsImage() {
		return nil, err
	}
	raw := []byte(StripDataURL(att.Content))
	if u.maxBytes > 0 && int64(len(raw)) > u.maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrAssetTooLarge, u.maxBytes)
	}
	return raw, nil
}

func (u *Uploader) storageKey(now time.Time, name string) string {
	return path.Join(u.keyPrefix, fmt.Sprintf("%d-%s", now.UnixMilli(), sanitizeName(name)))
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "_").Replace(name)
	if name == "" {
		return "file"
	}
	return name
}
