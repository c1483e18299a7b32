// Package conversation defines conversation domain types and rules.
package conversation

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Turn role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultTitle is the placeholder name of a freshly created conversation.
const DefaultTitle = "New Chat"

// Placeholders stored or sent in place of empty content.
const (
	PlaceholderEmptyMessage   = "[Empty message]"
	PlaceholderInvalidContent = "[Invalid message content]"
	PlaceholderEmptyResponse  = "[Empty response]"
	PlaceholderFileUploaded   = "[File uploaded]"
	PlaceholderEmptyWithFiles = "[Empty message with files]"
	PlaceholderImage          = "[Image]"
)

// Conversation is the persisted conversation record owned by one user.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Messages  []Turn    `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Turn is one stored message. Content is always a non-empty display string.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp int64     `json:"timestamp"`
	Files     []FileRef `json:"files,omitempty"`
}

// UnmarshalJSON accepts legacy records whose content was stored as a part list.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role      string          `json:"role"`
		Content   json.RawMessage `json:"content"`
		Timestamp int64           `json:"timestamp"`
		Files     []FileRef       `json:"files,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Role = raw.Role
	t.Content = FlattenContent(raw.Content)
	t.Timestamp = raw.Timestamp
	t.Files = raw.Files
	return nil
}

// HasFiles reports whether the turn references any uploaded attachment.
func (t Turn) HasFiles() bool {
	return len(t.Files) > 0
}

// FileRef is the persisted reference to an uploaded attachment.
type FileRef struct {
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	Size                 int64     `json:"size"`
	RemoteURL            string    `json:"remoteUrl"`
	RemoteDeletionHandle string    `json:"remoteDeletionHandle"`
	UploadedAt           time.Time `json:"uploadedAt"`
}

// IsImage reports whether the referenced file is an image.
func (f FileRef) IsImage() bool {
	return IsImageType(f.Type)
}

// Attachment is a file submitted with a user turn. It is shared by the
// extraction and upload stages of one request, so it must be passed by pointer.
type Attachment struct {
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	Size                 int64     `json:"size"`
	Content              string    `json:"content,omitempty"`
	RemoteURL            string    `json:"remoteUrl,omitempty"`
	RemoteDeletionHandle string    `json:"remoteDeletionHandle,omitempty"`
	UploadedAt           time.Time `json:"uploadedAt,omitempty"`
	ExtractedText        string    `json:"processedContent,omitempty"`

	extractMu sync.Mutex
	remoteMu  sync.RWMutex
}

// IsImage reports whether the attachment is an image.
func (a *Attachment) IsImage() bool {
	return IsImageType(a.Type)
}

// Extracted returns the memoized extracted text, if any.
func (a *Attachment) Extracted() (string, bool) {
	a.extractMu.Lock()
	defer a.extractMu.Unlock()
	return a.ExtractedText, a.ExtractedText != ""
}

// ExtractOnce returns the memoized extracted text, computing it with fn when
// absent. Concurrent callers wait for the first computation and reuse it.
// A failed computation leaves the memo unset.
func (a *Attachment) ExtractOnce(fn func() (string, error)) (string, error) {
	a.extractMu.Lock()
	defer a.extractMu.Unlock()
	if a.ExtractedText != "" {
		return a.ExtractedText, nil
	}
	text, err := fn()
	if err != nil {
		return "", err
	}
	a.ExtractedText = text
	return text, nil
}

// Remote returns the remote reference recorded by the uploader.
func (a *Attachment) Remote() (url, handle string) {
	a.remoteMu.RLock()
	defer a.remoteMu.RUnlock()
	return a.RemoteURL, a.RemoteDeletionHandle
}

// SetRemote records the remote reference returned by object storage.
func (a *Attachment) SetRemote(url, handle string, at time.Time) {
	a.remoteMu.Lock()
	defer a.remoteMu.Unlock()
	a.RemoteURL = url
	a.RemoteDeletionHandle = handle
	a.UploadedAt = at
}

// FileRef converts the attachment to its persisted reference.
func (a *Attachment) FileRef() FileRef {
	a.remoteMu.RLock()
	defer a.remoteMu.RUnlock()
	return FileRef{
		Name:                 a.Name,
		Type:                 a.Type,
		Size:                 a.Size,
		RemoteURL:            a.RemoteURL,
		RemoteDeletionHandle: a.RemoteDeletionHandle,
		UploadedAt:           a.UploadedAt,
	}
}

// IsImageType reports whether a MIME type denotes an image.
func IsImageType(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/")
}

// SegmentType tags a content segment.
type SegmentType string

const (
	SegmentText  SegmentType = "text"
	SegmentImage SegmentType = "image_url"
)

// Segment is a transient typed fragment of an outgoing message. It is never stored.
type Segment struct {
	Type     SegmentType `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL string      `json:"image_url,omitempty"`
}

// TextSegment builds a text segment.
func TextSegment(text string) Segment {
	return Segment{Type: SegmentText, Text: text}
}

// ImageSegment builds an image segment from a remote URL or inline data URL.
func ImageSegment(url string) Segment {
	return Segment{Type: SegmentImage, ImageURL: url}
}

// Message is the canonical outgoing message sent to the model provider.
// A nil Segments means the content is the plain string in Content.
type Message struct {
	Role     string    `json:"role"`
	Content  string    `json:"content,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// IsMultipart reports whether the message carries a segment list.
func (m Message) IsMultipart() bool {
	return m.Segments != nil
}

// HasImages reports whether any segment is an image.
func (m Message) HasImages() bool {
	for _, s := range m.Segments {
		if s.Type == SegmentImage {
			return true
		}
	}
	return false
}

// Submission is one inbound user request against a conversation.
type Submission struct {
	ConversationID string        `json:"chatId" validate:"required"`
	Prompt         string        `json:"prompt"`
	Attachments    []*Attachment `json:"files"`
	IsEdit         bool          `json:"isEdit"`
	EditIndex      int           `json:"editIndex" validate:"gte=0"`
	Stream         bool          `json:"stream"`
	UserID         string        `json:"-"`
}

// Reply is the result of a blocking submission.
type Reply struct {
	Message     Turn          `json:"message"`
	UpdatedChat *Conversation `json:"updatedChat,omitempty"`
}

// Frame is one event of the streaming output protocol.
type Frame struct {
	Content     string        `json:"content"`
	FullContent string        `json:"fullContent"`
	Done        bool          `json:"done"`
	Message     *Turn         `json:"message,omitempty"`
	UpdatedChat *Conversation `json:"updatedChat,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// MarshalJSON renders error frames as {error, done[, fullContent]}.
func (f Frame) MarshalJSON() ([]byte, error) {
	if f.Error == "" {
		type plain Frame
		return json.Marshal(plain(f))
	}
	out := map[string]any{
		"error": f.Error,
		"done":  true,
	}
	if f.FullContent != "" {
		out["fullContent"] = f.FullContent
	}
	return json.Marshal(out)
}

// IsTerminal reports whether the frame ends the stream.
func (f Frame) IsTerminal() bool {
	return f.Done
}
