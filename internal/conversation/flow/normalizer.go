package flow

import (
	"strings"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/media"
)

// Normalize converts one turn into the message shape sent to the model.
// Assistant turns and user turns without attachments keep their text as a
// plain string. A user turn with attachments becomes a segment list: one text
// segment carrying the turn text plus each document's extracted block, and
// one image segment per image.
func Normalize(role, content string, attachments []*conversation.Attachment) conversation.Message {
	if role != conversation.RoleUser || len(attachments) == 0 {
		return conversation.Message{Role: role, Content: content}
	}

	var text strings.Builder
	text.WriteString(content)
	images := make([]conversation.Segment, 0, len(attachments))
	for _, att := range attachments {
		if att == nil {
			continue
		}
		if att.IsImage() {
			if url := imageReference(att); url != "" {
				images = append(images, conversation.ImageSegment(url))
			}
			continue
		}
		text.WriteString(documentBlock(att))
	}

	segments := make([]conversation.Segment, 0, len(images)+1)
	if combined := text.String(); strings.TrimSpace(combined) != "" {
		segments = append(segments, conversation.TextSegment(combined))
	}
	segments = append(segments, images...)
	if len(segments) == 0 {
		segments = append(segments, conversation.TextSegment(conversation.PlaceholderFileUploaded))
	}
	return conversation.Message{Role: role, Segments: segments}
}

// documentBlock is the text appended to the turn for one non-image attachment.
func documentBlock(att *conversation.Attachment) string {
	if extracted, ok := att.Extracted(); ok {
		return "\n\n[" + att.Name + " Content]\n" + extracted
	}
	if url, _ := att.Remote(); url != "" {
		return ""
	}
	return "\n\n[File " + att.Name + " was uploaded but content could not be processed]"
}

// imageReference prefers the uploaded URL over the inline payload.
func imageReference(att *conversation.Attachment) string {
	if url, _ := att.Remote(); strings.TrimSpace(url) != "" {
		return url
	}
	return media.NormalizeDataURL(att.Content, att.Type)
}

// NormalizeHistory converts stored turns. Stored turns no longer carry
// payloads, so only their uploaded images are rebuilt as attachments; the
// document chips are already part of the stored text.
func NormalizeHistory(turns []conversation.Turn) []conversation.Message {
	out := make([]conversation.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, Normalize(t.Role, t.Content, storedImages(t.Files)))
	}
	return out
}

func storedImages(files []conversation.FileRef) []*conversation.Attachment {
	var atts []*conversation.Attachment
	for _, f := range files {
		if !f.IsImage() || strings.TrimSpace(f.RemoteURL) == "" {
			continue
		}
		atts = append(atts, &conversation.Attachment{
			Name:                 f.Name,
			Type:                 f.Type,
			Size:                 f.Size,
			RemoteURL:            f.RemoteURL,
			RemoteDeletionHandle: f.RemoteDeletionHandle,
			UploadedAt:           f.UploadedAt,
		})
	}
	return atts
}
