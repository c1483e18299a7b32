package flow

import (
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/models"
)

// Assembly is the ordered message list and the variant chosen for it.
type Assembly struct {
	Messages []conversation.Message
	Variant  models.Variant
}

// Assemble prepends the memory preamble to the newest user message only and
// routes to the vision variant when the submitted turn carries an image.
func Assemble(messages []conversation.Message, preamble string, catalog models.Catalog, hasImages bool) Assembly {
	out := make([]conversation.Message, len(messages))
	copy(out, messages)
	if preamble != "" {
		if idx := lastUserIndex(out); idx >= 0 {
			out[idx] = withPreamble(out[idx], preamble)
		}
	}
	variant := catalog.Select(hasImages)
	return Assembly{
		Messages: fitToVariant(out, variant),
		Variant:  variant,
	}
}

func lastUserIndex(messages []conversation.Message) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == conversation.RoleUser {
			return i
		}
	}
	return -1
}

func withPreamble(msg conversation.Message, preamble string) conversation.Message {
	if !msg.IsMultipart() {
		msg.Content = preamble + msg.Content
		return msg
	}
	segments := make([]conversation.Segment, 0, len(msg.Segments)+1)
	inserted := false
	for _, seg := range msg.Segments {
		if !inserted && seg.Type == conversation.SegmentText {
			seg.Text = preamble + seg.Text
			inserted = true
		}
		segments = append(segments, seg)
	}
	if !inserted {
		segments = append([]conversation.Segment{conversation.TextSegment(preamble)}, segments...)
	}
	msg.Segments = segments
	return msg
}

// hasImageAttachment reports whether any submitted attachment is an image.
func hasImageAttachment(attachments []*conversation.Attachment) bool {
	for _, att := range attachments {
		if att != nil && att.IsImage() {
			return true
		}
	}
	return false
}
