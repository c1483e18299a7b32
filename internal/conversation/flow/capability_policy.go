package flow

import (
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/models"
)

// segmentModality maps a segment type to the input modality it requires.
var segmentModality = map[conversation.SegmentType]string{
	conversation.SegmentText:  models.ModelInputText,
	conversation.SegmentImage: models.ModelInputImage,
}

// capabilityRouteResult holds the outcome of splitting segments by model capability.
type capabilityRouteResult struct {
	// Native are segments the variant can consume directly.
	Native []conversation.Segment
	// Fallback are segments whose modality is unsupported; they are rendered
	// as text markers instead.
	Fallback []conversation.Segment
}

// routeSegmentsByCapability splits segments based on the variant's supported
// input modalities.
func routeSegmentsByCapability(modalities []string, segments []conversation.Segment) capabilityRouteResult {
	supported := make(map[string]struct{}, len(modalities))
	for _, m := range modalities {
		supported[m] = struct{}{}
	}

	result := capabilityRouteResult{
		Native:   make([]conversation.Segment, 0, len(segments)),
		Fallback: make([]conversation.Segment, 0),
	}
	for _, seg := range segments {
		required, known := segmentModality[seg.Type]
		if !known {
			result.Fallback = append(result.Fallback, seg)
			continue
		}
		if _, ok := supported[required]; ok {
			result.Native = append(result.Native, seg)
		} else {
			result.Fallback = append(result.Fallback, seg)
		}
	}
	return result
}

// fitToVariant rewrites messages the variant cannot consume. Historical image
// segments sent to a text-only variant become "[Image]" markers in the text.
func fitToVariant(messages []conversation.Message, variant models.Variant) []conversation.Message {
	for i, msg := range messages {
		if !msg.IsMultipart() {
			continue
		}
		routed := routeSegmentsByCapability(variant.InputModalities, msg.Segments)
		if len(routed.Fallback) == 0 {
			continue
		}
		messages[i] = withFallbackMarkers(msg, routed)
	}
	return messages
}

func withFallbackMarkers(msg conversation.Message, routed capabilityRouteResult) conversation.Message {
	text := ""
	images := make([]conversation.Segment, 0, len(routed.Native))
	for _, seg := range routed.Native {
		if seg.Type == conversation.SegmentText {
			text += seg.Text
			continue
		}
		images = append(images, seg)
	}
	for range routed.Fallback {
		if text != "" {
			text += " "
		}
		text += conversation.PlaceholderImage
	}
	if len(images) == 0 {
		return conversation.Message{Role: msg.Role, Content: text}
	}
	msg.Segments = append([]conversation.Segment{conversation.TextSegment(text)}, images...)
	return msg
}
