package media

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultMaxPayloadBytes bounds a decoded payload when no limit is configured.
const DefaultMaxPayloadBytes int64 = 25 << 20

// DecodePayload decodes an inline attachment payload given either as a
// data URL ("data:<mime>;base64,<data>") or as bare base64. Payloads that
// decode to more than maxBytes fail with ErrAssetTooLarge.
func DecodePayload(input string, maxBytes int64) ([]byte, error) {
	value := StripDataURL(input)
	if value == "" {
		return nil, ErrEmptyPayload
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadBytes
	}
	// Padding accounts for at most two bytes of DecodedLen.
	if int64(base64.StdEncoding.DecodedLen(len(value)))-2 > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrAssetTooLarge, maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrAssetTooLarge, maxBytes)
	}
	return data, nil
}

// StripDataURL removes a data URL header, returning the encoded body.
func StripDataURL(input string) string {
	value := strings.TrimSpace(input)
	if strings.HasPrefix(strings.ToLower(value), "data:") {
		if idx := strings.Index(value, ","); idx >= 0 {
			value = value[idx+1:]
		}
	}
	return value
}

// NormalizeDataURL ensures an inline payload carries a data URL header so it
// can be handed to the model as an image reference.
func NormalizeDataURL(input, mime string) string {
	value := strings.TrimSpace(input)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(value), "data:") {
		return value
	}
	mime = strings.TrimSpace(mime)
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + value
}
