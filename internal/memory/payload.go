package memory

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// snippetKeys lists the payload fields that may hold the memory body, in order.
var snippetKeys = []string{"memory", "text", "content"}

func buildPayload(userID string, msg Message, createdAt time.Time) map[string]any {
	text := strings.TrimSpace(msg.Content)
	return map[string]any{
		"memory":     text,
		"role":       msg.Role,
		"user_id":    userID,
		"hash":       hashMemory(text),
		"created_at": createdAt.UTC().Format(time.RFC3339),
	}
}

func payloadToItem(id string, payload map[string]any) Item {
	item := Item{ID: id, Memory: snippetText(payload)}
	if v, ok := payload["role"].(string); ok {
		item.Role = v
	}
	if v, ok := payload["user_id"].(string); ok {
		item.UserID = v
	}
	if v, ok := payload["hash"].(string); ok {
		item.Hash = v
	}
	if v, ok := payload["created_at"].(string); ok {
		item.CreatedAt = v
	}
	return item
}

func snippetText(payload map[string]any) string {
	for _, key := range snippetKeys {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
	}
	return ""
}

func hashMemory(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// pointID is stable per user and text so re-adding the same memory overwrites it.
func pointID(userID, text string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+"\x00"+hashMemory(text))).String()
}
