package repositories

import (
	"fmt"
	"strings"
	"time"
)

// Record is a human readable view of a stored entry, used by the inspectors.
type Record struct {
	Kind     string
	EntityID string
	At       time.Time
	Detail   string
}

// Describe decodes the entry stored at key. Unknown or undecodable values are
// reported by size only.
func Describe(key string, val []byte) Record {
	raw := Record{Kind: "raw", EntityID: lastSuffix([]byte(key)), Detail: fmt.Sprintf("%d bytes", len(val))}
	switch {
	case strings.HasPrefix(key, "idx:"):
		raw.Kind = "index"
		raw.Detail = "-> " + string(val)
		if len(val) == 0 {
			raw.Detail = "-"
		}
		return raw
	case strings.HasPrefix(key, userPrefix):
		var d diskUser
		if unmarshal(val, &d) != nil {
			return raw
		}
		handle := "-"
		if d.Username != nil {
			handle = "@" + *d.Username
		}
		return Record{Kind: "user", EntityID: fmt.Sprint(d.ID), At: fromNano(d.CreatedAt),
			Detail: fmt.Sprintf("%s %s %s online=%t", d.FirstName, handle, d.Phone, d.IsOnline)}
	case strings.HasPrefix(key, chatPrefix):
		var d diskChat
		if unmarshal(val, &d) != nil {
			return raw
		}
		return Record{Kind: "chat", EntityID: fmt.Sprint(d.ID), At: fromNano(d.CreatedAt),
			Detail: fmt.Sprintf("[%s] %s", d.Type, d.Name)}
	case strings.HasPrefix(key, memberPrefix):
		var d diskMembership
		if unmarshal(val, &d) != nil {
			return raw
		}
		return Record{Kind: "member", EntityID: fmt.Sprintf("%d/%d", d.ChatID, d.UserID), At: fromNano(d.JoinedAt),
			Detail: d.Role}
	case strings.HasPrefix(key, messagePrefix):
		var d diskMessage
		if unmarshal(val, &d) != nil {
			return raw
		}
		return Record{Kind: "message", EntityID: fmt.Sprint(d.ID), At: fromNano(d.CreatedAt),
			Detail: fmt.Sprintf("chat %d from %d: %s", d.ChatID, d.SenderID, d.Content)}
	case strings.HasPrefix(key, botPrefix):
		var d diskBot
		if unmarshal(val, &d) != nil {
			return raw
		}
		return Record{Kind: "bot", EntityID: fmt.Sprint(d.ID), At: fromNano(d.CreatedAt),
			Detail: fmt.Sprintf("%s @%s owner=%d", d.Name, d.Username, d.CreatedBy)}
	}
	return raw
}
