package channel

import "strings"

// AllowList restricts which chats messages may be delivered to. An empty
// or nil AllowList denies everyone.
type AllowList struct {
	chats map[string]struct{}
}

// NewAllowList creates an AllowList from chat IDs and @usernames. Entries
// are trimmed and lowercased once here so lookups are direct.
func NewAllowList(chats []string) *AllowList {
	a := &AllowList{chats: make(map[string]struct{}, len(chats))}
	for _, c := range chats {
		a.chats[normalize(c)] = struct{}{}
	}
	return a
}

// IsAllowed reports whether chatID is on the list. Usernames compare
// case-insensitively, as Telegram resolves them.
func (a *AllowList) IsAllowed(chatID string) bool {
	if a == nil || len(a.chats) == 0 {
		return false
	}
	_, ok := a.chats[normalize(chatID)]
	return ok
}

// Len returns the number of entries.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.chats)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
