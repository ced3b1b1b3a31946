package model

import "strings"

// Origin server suffixes used by the chat transport to scope conversation ids.
const (
	// GroupServer marks a group conversation ("<id>@g.us").
	GroupServer = "g.us"
	// UserServer marks a direct conversation keyed by phone number.
	UserServer = "s.whatsapp.net"
	// LegacyUserServer is the older phone-number server suffix.
	LegacyUserServer = "c.us"
	// HiddenUserServer marks an identity that hides the phone number.
	HiddenUserServer = "lid"
)

// Group is a chat group as reported by the transport. The ID is used verbatim.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GroupStatus is a transport group annotated with registry membership.
type GroupStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Monitored bool   `json:"monitored"`
}

// IsGroupOrigin reports whether an origin id belongs to a group conversation.
func IsGroupOrigin(originID string) bool {
	return strings.HasSuffix(originID, "@"+GroupServer)
}

// SplitAddress splits "user@server" into its parts. Ids without "@" return an empty server.
func SplitAddress(id string) (user, server string) {
	at := strings.LastIndex(id, "@")
	if at < 0 {
		return id, ""
	}
	return id[:at], id[at+1:]
}
