package model

import "time"

// InboundMessage is a chat message delivered by the transport.
type InboundMessage struct {
	ReceivedAt time.Time
	ID         string
	OriginID   string
	AuthorID   string
	PushName   string
	Body       string
}

// IsGroup reports whether the message arrived on a group conversation.
func (m InboundMessage) IsGroup() bool {
	return IsGroupOrigin(m.OriginID)
}

// Contact is the sender identity resolved by the transport.
type Contact struct {
	DisplayName string
	PhoneNumber string
}
