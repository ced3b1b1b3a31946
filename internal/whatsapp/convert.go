package whatsapp

import (
	"github.com/andresjosehr/dollarspy/internal/model"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// Connection state labels reported on the control plane.
const (
	StateConnected    = "CONNECTED"
	StateOpening      = "OPENING"
	StateDisconnected = "DISCONNECTED"
	StateUnpaired     = "UNPAIRED"
)

// stateLabel maps client flags to a state label.
func stateLabel(paired, connected, loggedIn bool) string {
	switch {
	case !paired:
		return StateUnpaired
	case connected && loggedIn:
		return StateConnected
	case connected:
		return StateOpening
	default:
		return StateDisconnected
	}
}

// messageText returns the user-visible text of a message: the plain body,
// the extended text, or a media caption.
func messageText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if text := msg.GetConversation(); text != "" {
		return text
	}
	if text := msg.GetExtendedTextMessage().GetText(); text != "" {
		return text
	}
	if text := msg.GetImageMessage().GetCaption(); text != "" {
		return text
	}
	if text := msg.GetVideoMessage().GetCaption(); text != "" {
		return text
	}
	return msg.GetDocumentMessage().GetCaption()
}

// inboundFromEvent converts a message event. Messages sent by this account
// are skipped.
func inboundFromEvent(evt *events.Message) (model.InboundMessage, bool) {
	if evt == nil || evt.Info.IsFromMe {
		return model.InboundMessage{}, false
	}

	msg := model.InboundMessage{
		ReceivedAt: evt.Info.Timestamp,
		ID:         string(evt.Info.ID),
		OriginID:   evt.Info.Chat.String(),
		PushName:   evt.Info.PushName,
		Body:       messageText(evt.Message),
	}
	if !evt.Info.Sender.IsEmpty() {
		msg.AuthorID = evt.Info.Sender.ToNonAD().String()
	}
	return msg, true
}

// contactFromInfo picks the best display name the address book has for jid.
func contactFromInfo(jid types.JID, info types.ContactInfo) model.Contact {
	contact := model.Contact{}
	if jid.Server == types.DefaultUserServer {
		contact.PhoneNumber = jid.User
	}
	if !info.Found {
		return contact
	}
	for _, name := range []string{info.FullName, info.FirstName, info.PushName, info.BusinessName} {
		if name != "" {
			contact.DisplayName = name
			break
		}
	}
	return contact
}

// groupsFromInfo converts joined-group metadata to registry groups.
func groupsFromInfo(infos []*types.GroupInfo) []model.Group {
	groups := make([]model.Group, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		groups = append(groups, model.Group{ID: info.JID.String(), Name: info.Name})
	}
	return groups
}

// parseAddress parses a transport id, accepting the legacy "@c.us" suffix.
func parseAddress(id string) (types.JID, error) {
	user, server := model.SplitAddress(id)
	if server == model.LegacyUserServer {
		id = user + "@" + types.DefaultUserServer
	}
	return types.ParseJID(id)
}
