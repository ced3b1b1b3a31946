// Package service defines the capabilities the core depends on.
package service

import (
	"context"
	"errors"

	"github.com/andresjosehr/dollarspy/internal/model"
)

// ErrIdentityUnavailable reports that the transport cannot resolve an identity
// for this representation (for example a hidden-number sender). It is an
// expected outcome, not a failure.
var ErrIdentityUnavailable = errors.New("identity unavailable")

// Transport is the chat network connection the monitor runs on.
type Transport interface {
	// ConnectionState returns a short state label such as "CONNECTED".
	ConnectionState(ctx context.Context) (string, error)
	// ListAllGroups returns every group the account belongs to.
	ListAllGroups(ctx context.Context) ([]model.Group, error)
	// ResolveContact resolves the sender of msg. Returns ErrIdentityUnavailable
	// when the transport has no way to resolve this sender.
	ResolveContact(ctx context.Context, msg model.InboundMessage) (model.Contact, error)
	// ResolveChatName returns the display name of a conversation.
	ResolveChatName(ctx context.Context, originID string) (string, error)
}

// Relay delivers a rendered alert to one recipient.
type Relay interface {
	Deliver(ctx context.Context, recipient, text string) error
}

// Classifier scores message text.
type Classifier interface {
	Classify(text string) model.DetectionResult
}

// GroupRegistry is the persisted set of monitored groups.
type GroupRegistry interface {
	List(ctx context.Context) ([]model.Group, error)
	ReplaceAll(ctx context.Context, groups []model.Group) (int, error)
	Contains(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, id, name string) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
}

// Notifier fans an alert out to the configured recipients.
type Notifier interface {
	Send(ctx context.Context, payload model.NotificationPayload)
}
