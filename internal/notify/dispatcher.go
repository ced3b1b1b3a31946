// Package notify renders detection alerts and fans them out to recipients.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/andresjosehr/dollarspy/internal/model"
	"github.com/andresjosehr/dollarspy/internal/service"
)

// Dispatcher delivers each alert once to every configured recipient.
// There is no retry or queue: a failed delivery is logged and dropped.
type Dispatcher struct {
	relay      service.Relay
	logger     *slog.Logger
	recipients []string
}

// NewDispatcher creates a dispatcher for a fixed recipient list.
func NewDispatcher(relay service.Relay, recipients []string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		relay:      relay,
		recipients: append([]string(nil), recipients...),
		logger:     logger,
	}
}

// Recipients returns a copy of the configured recipients.
func (d *Dispatcher) Recipients() []string {
	return append([]string(nil), d.recipients...)
}

// Send renders payload and delivers it to each recipient in order. A failure
// for one recipient never stops delivery to the next.
func (d *Dispatcher) Send(ctx context.Context, payload model.NotificationPayload) {
	if len(d.recipients) == 0 {
		d.logger.Warn("No notification recipients configured, alert dropped", "group", payload.GroupName)
		return
	}

	text := Render(payload)
	delivered := 0
	for _, recipient := range d.recipients {
		if err := d.deliver(ctx, recipient, text); err != nil {
			d.logger.Error("Failed to deliver notification",
				"recipient", recipient,
				"error", err)
			continue
		}
		delivered++
	}

	d.logger.Info("Notification sent",
		"delivered", delivered,
		"recipients", len(d.recipients))
}

// deliver isolates one recipient, including from a panicking relay.
func (d *Dispatcher) deliver(ctx context.Context, recipient, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("relay panicked: %v", r)
		}
	}()
	return d.relay.Deliver(ctx, recipient, text)
}

// Render formats the alert text.
func Render(p model.NotificationPayload) string {
	phone := "N/A"
	if p.SenderPhone != "" {
		phone = "+" + p.SenderPhone
	}

	return fmt.Sprintf("💵 %s DETECTADA\n\nGrupo: %s\nDe: %s\nTel: %s\nConfianza: %d%%\n\n\"%s\"",
		p.Type.Label(),
		p.GroupName,
		p.SenderName,
		phone,
		p.ConfidencePercent,
		model.Excerpt(p.MessageExcerpt, model.MaxExcerptLength),
	)
}

// Silent is a Notifier used when notifications are disabled.
type Silent struct {
	Logger *slog.Logger
}

// Send logs the alert at debug level and delivers nothing.
func (s Silent) Send(_ context.Context, payload model.NotificationPayload) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Notifications disabled, alert not sent", "group", payload.GroupName)
}
