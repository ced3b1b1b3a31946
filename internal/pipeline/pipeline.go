// Package pipeline gates inbound chat messages, classifies the ones that belong
// to monitored groups and raises alerts for detected dollar offers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/andresjosehr/dollarspy/internal/classification"
	"github.com/andresjosehr/dollarspy/internal/model"
	"github.com/andresjosehr/dollarspy/internal/service"
	"github.com/google/uuid"
)

// Outcome records where a message left the pipeline.
type Outcome string

// Pipeline outcomes, in gate order.
const (
	OutcomeNoMonitoredGroups Outcome = "no_monitored_groups"
	OutcomeNotGroup          Outcome = "not_group"
	OutcomeNotMonitored      Outcome = "not_monitored"
	OutcomeEmptyBody         Outcome = "empty_body"
	OutcomeNoMatch           Outcome = "no_match"
	OutcomeDetected          Outcome = "detected"
)

const logExcerptLength = 100

var phonePattern = regexp.MustCompile(`^\d{10,15}$`)

// Pipeline wires the registry, classifier, transport and notifier together.
type Pipeline struct {
	registry   service.GroupRegistry
	classifier service.Classifier
	transport  service.Transport
	notifier   service.Notifier
	logger     *slog.Logger
	newID      func() string
	inflight   sync.WaitGroup
}

// New creates a pipeline.
func New(
	registry service.GroupRegistry,
	classifier service.Classifier,
	transport service.Transport,
	notifier service.Notifier,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		registry:   registry,
		classifier: classifier,
		transport:  transport,
		notifier:   notifier,
		logger:     logger,
		newID:      func() string { return uuid.New().String() },
	}
}

// Run consumes msgs in arrival order until the channel closes or ctx is done.
// Gating and classification happen on the calling goroutine; each detection is
// enriched and dispatched on its own goroutine, so alerts may complete out of
// arrival order. Run waits for in-flight alerts before returning.
func (p *Pipeline) Run(ctx context.Context, msgs <-chan model.InboundMessage) error {
	defer p.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			result, outcome := p.Screen(ctx, msg)
			if outcome != OutcomeDetected {
				continue
			}

			p.inflight.Add(1)
			go func() {
				defer p.inflight.Done()
				p.Alert(context.WithoutCancel(ctx), msg, result)
			}()
		}
	}
}

// Handle screens msg and, on a detection, raises the alert before returning.
func (p *Pipeline) Handle(ctx context.Context, msg model.InboundMessage) Outcome {
	result, outcome := p.Screen(ctx, msg)
	if outcome == OutcomeDetected {
		p.Alert(ctx, msg, result)
	}
	return outcome
}

// Screen applies the gates cheapest first and classifies messages that pass.
func (p *Pipeline) Screen(ctx context.Context, msg model.InboundMessage) (model.DetectionResult, Outcome) {
	groups, err := p.registry.List(ctx)
	if err != nil {
		p.logger.Error("Failed to load monitored groups", "error", err)
		return model.DetectionResult{}, OutcomeNoMonitoredGroups
	}
	if len(groups) == 0 {
		return model.DetectionResult{}, OutcomeNoMonitoredGroups
	}

	if !msg.IsGroup() {
		return model.DetectionResult{}, OutcomeNotGroup
	}

	if !containsGroup(groups, msg.OriginID) {
		return model.DetectionResult{}, OutcomeNotMonitored
	}

	if msg.Body == "" {
		return model.DetectionResult{}, OutcomeEmptyBody
	}

	result := p.classifier.Classify(msg.Body)
	if !result.IsMatch {
		p.logger.Debug("Message did not match",
			"group", msg.OriginID,
			"confidence", result.Confidence)
		return result, OutcomeNoMatch
	}

	return result, OutcomeDetected
}

// Alert enriches the sender and group identity of a detected message, logs it
// and hands it to the notifier. Failures are logged and never propagate.
func (p *Pipeline) Alert(ctx context.Context, msg model.InboundMessage, result model.DetectionResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Alert processing panicked",
				"message_id", msg.ID,
				"error", fmt.Sprint(r))
		}
	}()

	sender, phone := p.resolveSender(ctx, msg)
	groupName := p.resolveGroupName(ctx, msg.OriginID)

	p.logger.Info("Dollar offer detected",
		"detection_id", p.newID(),
		"type", string(result.Type),
		"confidence", result.ConfidencePercent(),
		"sender", sender,
		"phone", phone,
		"group", groupName,
		"amounts", result.Evidence.Amounts,
		"rates", result.Evidence.Rates,
		"payment_methods", result.Evidence.PaymentMethods,
		"summary", classification.FormatDetection(result, sender),
		"message", logExcerpt(msg.Body))

	p.notifier.Send(ctx, model.NotificationPayload{
		Type:              result.Type,
		SenderName:        sender,
		SenderPhone:       phone,
		GroupName:         groupName,
		MessageExcerpt:    model.Excerpt(msg.Body, model.MaxExcerptLength),
		ConfidencePercent: result.ConfidencePercent(),
	})
}

func (p *Pipeline) resolveSender(ctx context.Context, msg model.InboundMessage) (name, phone string) {
	name = firstNonEmpty(msg.PushName, msg.AuthorID, msg.OriginID)

	contact, err := p.transport.ResolveContact(ctx, msg)
	switch {
	case err == nil:
		if name == "" || strings.Contains(name, "@") {
			name = firstNonEmpty(contact.DisplayName, contact.PhoneNumber, name)
		}
		if phonePattern.MatchString(contact.PhoneNumber) {
			phone = contact.PhoneNumber
		}
	case errors.Is(err, service.ErrIdentityUnavailable):
		p.logger.Debug("Sender identity unavailable", "author", msg.AuthorID)
	default:
		p.logger.Error("Failed to resolve sender", "author", msg.AuthorID, "error", err)
	}

	if phone == "" {
		phone = phoneFromAddress(msg.AuthorID)
	}
	return name, phone
}

func (p *Pipeline) resolveGroupName(ctx context.Context, originID string) string {
	name, err := p.transport.ResolveChatName(ctx, originID)
	if err != nil {
		if !errors.Is(err, service.ErrIdentityUnavailable) {
			p.logger.Error("Failed to resolve group name", "group", originID, "error", err)
		}
		return originID
	}
	if name == "" {
		return originID
	}
	return name
}

// phoneFromAddress extracts the number from a phone-number user address.
// Hidden-number identities yield an empty string.
func phoneFromAddress(id string) string {
	user, server := model.SplitAddress(id)
	if server != model.UserServer && server != model.LegacyUserServer {
		return ""
	}
	// Device suffixes look like "584141234567:12".
	if colon := strings.Index(user, ":"); colon >= 0 {
		user = user[:colon]
	}
	if !phonePattern.MatchString(user) {
		return ""
	}
	return user
}

func containsGroup(groups []model.Group, id string) bool {
	for _, g := range groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func logExcerpt(body string) string {
	excerpt := model.Excerpt(body, logExcerptLength)
	if excerpt != body {
		return excerpt + "..."
	}
	return excerpt
}
