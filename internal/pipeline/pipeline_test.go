package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andresjosehr/dollarspy/internal/classification"
	"github.com/andresjosehr/dollarspy/internal/model"
	"github.com/andresjosehr/dollarspy/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const monitoredGroup = "120363025246125486@g.us"

type fakeRegistry struct {
	err    error
	groups []model.Group
}

func (f *fakeRegistry) List(context.Context) ([]model.Group, error) {
	return f.groups, f.err
}

func (f *fakeRegistry) ReplaceAll(_ context.Context, groups []model.Group) (int, error) {
	f.groups = groups
	return len(groups), nil
}

func (f *fakeRegistry) Contains(_ context.Context, id string) (bool, error) {
	return containsGroup(f.groups, id), nil
}

func (f *fakeRegistry) Add(context.Context, string, string) (bool, error) {
	return false, nil
}

func (f *fakeRegistry) Remove(context.Context, string) (bool, error) {
	return false, nil
}

type spyClassifier struct {
	inner service.Classifier
	calls int
	mu    sync.Mutex
}

func (s *spyClassifier) Classify(text string) model.DetectionResult {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.inner.Classify(text)
}

func (s *spyClassifier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeTransport struct {
	contactErr error
	chatErr    error
	contact    model.Contact
	chatName   string
}

func (f *fakeTransport) ConnectionState(context.Context) (string, error) {
	return "CONNECTED", nil
}

func (f *fakeTransport) ListAllGroups(context.Context) ([]model.Group, error) {
	return nil, nil
}

func (f *fakeTransport) ResolveContact(context.Context, model.InboundMessage) (model.Contact, error) {
	return f.contact, f.contactErr
}

func (f *fakeTransport) ResolveChatName(context.Context, string) (string, error) {
	return f.chatName, f.chatErr
}

type recordingNotifier struct {
	payloads []model.NotificationPayload
	panics   bool
	mu       sync.Mutex
}

func (r *recordingNotifier) Send(_ context.Context, payload model.NotificationPayload) {
	r.mu.Lock()
	r.payloads = append(r.payloads, payload)
	r.mu.Unlock()
	if r.panics {
		panic("relay exploded")
	}
}

func (r *recordingNotifier) Payloads() []model.NotificationPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.NotificationPayload(nil), r.payloads...)
}

type harness struct {
	registry   *fakeRegistry
	classifier *spyClassifier
	transport  *fakeTransport
	notifier   *recordingNotifier
	pipeline   *Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	detector, err := classification.NewDefaultDetector()
	require.NoError(t, err)

	h := &harness{
		registry:   &fakeRegistry{groups: []model.Group{{ID: monitoredGroup, Name: "Dolares"}}},
		classifier: &spyClassifier{inner: detector},
		transport: &fakeTransport{
			contact:  model.Contact{DisplayName: "Maria Contact", PhoneNumber: "584141234567"},
			chatName: "Dolares Caracas",
		},
		notifier: &recordingNotifier{},
	}
	h.pipeline = New(h.registry, h.classifier, h.transport, h.notifier, nil)
	h.pipeline.newID = func() string { return "test-id" }
	return h
}

func offerMessage() model.InboundMessage {
	return model.InboundMessage{
		ID:       "ABC123",
		OriginID: monitoredGroup,
		AuthorID: "584141234567@s.whatsapp.net",
		PushName: "Maria",
		Body:     "Vendo 100 dolares por zelle",
	}
}

func TestPipeline_GatesSkipClassifier(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(h *harness, msg *model.InboundMessage)
		outcome Outcome
	}{
		{
			name: "no monitored groups",
			mutate: func(h *harness, _ *model.InboundMessage) {
				h.registry.groups = nil
			},
			outcome: OutcomeNoMonitoredGroups,
		},
		{
			name: "registry failure",
			mutate: func(h *harness, _ *model.InboundMessage) {
				h.registry.err = errors.New("disk on fire")
			},
			outcome: OutcomeNoMonitoredGroups,
		},
		{
			name: "direct conversation",
			mutate: func(_ *harness, msg *model.InboundMessage) {
				msg.OriginID = "584141234567@s.whatsapp.net"
			},
			outcome: OutcomeNotGroup,
		},
		{
			name: "group not monitored",
			mutate: func(_ *harness, msg *model.InboundMessage) {
				msg.OriginID = "999@g.us"
			},
			outcome: OutcomeNotMonitored,
		},
		{
			name: "empty body",
			mutate: func(_ *harness, msg *model.InboundMessage) {
				msg.Body = ""
			},
			outcome: OutcomeEmptyBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			msg := offerMessage()
			tt.mutate(h, &msg)

			outcome := h.pipeline.Handle(context.Background(), msg)

			assert.Equal(t, tt.outcome, outcome)
			assert.Zero(t, h.classifier.Calls())
			assert.Empty(t, h.notifier.Payloads())
		})
	}
}

func TestPipeline_NoMatchDoesNotNotify(t *testing.T) {
	h := newHarness(t)
	msg := offerMessage()
	msg.Body = "hola como estas"

	outcome := h.pipeline.Handle(context.Background(), msg)

	assert.Equal(t, OutcomeNoMatch, outcome)
	assert.Equal(t, 1, h.classifier.Calls())
	assert.Empty(t, h.notifier.Payloads())
}

func TestPipeline_DetectionNotifies(t *testing.T) {
	h := newHarness(t)

	outcome := h.pipeline.Handle(context.Background(), offerMessage())

	assert.Equal(t, OutcomeDetected, outcome)
	payloads := h.notifier.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, model.NotificationPayload{
		Type:              model.OfferSell,
		SenderName:        "Maria",
		SenderPhone:       "584141234567",
		GroupName:         "Dolares Caracas",
		MessageExcerpt:    "Vendo 100 dolares por zelle",
		ConfidencePercent: 100,
	}, payloads[0])
}

func TestPipeline_Enrichment(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(h *harness, msg *model.InboundMessage)
		wantName  string
		wantPhone string
		wantGroup string
	}{
		{
			name: "contact unavailable falls back to author number",
			mutate: func(h *harness, _ *model.InboundMessage) {
				h.transport.contactErr = service.ErrIdentityUnavailable
			},
			wantName:  "Maria",
			wantPhone: "584141234567",
			wantGroup: "Dolares Caracas",
		},
		{
			name: "hidden number sender degrades to empty phone",
			mutate: func(h *harness, msg *model.InboundMessage) {
				h.transport.contactErr = service.ErrIdentityUnavailable
				msg.AuthorID = "123456789012345@lid"
			},
			wantName:  "Maria",
			wantPhone: "",
			wantGroup: "Dolares Caracas",
		},
		{
			name: "contact failure still notifies",
			mutate: func(h *harness, msg *model.InboundMessage) {
				h.transport.contactErr = errors.New("connection reset")
				msg.AuthorID = "123@lid"
			},
			wantName:  "Maria",
			wantPhone: "",
			wantGroup: "Dolares Caracas",
		},
		{
			name: "address-like sender name replaced by contact name",
			mutate: func(_ *harness, msg *model.InboundMessage) {
				msg.PushName = ""
				msg.AuthorID = "123@lid"
			},
			wantName:  "Maria Contact",
			wantPhone: "584141234567",
			wantGroup: "Dolares Caracas",
		},
		{
			name: "short contact number rejected",
			mutate: func(h *harness, msg *model.InboundMessage) {
				h.transport.contact.PhoneNumber = "12345"
				msg.AuthorID = "123@lid"
			},
			wantName:  "Maria",
			wantPhone: "",
			wantGroup: "Dolares Caracas",
		},
		{
			name: "device suffix stripped from author",
			mutate: func(h *harness, msg *model.InboundMessage) {
				h.transport.contactErr = service.ErrIdentityUnavailable
				msg.AuthorID = "584141234567:12@s.whatsapp.net"
			},
			wantName:  "Maria",
			wantPhone: "584141234567",
			wantGroup: "Dolares Caracas",
		},
		{
			name: "group name failure falls back to origin id",
			mutate: func(h *harness, _ *model.InboundMessage) {
				h.transport.chatErr = errors.New("timeout")
			},
			wantName:  "Maria",
			wantPhone: "584141234567",
			wantGroup: monitoredGroup,
		},
		{
			name: "empty group name falls back to origin id",
			mutate: func(h *harness, _ *model.InboundMessage) {
				h.transport.chatName = ""
			},
			wantName:  "Maria",
			wantPhone: "584141234567",
			wantGroup: monitoredGroup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			msg := offerMessage()
			tt.mutate(h, &msg)

			require.Equal(t, OutcomeDetected, h.pipeline.Handle(context.Background(), msg))

			payloads := h.notifier.Payloads()
			require.Len(t, payloads, 1)
			assert.Equal(t, tt.wantName, payloads[0].SenderName)
			assert.Equal(t, tt.wantPhone, payloads[0].SenderPhone)
			assert.Equal(t, tt.wantGroup, payloads[0].GroupName)
		})
	}
}

func TestPipeline_NotifierPanicIsContained(t *testing.T) {
	h := newHarness(t)
	h.notifier.panics = true

	assert.NotPanics(t, func() {
		h.pipeline.Handle(context.Background(), offerMessage())
		h.pipeline.Handle(context.Background(), offerMessage())
	})
	assert.Len(t, h.notifier.Payloads(), 2)
}

func TestPipeline_Run(t *testing.T) {
	h := newHarness(t)

	msgs := make(chan model.InboundMessage, 4)
	msgs <- offerMessage()
	msgs <- model.InboundMessage{OriginID: "1@s.whatsapp.net", Body: "vendo 100 dolares"}
	second := offerMessage()
	second.Body = "busco 50 usd zelle"
	msgs <- second
	close(msgs)

	err := h.pipeline.Run(context.Background(), msgs)
	require.NoError(t, err)

	// Run waits for in-flight alerts; order between them is not guaranteed.
	payloads := h.notifier.Payloads()
	require.Len(t, payloads, 2)
	types := []model.OfferType{payloads[0].Type, payloads[1].Type}
	assert.ElementsMatch(t, []model.OfferType{model.OfferSell, model.OfferBuy}, types)
	assert.Equal(t, 2, h.classifier.Calls())
}

func TestPipeline_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- h.pipeline.Run(ctx, make(chan model.InboundMessage))
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPhoneFromAddress(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"584141234567@s.whatsapp.net", "584141234567"},
		{"584141234567@c.us", "584141234567"},
		{"584141234567:3@s.whatsapp.net", "584141234567"},
		{"123456789012345@lid", ""},
		{"12345@s.whatsapp.net", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, phoneFromAddress(tt.id))
		})
	}
}

func TestLogExcerpt(t *testing.T) {
	short := "vendo 100"
	assert.Equal(t, short, logExcerpt(short))

	long := make([]rune, 150)
	for i := range long {
		long[i] = 'x'
	}
	got := logExcerpt(string(long))
	assert.Len(t, got, logExcerptLength+3)
	assert.Equal(t, "...", got[len(got)-3:])
}
