// Package whatsapp adapts a whatsmeow client to the monitor's transport contract.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/andresjosehr/dollarspy/internal/common"
	"github.com/andresjosehr/dollarspy/internal/model"
	"github.com/andresjosehr/dollarspy/internal/service"
	// Registers the sqlite3 driver used by the session store.
	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

const messageBuffer = 256

// Options configures a Client.
type Options struct {
	Logger      *slog.Logger
	QRWriter    io.Writer
	SessionPath string
}

// Client is the production chat transport.
type Client struct {
	wa        *whatsmeow.Client
	container *sqlstore.Container
	logger    *slog.Logger
	qrWriter  io.Writer
	messages  chan model.InboundMessage
	fatal     chan error
	done      chan struct{}
	closeOnce sync.Once
}

// Open loads (or creates) the session store and builds an unconnected client.
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.SessionPath == "" {
		return nil, fmt.Errorf("%w: whatsapp session path is empty", common.ErrInvalidConfig)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	qrWriter := opts.QRWriter
	if qrWriter == nil {
		qrWriter = os.Stdout
	}

	if err := os.MkdirAll(filepath.Dir(opts.SessionPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", opts.SessionPath)
	container, err := sqlstore.New(ctx, "sqlite3", dsn, NewLogger(logger, "store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to load device: %w", err)
	}

	c := &Client{
		wa:        whatsmeow.NewClient(device, NewLogger(logger, "client")),
		container: container,
		logger:    logger,
		qrWriter:  qrWriter,
		messages:  make(chan model.InboundMessage, messageBuffer),
		fatal:     make(chan error, 1),
		done:      make(chan struct{}),
	}
	c.wa.AddEventHandler(c.handleEvent)
	return c, nil
}

// Messages returns the inbound message stream. It is never closed; stop
// reading when the monitor shuts down.
func (c *Client) Messages() <-chan model.InboundMessage {
	return c.messages
}

// Fatal delivers at most one error when the session is logged out or replaced.
func (c *Client) Fatal() <-chan error {
	return c.fatal
}

// Connect connects to the network. An unpaired device prints a QR code and
// blocks until it is scanned or pairing fails.
func (c *Client) Connect(ctx context.Context) error {
	if c.wa.Store.ID != nil {
		if err := c.wa.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := c.wa.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to start pairing: %w", err)
	}
	if err := c.wa.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	for item := range qrChan {
		switch item.Event {
		case "code":
			_, _ = fmt.Fprintln(c.qrWriter, "Scan this QR code with WhatsApp (Linked devices):")
			qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, c.qrWriter)
		case whatsmeow.QRChannelSuccess.Event:
			c.logger.Info("Device paired")
			return nil
		default:
			c.wa.Disconnect()
			if item.Error != nil {
				return fmt.Errorf("%w: pairing failed: %w", common.ErrTransportFatal, item.Error)
			}
			return fmt.Errorf("%w: pairing failed: %s", common.ErrTransportFatal, item.Event)
		}
	}

	if ctx.Err() != nil {
		c.wa.Disconnect()
		return ctx.Err()
	}
	return nil
}

// Close disconnects and releases the session store.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.wa.Disconnect()
		err = c.container.Close()
	})
	return err
}

// ConnectionState implements service.Transport.
func (c *Client) ConnectionState(_ context.Context) (string, error) {
	return stateLabel(c.wa.Store.ID != nil, c.wa.IsConnected(), c.wa.IsLoggedIn()), nil
}

// ListAllGroups implements service.Transport.
func (c *Client) ListAllGroups(ctx context.Context) ([]model.Group, error) {
	infos, err := c.wa.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groupsFromInfo(infos), nil
}

// ResolveContact implements service.Transport. Hidden-number senders return
// service.ErrIdentityUnavailable.
func (c *Client) ResolveContact(ctx context.Context, msg model.InboundMessage) (model.Contact, error) {
	id := msg.AuthorID
	if id == "" {
		id = msg.OriginID
	}
	jid, err := parseAddress(id)
	if err != nil {
		return model.Contact{}, fmt.Errorf("invalid sender %q: %w", id, err)
	}
	if jid.Server == types.HiddenUserServer {
		return model.Contact{}, service.ErrIdentityUnavailable
	}

	info, err := c.wa.Store.Contacts.GetContact(ctx, jid)
	if err != nil {
		return model.Contact{}, fmt.Errorf("failed to load contact: %w", err)
	}
	return contactFromInfo(jid, info), nil
}

// ResolveChatName implements service.Transport.
func (c *Client) ResolveChatName(ctx context.Context, originID string) (string, error) {
	jid, err := parseAddress(originID)
	if err != nil {
		return "", fmt.Errorf("invalid chat %q: %w", originID, err)
	}
	if jid.Server != types.GroupServer {
		info, err := c.wa.Store.Contacts.GetContact(ctx, jid)
		if err != nil {
			return "", fmt.Errorf("failed to load contact: %w", err)
		}
		return contactFromInfo(jid, info).DisplayName, nil
	}

	info, err := c.wa.GetGroupInfo(ctx, jid)
	if err != nil {
		return "", fmt.Errorf("failed to load group info: %w", err)
	}
	return info.Name, nil
}

func (c *Client) handleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Message:
		msg, ok := inboundFromEvent(v)
		if !ok {
			return
		}
		select {
		case c.messages <- msg:
		case <-c.done:
		}

	case *events.Connected:
		c.logger.Info("WhatsApp connected")

	case *events.Disconnected:
		c.logger.Warn("WhatsApp disconnected")

	case *events.JoinedGroup:
		c.logger.Info("Joined group, add it with: dollarspy add",
			"group_id", v.JID.String(),
			"group", v.Name,
		)

	case *events.LoggedOut:
		c.reportFatal(fmt.Errorf("%w: logged out (%v)", common.ErrTransportFatal, v.Reason))

	case *events.StreamReplaced:
		c.reportFatal(fmt.Errorf("%w: session opened elsewhere", common.ErrTransportFatal))

	case *events.TemporaryBan:
		c.reportFatal(fmt.Errorf("%w: temporary ban (%v)", common.ErrTransportFatal, v))
	}
}

func (c *Client) reportFatal(err error) {
	c.logger.Error("WhatsApp session ended", "error", err)
	select {
	case c.fatal <- err:
	default:
	}
}

var _ service.Transport = (*Client)(nil)
