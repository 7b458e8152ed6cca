// Package chat implements a client for the SOOP live-streaming chat
// gateway: it resolves a channel's live session, drives the WebSocket
// handshake and keepalive, decodes server-pushed frames into typed
// domain events and republishes them on a subscribe surface.
package chat

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/soopkit/soopchat/domain"
	"github.com/soopkit/soopchat/internal/wire"
)

// State is the connection state of a Client.
type State int

const (
	// StateStandby means no socket is open. Initial state, and the
	// terminal state of every disconnect path.
	StateStandby State = iota
	// StateConnected means the socket is open but the channel room
	// has not been joined yet.
	StateConnected
	// StateJoined means the client is authenticated into the room.
	StateJoined
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	default:
		return "standby"
	}
}

const (
	keepaliveInterval = 60 * time.Second
	handshakeTimeout  = 10 * time.Second
	emoteLoadTimeout  = 15 * time.Second
)

var (
	// ErrNotConnected is returned when an operation needs an open
	// socket and there is none.
	ErrNotConnected = errors.New("chat: not connected")
	// ErrStreamOffline is returned by Connect when the channel is not
	// currently live.
	ErrStreamOffline = errors.New("chat: stream is offline")
)

// StreamAPI is the pair of HTTP collaborators the client consumes. It
// is satisfied by soopapi.Client.
type StreamAPI interface {
	ResolveLiveStream(ctx context.Context, handle string) (domain.StreamDescriptor, error)
	FetchChannelEmotes(ctx context.Context, handle string) ([]domain.ChannelEmote, error)
}

// Conn is the subset of the gateway socket the client uses.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a gateway socket for a wss URL.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type gatewayDialer struct{}

func (gatewayDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d := websocket.Dialer{
		Subprotocols:     []string{"chat"},
		HandshakeTimeout: handshakeTimeout,
	}
	conn, _, err := d.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Session identifies one connection to a channel's chat room. It
// exists exactly as long as the socket is open or opening and is
// replaced wholesale on every reconnect.
type Session struct {
	ChannelID   string
	GatewayHost string
	GatewayPort int
	Password    string
}

// Client is a single-connection SOOP chat client. All exported
// methods are safe for concurrent use; decoded events are delivered
// sequentially in frame-arrival order.
type Client struct {
	api    StreamAPI
	dialer Dialer
	log    *zap.Logger

	keepaliveEvery time.Duration
	ping           keepalive

	mu      sync.Mutex
	state   State
	session *Session
	stream  *domain.StreamDescriptor
	emotes  map[string]domain.ChannelEmote
	conn    Conn
	// attempt tags the current connection attempt so results of
	// in-flight resolution or emote loads are dropped when they
	// arrive after a disconnect or a newer connect.
	attempt string

	writeMu sync.Mutex

	joinSubs    handlerList[string]
	partSubs    handlerList[string]
	chatSubs    handlerList[domain.ChatEvent]
	balloonSubs handlerList[domain.DonationEvent]
	blockSubs   handlerList[domain.ModerationEvent]
}

// New creates a Client using api for stream resolution and emote
// catalog loads.
func New(api StreamAPI, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:            api,
		dialer:         gatewayDialer{},
		log:            logger,
		keepaliveEvery: keepaliveInterval,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ChannelID returns the channel id of the current session, or the
// empty string when disconnected.
func (c *Client) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.ChannelID
}

// Emotes returns a copy of the channel emote table loaded for the
// current session.
func (c *Client) Emotes() map[string]domain.ChannelEmote {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]domain.ChannelEmote, len(c.emotes))
	for name, e := range c.emotes {
		out[name] = e
	}
	return out
}

// Connect resolves the channel's live session and opens the gateway
// socket. It returns once the socket is open; joining the room
// happens asynchronously when the gateway sends LOGIN. A failed
// resolution or an offline channel leaves the client in STANDBY and
// is safe to retry.
func (c *Client) Connect(ctx context.Context, channelHandle, password string) error {
	c.Disconnect()

	attempt := uuid.NewString()
	c.mu.Lock()
	c.state = StateStandby
	c.attempt = attempt
	c.mu.Unlock()

	desc, err := c.api.ResolveLiveStream(ctx, channelHandle)
	if err != nil {
		c.log.Warn("stream resolution failed", zap.String("channel", channelHandle), zap.Error(err))
		return fmt.Errorf("chat: resolving stream for %s: %w", channelHandle, err)
	}
	if !desc.Online {
		c.log.Warn("channel is not live", zap.String("channel", channelHandle))
		return ErrStreamOffline
	}

	sess := &Session{
		ChannelID:   desc.ChannelID,
		GatewayHost: strings.ToLower(desc.GatewayDomain),
		GatewayPort: desc.GatewayPortBase + 1,
		Password:    password,
	}
	url := fmt.Sprintf("wss://%s:%d/Websocket/%s", sess.GatewayHost, sess.GatewayPort, sess.ChannelID)
	c.log.Info("connecting to chat gateway",
		zap.String("url", url),
		zap.String("attempt", attempt))

	conn, err := c.dialer.Dial(ctx, url)
	if err != nil {
		if isCertError(err) {
			c.log.Warn("gateway certificate verification failed", zap.Error(err))
		} else {
			c.log.Warn("gateway connection failed", zap.Error(err))
		}
		return fmt.Errorf("chat: dialing %s: %w", url, err)
	}

	c.mu.Lock()
	if c.attempt != attempt {
		// A concurrent Connect or Disconnect superseded this attempt.
		c.mu.Unlock()
		conn.Close()
		return ErrNotConnected
	}
	c.conn = conn
	c.session = sess
	c.stream = &desc
	c.state = StateConnected
	c.mu.Unlock()

	c.log.Info("connected", zap.String("channel", sess.ChannelID))
	c.writeRaw([]byte(wire.ConnectFrame))
	c.ping.start(c.keepaliveEvery, c.sendPing)

	go c.readPump(conn, attempt)
	go c.loadEmotes(channelHandle, attempt)
	return nil
}

// Disconnect closes the socket and resets the client to STANDBY. It
// is idempotent and safe in any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	channelID := c.session.ChannelID
	c.reset()
	c.mu.Unlock()

	c.ping.stop()
	c.log.Warn("closing chat gateway connection", zap.String("channel", channelID))
	c.partSubs.emit(channelID)
	conn.Close()
}

// reset clears all per-session state. Caller holds c.mu.
func (c *Client) reset() {
	c.state = StateStandby
	c.conn = nil
	c.session = nil
	c.stream = nil
	c.emotes = nil
	c.attempt = ""
}

// send encodes and writes one frame, reporting false instead of an
// error when there is no open socket.
func (c *Client) send(cmd int, body string) bool {
	return c.writeRaw(wire.Encode(cmd, body))
}

func (c *Client) writeRaw(frame []byte) bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return false
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.log.Warn("frame write failed", zap.Error(err))
		return false
	}
	return true
}

func (c *Client) sendPing() {
	c.mu.Lock()
	active := c.state == StateConnected || c.state == StateJoined
	channelID := ""
	if c.session != nil {
		channelID = c.session.ChannelID
	}
	c.mu.Unlock()
	if !active {
		return
	}
	c.send(wire.CmdPing, wire.PingBody)
	c.log.Debug("ping", zap.String("channel", channelID))
}

// readPump delivers inbound frames to the dispatcher until the socket
// dies. Frames are processed one at a time, so decoders never observe
// partial mutation of session or emote state.
func (c *Client) readPump(conn Conn, attempt string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.socketClosed(attempt, err)
			return
		}
		if len(data) == 0 {
			continue
		}
		c.handleFrame(data)
	}
}

// socketClosed handles transport failure and remote closes. Explicit
// disconnects change the attempt id first, so this is a no-op for them.
func (c *Client) socketClosed(attempt string, err error) {
	c.mu.Lock()
	if c.attempt != attempt || c.conn == nil {
		c.mu.Unlock()
		return
	}
	channelID := c.session.ChannelID
	c.reset()
	c.mu.Unlock()

	c.ping.stop()
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.Warn("chat gateway connection lost", zap.String("channel", channelID), zap.Error(err))
	} else {
		c.log.Warn("chat gateway connection closed", zap.String("channel", channelID))
	}
	c.partSubs.emit(channelID)
}

// loadEmotes fetches the channel emote catalog and replaces the lookup
// table wholesale. Failures are logged and never affect the connect
// path; a result arriving after this attempt ended is dropped.
func (c *Client) loadEmotes(channelHandle, attempt string) {
	ctx, cancel := context.WithTimeout(context.Background(), emoteLoadTimeout)
	defer cancel()

	emotes, err := c.api.FetchChannelEmotes(ctx, channelHandle)
	if err != nil {
		c.log.Warn("emote catalog load failed", zap.String("channel", channelHandle), zap.Error(err))
		return
	}

	table := make(map[string]domain.ChannelEmote, len(emotes))
	for _, e := range emotes {
		table[e.Name] = e
	}

	c.mu.Lock()
	if c.attempt != attempt || c.state == StateStandby {
		c.mu.Unlock()
		c.log.Debug("dropping stale emote catalog", zap.String("channel", channelHandle))
		return
	}
	c.emotes = table
	c.mu.Unlock()

	if len(table) == 0 {
		c.log.Info("channel has no custom emotes", zap.String("channel", channelHandle))
		return
	}
	c.log.Info("loaded channel emotes", zap.String("channel", channelHandle), zap.Int("count", len(table)))
}

// sendJoin builds and sends the room join frame. Field order and
// delimiters must match the gateway byte for byte.
func (c *Client) sendJoin() {
	c.mu.Lock()
	stream := c.stream
	sess := c.session
	c.mu.Unlock()
	if stream == nil || sess == nil {
		return
	}
	if stream.PasswordProtected {
		c.log.Info("joining password protected room", zap.String("channel", sess.ChannelID))
	}

	parts := []string{
		"\x0c" + stream.ChatRoom,
		"\x0c" + stream.Ticket,
		"\x0c0\x0c\x0clog\x11",
		"\x06&\x06set_bps\x06=\x06", stream.Bitrate,
		"\x06&\x06view_bps\x06=\x06", stream.Bitrate,
		"\x06&\x06quality\x06=\x06", "ori",
		"\x06&\x06geo_cc\x06=\x06", stream.GeoCC,
		"\x06&\x06geo_rc\x06=\x06", stream.GeoRC,
		"\x06&\x06acpt_lang\x06=\x06", stream.AcceptLanguage,
		"\x06&\x06svc_lang\x06=\x06", stream.ServiceLanguage,
		"\x06&\x06subscribe\x06=\x060",
		"\x06&\x06lowlatency\x06=\x061",
		"\x12",
		"pwd\x11" + sess.Password + "\x12",
		"auth_info\x11NULL\x12",
		"pver\x112\x12",
		"access_system\x11html5\x12",
		"\x0c",
	}
	c.send(wire.CmdJoin, strings.Join(parts, ""))
}

func isCertError(err error) bool {
	var unknownAuthority x509.UnknownAuthorityError
	var invalid x509.CertificateInvalidError
	var hostname x509.HostnameError
	return errors.As(err, &unknownAuthority) || errors.As(err, &invalid) || errors.As(err, &hostname)
}
