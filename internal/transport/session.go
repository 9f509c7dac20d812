// Package transport owns the push-session lifecycle of the exchange client:
// dialing the websocket, keeping it alive, translating inbound frames into
// store events, and re-establishing the session transparently when it drops.
//
// Reconnect policy: an abnormal closure schedules exactly one reconnect
// attempt after a fixed one-second delay, reusing the same URL. There is no
// retry cap and no exponential backoff — the push channel carries no
// write-path traffic, so a fixed interval is the deliberate policy. A clean,
// client-initiated closure schedules nothing. At most one socket is live per
// logical session; the old socket is closed before a new one is opened.
package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hanc1208/iu-exchange-frontend/internal/store"
)

const (
	// reconnectDelay is the fixed wait before re-dialing after an abnormal
	// closure.
	reconnectDelay = 1000 * time.Millisecond

	// defaultPingPeriod is the keepalive interval.
	defaultPingPeriod = 15 * time.Second

	// defaultSendTimeout bounds every websocket write.
	defaultSendTimeout = 5 * time.Second

	// defaultReadLimit caps inbound frame size.
	defaultReadLimit = 1 << 20 // 1MB

	// defaultHandshakeTimeout bounds the websocket handshake.
	defaultHandshakeTimeout = 10 * time.Second
)

// ErrNotConnected is returned when a frame is sent while no session is open.
var ErrNotConnected = errors.New("push session is not connected")

// EventSink receives the store events the session manager produces:
// session-opened, session-closed, and every decoded push event. Frames are
// delivered in the order the transport reads them.
type EventSink func(store.Event)

// Manager owns one logical push session to the exchange.
//
// It implements store.Session and store.SessionController: the command
// layer sends subscription frames and forces clean reconnects through it,
// while the read loop feeds decoded events into the sink.
type Manager struct {
	url      string
	sink     EventSink
	validate *validator.Validate

	pingPeriod  time.Duration
	sendTimeout time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn // current socket, nil while disconnected
	writeMu sync.Mutex      // serializes data-frame writes
}

// NewManager returns a disconnected session manager that will dial url and
// deliver events to sink.
func NewManager(url string, sink EventSink) *Manager {
	return &Manager{
		url:         url,
		sink:        sink,
		validate:    validator.New(),
		pingPeriod:  defaultPingPeriod,
		sendTimeout: defaultSendTimeout,
	}
}

// Connect opens the push session and starts the read and keepalive loops.
// Any previously open socket is closed cleanly first.
func (m *Manager) Connect(ctx context.Context) error {
	m.closeCurrent()

	logger := log.With().Str("endpoint", m.url).Str("component", "transport").Logger()
	logger.Info().Msg("opening push session")

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: defaultHandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		if resp != nil {
			logger.Error().Err(err).Int("statusCode", resp.StatusCode).Msg("push connection failed")
		} else {
			logger.Error().Err(err).Msg("push connection failed")
		}
		return err
	}

	conn.SetReadLimit(defaultReadLimit)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(m.pingPeriod * 2))
	})
	if err := conn.SetReadDeadline(time.Now().Add(m.pingPeriod * 2)); err != nil {
		logger.Warn().Err(err).Msg("failed to set initial read deadline")
	}

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	m.sink(store.SessionOpened{Session: m})

	go m.readLoop(ctx, conn)
	go m.pingLoop(ctx, conn)

	logger.Info().Msg("push session established")
	return nil
}

// Reconnect tears the session down cleanly and dials the same URL again.
// Used when the authenticated user changes; the clean closure schedules no
// automatic retry of its own.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.closeCurrent()
	return m.Connect(ctx)
}

// Close ends the session cleanly. No reconnect is scheduled.
func (m *Manager) Close() {
	m.closeCurrent()
}

// subscribeFrame is the outbound market subscription message.
type subscribeFrame struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// SubscribeMarket sends a subscribe frame for the pair over the live
// session. The manager holds no subscription state itself; re-subscribing
// after a reconnect is the command layer's responsibility.
func (m *Manager) SubscribeMarket(pair string) error {
	return m.send(subscribeFrame{Type: "subscribeMarket", Data: pair})
}

// send marshals and writes one text frame.
func (m *Manager) send(message any) error {
	conn := m.current()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(m.sendTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop reads frames until the socket dies, feeding decoded events to
// the sink. On an abnormal closure it schedules the fixed-delay reconnect.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) {
	logger := log.With().Str("endpoint", m.url).Str("component", "readLoop").Logger()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			current := m.conn == conn
			if current {
				m.conn = nil
			}
			m.mu.Unlock()

			if !current {
				// Superseded by a client-initiated teardown; that path
				// already emitted session-closed.
				return
			}

			m.sink(store.SessionClosed{})

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info().Err(err).Msg("push session closed cleanly")
				return
			}
			if ctx.Err() != nil {
				return
			}

			logger.Warn().Err(err).Msg("push session closed abnormally, scheduling reconnect")
			m.scheduleReconnect(ctx)
			return
		}

		events, err := m.decodeFrame(data)
		if err != nil {
			// Malformed frames are dropped, never fatal: the channel is
			// advisory and the next snapshot fetch re-derives any state a
			// dropped frame carried.
			logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed push frame")
			continue
		}
		for _, ev := range events {
			m.sink(ev)
		}
	}
}

// scheduleReconnect arranges a single dial attempt after the fixed delay.
// A failed attempt counts as another abnormal closure and schedules the
// next one, giving the fixed-interval retry with no cap.
func (m *Manager) scheduleReconnect(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}

		if err := m.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.scheduleReconnect(ctx)
		}
	}()
}

// pingLoop sends keepalive pings until the socket is superseded or the
// context ends.
func (m *Manager) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(m.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.current() != conn {
				return
			}
			deadline := time.Now().Add(m.sendTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Debug().Err(err).Msg("push keepalive ping failed")
			}
		}
	}
}

// current returns the live socket, nil while disconnected.
func (m *Manager) current() *websocket.Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

// closeCurrent performs the clean, client-initiated teardown: the socket is
// detached first so the read loop knows it was superseded, then closed with
// proper close-frame etiquette. Emits session-closed when a socket was open.
func (m *Manager) closeCurrent() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil {
		return
	}

	deadline := time.Now().Add(time.Second)
	if err := conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	); err != nil {
		log.Debug().Err(err).Msg("failed to send close frame")
	}
	if err := conn.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing push socket")
	}

	m.sink(store.SessionClosed{})
}
