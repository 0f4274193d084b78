// Package session implements the FIX 4.4 session engine: one instance
// owns a single TCP connection to the venue, the outbound sequence
// counter, the resend buffer, the heartbeat timer and the inbound
// dispatch loop. A quote client and a trade client each own one Engine,
// configured with Role Quote or Trade respectively.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tradeflow/fixvenue/constants"
	"github.com/tradeflow/fixvenue/metrics"
	"github.com/tradeflow/fixvenue/transport"
	"github.com/tradeflow/fixvenue/venueerr"
	"github.com/tradeflow/fixvenue/wire"
)

// Engine is one FIX session: either QUOTE or TRADE.
type Engine struct {
	role Role
	cfg  Config
	log  zerolog.Logger

	handlers ConnHandlers

	// mdHandler receives W/X/Y messages; tradeHandler receives
	// everything else that isn't session-administrative. Both are
	// optional and set once before Connect by the owning client.
	mdHandler    func(*wire.Message)
	tradeHandler func(*wire.Message)

	conn   *transport.Conn
	resend *resendBuffer
	outSeq atomic.Int64

	stateMu sync.Mutex
	state   State

	logonWaitCh chan error // non-nil only while awaiting the logon reply
	logoutAckCh chan struct{}

	heartbeatStop chan struct{}
	dispatchDone  chan struct{}

	teardownOnce sync.Once
}

// New constructs an Engine for the given role. The rate limiter (if
// any) is supplied later to Connect, since pacing is a property of the
// live connection rather than the engine's static configuration.
func New(role Role, cfg Config, logger zerolog.Logger, handlers ConnHandlers) *Engine {
	return &Engine{
		role:     role,
		cfg:      cfg,
		log:      logger.With().Str("role", role.String()).Logger(),
		handlers: handlers,
		resend:   newResendBuffer(cfg.resendBufferSize()),
		state:    StateDisconnected,
	}
}

// SetMarketDataHandler registers the sink for W/X/Y inbound messages.
// Must be called before Connect.
func (e *Engine) SetMarketDataHandler(h func(*wire.Message)) { e.mdHandler = h }

// SetTradeHandler registers the sink for all other non-admin inbound
// messages. Must be called before Connect.
func (e *Engine) SetTradeHandler(h func(*wire.Message)) { e.tradeHandler = h }

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// IsConnected reports whether the session is LoggedOn.
func (e *Engine) IsConnected() bool {
	return e.State() == StateLoggedOn
}

func (e *Engine) setState(s State) {
	e.stateMu.Lock()
	e.state = s
	e.stateMu.Unlock()
}

// Connect dials the venue and starts the framer/dispatch loop. It does
// not log on; call Logon afterward.
func (e *Engine) Connect(ctx context.Context, limiter *rate.Limiter) error {
	e.setState(StateConnecting)
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.role.Port())
	conn, err := transport.Dial(ctx, addr, limiter)
	if err != nil {
		e.setState(StateDisconnected)
		return err
	}
	e.conn = conn
	e.setState(StateConnected)
	e.dispatchDone = make(chan struct{})
	go e.dispatchLoop()
	e.handlers.fireConnect()
	return nil
}

// Logon sends the Logon request and waits for the peer's reply, per
// spec: the outbound seqnum counter is reset to 1 immediately before
// sending.
func (e *Engine) Logon(ctx context.Context) error {
	if e.State() != StateConnected {
		return venueerr.ErrNotConnected
	}

	e.outSeq.Store(0)
	e.resend.reset()

	e.stateMu.Lock()
	e.logonWaitCh = make(chan error, 1)
	e.stateMu.Unlock()

	builder := wire.NewBuilder(constants.MsgTypeLogon).
		Set(constants.TagEncryptMethod, constants.EncryptMethodNone).
		SetInt(constants.TagHeartBtInt, e.cfg.heartBtInt()).
		Set(constants.TagUsername, e.cfg.Username).
		Set(constants.TagPassword, e.cfg.Password).
		Set(constants.TagResetSeqNumFlag, constants.ResetSeqNumYes)

	if err := e.send(ctx, builder); err != nil {
		return err
	}

	timeout := e.cfg.logonTimeout()
	select {
	case err := <-e.logonWaitCh:
		if err != nil {
			return err
		}
		e.setState(StateLoggedOn)
		e.heartbeatStop = make(chan struct{})
		go e.heartbeatLoop()
		metrics.RecordLogon(e.role.String())
		e.handlers.fireLogon()
		return nil
	case <-time.After(timeout):
		e.stateMu.Lock()
		e.logonWaitCh = nil
		e.stateMu.Unlock()
		return venueerr.ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Logout sends a Logout request and waits (bounded) for the peer's
// reply before tearing down.
func (e *Engine) Logout(ctx context.Context) error {
	if e.State() != StateLoggedOn {
		return venueerr.ErrLoggedOut
	}
	e.setState(StateLoggingOut)
	e.logoutAckCh = make(chan struct{}, 1)

	builder := wire.NewBuilder(constants.MsgTypeLogout)
	if err := e.send(ctx, builder); err != nil {
		e.teardown(false)
		return err
	}

	select {
	case <-e.logoutAckCh:
	case <-time.After(e.cfg.logoutTimeout()):
		e.log.Warn().Msg("logout timed out waiting for peer acknowledgement")
	}
	e.teardown(true)
	return nil
}

// Disconnect tears down the connection unconditionally. Idempotent.
func (e *Engine) Disconnect() {
	e.teardown(true)
}

// Send serializes and transmits one application-level message,
// allocating the next seqnum and pushing it into the resend buffer
// exactly once.
func (e *Engine) Send(ctx context.Context, b *wire.Builder) error {
	if e.State() != StateLoggedOn {
		return venueerr.ErrLoggedOut
	}
	return e.send(ctx, b)
}

func (e *Engine) send(ctx context.Context, b *wire.Builder) error {
	seq := int(e.outSeq.Add(1))
	sendingTime := time.Now().UTC().Format(constants.FixTimeFormat)
	raw := b.Encode(e.cfg.senderCompID(), targetCompID, e.role.SubID(), e.role.SubID(), seq, sendingTime)
	e.resend.push(seq, raw)
	metrics.RecordMessageSent(e.role.String(), b.MsgType())

	if err := e.conn.Send(ctx, raw); err != nil {
		e.log.Error().Err(err).Msg("write failed, tearing down session")
		e.teardown(true)
		return err
	}
	return nil
}

// sendRaw rewrites already-sequenced bytes verbatim, bypassing seqnum
// allocation and the resend buffer. Used only to service ResendRequest.
func (e *Engine) sendRaw(ctx context.Context, raw []byte) error {
	return e.conn.Send(ctx, raw)
}

func (e *Engine) dispatchLoop() {
	defer close(e.dispatchDone)
	for {
		raw, err := e.conn.Next()
		if err != nil {
			e.log.Debug().Err(err).Msg("connection closed")
			e.failPendingWaiters(venueerr.ErrNotConnected)
			e.teardown(true)
			return
		}
		msg := wire.Decode(raw)
		metrics.RecordMessageReceived(e.role.String(), msg.MsgType())
		e.route(msg)
	}
}

func (e *Engine) route(msg *wire.Message) {
	switch msg.MsgType() {
	case constants.MsgTypeHeartbeat:
		e.log.Trace().Msg("heartbeat received")
	case constants.MsgTypeTestRequest:
		e.handleTestRequest(msg)
	case constants.MsgTypeResendRequest:
		e.handleResendRequest(msg)
	case constants.MsgTypeLogout:
		e.handleLogout()
	case constants.MsgTypeLogon:
		e.handleLogonReply()
	case constants.MsgTypeMarketDataSnapshot, constants.MsgTypeMarketDataIncremental, constants.MsgTypeMarketDataRequestReject:
		if e.mdHandler != nil {
			go e.mdHandler(msg)
		}
	default:
		if e.tradeHandler != nil {
			go e.tradeHandler(msg)
		}
	}
}

func (e *Engine) handleTestRequest(msg *wire.Message) {
	testReqID, _ := msg.Field(constants.TagTestReqID)
	b := wire.NewBuilder(constants.MsgTypeHeartbeat).SetIfNotEmpty(constants.TagTestReqID, testReqID)
	if err := e.send(context.Background(), b); err != nil {
		e.log.Error().Err(err).Msg("failed to reply to TestRequest")
	}
}

func (e *Engine) handleResendRequest(msg *wire.Message) {
	begin, _ := msg.FieldInt(constants.TagBeginSeqNo)
	end, _ := msg.FieldInt(constants.TagEndSeqNo)
	entries := e.resend.inRange(begin, end)
	for _, entry := range entries {
		if err := e.sendRaw(context.Background(), entry.raw); err != nil {
			e.log.Error().Err(err).Int("seqnum", entry.seqNum).Msg("failed to resend buffered message")
			return
		}
	}
	metrics.RecordResendReplays(e.role.String(), len(entries))
	e.log.Debug().Int("begin", begin).Int("end", end).Int("replayed", len(entries)).Msg("resend request serviced")
}

func (e *Engine) handleLogout() {
	e.stateMu.Lock()
	ackCh := e.logoutAckCh
	wasLoggedOn := e.state == StateLoggedOn
	waitingLogon := e.logonWaitCh
	e.logonWaitCh = nil
	e.stateMu.Unlock()

	if waitingLogon != nil {
		select {
		case waitingLogon <- venueerr.ErrLoggedOut:
		default:
		}
		e.teardown(true)
		return
	}
	if ackCh != nil {
		select {
		case ackCh <- struct{}{}:
		default:
		}
		return
	}
	if wasLoggedOn {
		e.teardown(true)
	}
}

func (e *Engine) handleLogonReply() {
	e.stateMu.Lock()
	ch := e.logonWaitCh
	e.logonWaitCh = nil
	e.stateMu.Unlock()
	if ch != nil {
		ch <- nil
	}
}

func (e *Engine) failPendingWaiters(err error) {
	e.stateMu.Lock()
	ch := e.logonWaitCh
	e.logonWaitCh = nil
	e.stateMu.Unlock()
	if ch != nil {
		select {
		case ch <- err:
		default:
		}
	}
}

func (e *Engine) heartbeatLoop() {
	interval := time.Duration(e.cfg.heartBtInt()) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := e.send(context.Background(), wire.NewBuilder(constants.MsgTypeHeartbeat)); err != nil {
				return
			}
		case <-e.heartbeatStop:
			return
		}
	}
}

func (e *Engine) teardown(fireDisconnect bool) {
	e.teardownOnce.Do(func() {
		e.stateMu.Lock()
		e.state = StateDisconnected
		hbStop := e.heartbeatStop
		e.heartbeatStop = nil
		e.stateMu.Unlock()

		if hbStop != nil {
			close(hbStop)
		}
		if e.conn != nil {
			_ = e.conn.Close()
		}
		metrics.RecordDisconnect(e.role.String())
		if fireDisconnect {
			e.handlers.fireDisconnect()
		}
	})
}
