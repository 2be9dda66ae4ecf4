package tunnel

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/config"
	"github.com/brimtide/vlesstund/internal/muxengine"
	"github.com/brimtide/vlesstund/internal/outbound"
	"github.com/brimtide/vlesstund/internal/shared/constants"
	"github.com/brimtide/vlesstund/internal/wire"
)

// tunnelState is the dispatcher's state machine per spec.md §4.2.
type tunnelState int

const (
	stateAwaitingGreeting tunnelState = iota
	stateTCP
	stateDNS
	stateMux
)

// StatsReporter receives the {uuid, uplink, downlink} triple at tunnel
// close, for the fire-and-forget traffic report spec.md §4.2 names.
type StatsReporter func(uuid string, uplink, downlink uint64)

// Dispatcher drives one accepted WebSocket tunnel from its first byte
// to closure: greeting classification, mode dispatch, and accounting.
// Exactly one Dispatcher exists per tunnel and is never shared.
type Dispatcher struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg       *config.Config
	stream    *wsStream
	validator func(string) bool
	doh       *outbound.DoHClient
	logger    *zap.Logger
	report    StatsReporter

	acc      accounting
	greeting *wire.Greeting
	state    tunnelState

	tcpConn interface {
		Close() error
	}
	engine *muxengine.Engine

	sendMu     sync.Mutex
	sentPrefix bool

	abortOnce sync.Once
	aborted   bool
}

// NewDispatcher builds a Dispatcher around an already-upgraded
// WebSocket. protocolHeader is the raw Sec-WebSocket-Protocol value
// carrying 0-RTT early data, per spec.md §4.2.
func NewDispatcher(
	ctx context.Context,
	ws *websocket.Conn,
	protocolHeader string,
	cfg *config.Config,
	validator func(string) bool,
	doh *outbound.DoHClient,
	report StatsReporter,
	logger *zap.Logger,
) (*Dispatcher, error) {
	stream, err := newWSStream(ws, protocolHeader)
	if err != nil {
		return nil, err
	}

	dctx, cancel := context.WithCancel(ctx)
	return &Dispatcher{
		ctx:       dctx,
		cancel:    cancel,
		cfg:       cfg,
		stream:    stream,
		validator: validator,
		doh:       doh,
		report:    report,
		logger:    logger,
		state:     stateAwaitingGreeting,
	}, nil
}

// Run consumes the tunnel's byte stream until the WebSocket closes or
// aborts. It always returns once the tunnel is fully torn down.
func (d *Dispatcher) Run() {
	defer d.teardown()

	for {
		chunk, err := d.stream.next()
		if err != nil {
			if !isCleanClose(err) {
				d.logger.Debug("tunnel read ended", zap.Error(err))
			}
			return
		}
		if len(chunk) == 0 {
			continue
		}

		if err := d.handleChunk(chunk); err != nil {
			d.logger.Debug("tunnel closing on dispatch error", zap.Error(err))
			return
		}
	}
}

func (d *Dispatcher) handleChunk(chunk []byte) error {
	switch d.state {
	case stateAwaitingGreeting:
		return d.handleGreeting(chunk)
	case stateMux:
		return d.engine.Dispatch(chunk)
	case stateTCP:
		return d.writeTCP(chunk)
	case stateDNS:
		return d.handleDNS(chunk)
	default:
		return nil
	}
}

// handleGreeting parses the tunnel's first chunk and selects a mode.
// An unauthorized or malformed greeting closes the tunnel without ever
// sending a response prefix, per spec.md §3's invariant.
func (d *Dispatcher) handleGreeting(chunk []byte) error {
	g, err := wire.ParseGreeting(chunk, d.validator)
	if err != nil {
		return err
	}
	d.greeting = g

	if g.Command == wire.CommandMux && !d.cfg.MuxEnabled {
		// MUX_ENABLED=false: fall back to TCP/UDP only, per spec.md §6.
		// A greeting that only Mux can satisfy has nothing left to do.
		return wire.ErrUnsupportedCommand
	}

	remainder := chunk[g.RawDataIndex:]

	switch g.Command {
	case wire.CommandMux:
		d.state = stateMux
		d.engine = muxengine.New(
			constants.DefaultMaxSubrequests,
			wire.ResponsePrefix(g.Version),
			d.stream.send,
			d.doh,
			d.logger,
		)
		if len(remainder) > 0 {
			return d.engine.Dispatch(remainder)
		}
		return nil

	case wire.CommandUDP:
		if g.Port != constants.DNSPort {
			return wire.ErrUnsupportedCommand
		}
		d.state = stateDNS
		if len(remainder) > 0 {
			return d.handleDNS(remainder)
		}
		return nil

	case wire.CommandTCP:
		d.state = stateTCP
		return d.runTCP(remainder)

	default:
		return wire.ErrUnsupportedCommand
	}
}

// sendPrefixed writes data as a WebSocket message, prepending the
// 2-byte response prefix exactly once, before any other server-to-
// client bytes, per spec.md §3.
func (d *Dispatcher) sendPrefixed(data []byte) error {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()

	if !d.sentPrefix {
		d.sentPrefix = true
		prefixed := make([]byte, 0, 2+len(data))
		prefixed = append(prefixed, wire.ResponsePrefix(d.greeting.Version)...)
		prefixed = append(prefixed, data...)
		return d.stream.send(prefixed)
	}
	return d.stream.send(data)
}

// abort cancels the tunnel's context and closes the WebSocket; used
// when a background pump (TCP or Mux) hits an unrecoverable error.
func (d *Dispatcher) abort() {
	d.abortOnce.Do(func() {
		d.aborted = true
		d.cancel()
		_ = d.stream.close()
	})
}

func (d *Dispatcher) teardown() {
	d.cancel()

	if d.tcpConn != nil {
		_ = d.tcpConn.Close()
	}

	var uplink, downlink uint64
	if d.engine != nil {
		d.engine.Close()
		d.engine.Wait()
		eUp, eDown := d.engine.Stats()
		d.acc.addMuxTotals(eUp, eDown)
	}
	uplink, downlink = d.acc.snapshot()

	_ = d.stream.close()

	if d.report != nil && d.greeting != nil && (uplink != 0 || downlink != 0) {
		go d.report(d.greeting.UUID, uplink, downlink)
	}
}

// idleSince reports whether the tunnel's Mux engine has been idle for
// longer than threshold; it is always false outside Mux mode.
func (d *Dispatcher) idleSince(threshold time.Duration) bool {
	if d.engine == nil {
		return false
	}
	return d.engine.IsIdle(threshold)
}
