// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/oops"
	"github.com/tidwall/gjson"

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/combat"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/errutil"
)

// Client is a connection to the overlay host. It is safe for concurrent use.
type Client struct {
	pageURL        string
	forcedEndpoint string
	mode           Mode
	endpoint       string

	host           Host
	dialer         *websocket.Dialer
	header         http.Header
	pollInterval   time.Duration
	reconnectDelay time.Duration

	extendData bool
	separateLB bool
	silent     bool

	logger  *slog.Logger
	metrics *Metrics

	// sendMu orders queueing, draining and delivery.
	sendMu sync.Mutex
	queue  pendingQueue
	conn   *websocket.Conn
	ready  atomic.Bool
	queued atomic.Int64

	listeners *registry
	calls     *correlationTable

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a client and starts readiness detection in the background.
// The transport is chosen once from the page URL (or WithEndpoint) and does
// not change for the client's lifetime.
func New(opts ...Option) *Client {
	c := &Client{
		dialer:         websocket.DefaultDialer,
		pollInterval:   DefaultPollInterval,
		reconnectDelay: DefaultReconnectDelay,
		extendData:     true,
		logger:         slog.Default().With("component", "overlay"),
		listeners:      newRegistry(),
		calls:          newCorrelationTable(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.forcedEndpoint != "" {
		c.mode, c.endpoint = ModeWebSocket, NormalizeEndpoint(c.forcedEndpoint)
	} else {
		c.mode, c.endpoint = SelectMode(c.pageURL)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if c.mode == ModeWebSocket {
			c.runWebSocket(ctx)
		} else {
			c.runBridge(ctx)
		}
	}()

	return c
}

// Mode returns the transport in use.
func (c *Client) Mode() Mode { return c.mode }

// Endpoint returns the WebSocket endpoint, or "" in bridge mode.
func (c *Client) Endpoint() string { return c.endpoint }

// Ready reports whether requests are currently delivered immediately.
func (c *Client) Ready() bool { return c.ready.Load() }

// PendingCalls returns how many correlated calls still await a response.
func (c *Client) PendingCalls() int { return c.calls.len() }

// Status is a point-in-time view of the client's transport.
type Status struct {
	Ready        bool   `json:"ready"`
	Mode         string `json:"mode"`
	Endpoint     string `json:"endpoint,omitempty"`
	PendingCalls int    `json:"pendingCalls"`
	Queued       int    `json:"queued"`
}

// Status reports readiness, transport and backlog without blocking senders.
func (c *Client) Status() Status {
	return Status{
		Ready:        c.ready.Load(),
		Mode:         c.mode.String(),
		Endpoint:     c.endpoint,
		PendingCalls: c.calls.len(),
		Queued:       int(c.queued.Load()),
	}
}

// Close stops readiness detection and closes the socket. Queued requests
// and pending calls are abandoned.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.wg.Wait()
	})
}

// Send delivers req, or queues it until the transport is ready.
func (c *Client) Send(req Request) {
	c.send(req, nil)
}

func (c *Client) send(req Request, respond ResponseFunc) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.ready.Load() {
		if c.mode == ModeWebSocket {
			respond = nil
		}
		c.queue.push(pendingMessage{req: req, respond: respond})
		c.queued.Store(int64(c.queue.len()))
		c.metrics.send(req.Call, SendQueued)
		c.metrics.queued(c.queue.len())
		return
	}
	c.deliverLocked(pendingMessage{req: req, respond: respond})
}

// deliverLocked hands one message to the transport. Failures are logged and
// the message is dropped.
func (c *Client) deliverLocked(m pendingMessage) {
	data, err := json.Marshal(m.req)
	if err != nil {
		errutil.LogError(c.logger, "failed to marshal request",
			oops.Code(CodeMarshalFailed).With("call", m.req.Call).Wrap(err))
		c.metrics.send(m.req.Call, SendDropped)
		return
	}

	switch c.mode {
	case ModeBridge:
		err = c.host.CallHandler(string(data), m.respond)
	case ModeWebSocket:
		if c.conn == nil {
			err = oops.Errorf("websocket not connected")
		} else {
			err = c.conn.WriteMessage(websocket.TextMessage, data)
		}
	}
	if err != nil {
		errutil.LogError(c.logger, "failed to deliver request",
			oops.Code(CodeDeliveryFailed).With("call", m.req.Call).With("mode", c.mode.String()).Wrap(err))
		c.metrics.send(m.req.Call, SendDropped)
		return
	}
	c.metrics.send(m.req.Call, SendDelivered)
}

// opened marks the transport ready and flushes the queue before any new
// send can get through.
func (c *Client) opened(conn *websocket.Conn) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.conn = conn
	for _, m := range c.queue.drain() {
		c.deliverLocked(m)
	}
	c.queued.Store(0)
	c.metrics.queued(0)
	c.ready.Store(true)
}

// closed marks the transport not ready; later sends queue again.
func (c *Client) closed() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.conn = nil
	c.ready.Store(false)
}

// HandleInbound routes one message from the host. A message whose rseq
// matches a pending call settles that call and is not dispatched. Hosts that
// echo rseq as a decimal string ("7") are matched too.
func (c *Client) HandleInbound(data []byte) {
	if !gjson.ValidBytes(data) {
		errutil.LogWarn(c.logger, "dropping invalid inbound message",
			oops.Code(CodeInvalidPayload).With("size", len(data)).Errorf("invalid JSON"))
		c.metrics.parseFailure()
		return
	}

	if seq, ok := responseSeq(data); ok {
		if f, ok := c.calls.take(seq); ok {
			c.metrics.pending(c.calls.len())
			var result any
			//nolint:errcheck // validated above
			json.Unmarshal(data, &result)
			f.settle(result, nil)
			return
		}
	}

	t := EventType(gjson.GetBytes(data, "type").String())
	c.dispatch(t, json.RawMessage(data))
}

func responseSeq(data []byte) (int64, bool) {
	rseq := gjson.GetBytes(data, "rseq")
	switch rseq.Type {
	case gjson.Number:
		return rseq.Int(), true
	case gjson.String:
		seq, err := strconv.ParseInt(rseq.Str, 10, 64)
		return seq, err == nil
	default:
		return 0, false
	}
}

// Simulate routes payload as if the host had pushed it.
func (c *Client) Simulate(payload []byte) {
	c.HandleInbound(payload)
}

// Dispatch invokes the listeners registered for t with payload.
func (c *Client) Dispatch(t EventType, payload []byte) {
	c.dispatch(t, json.RawMessage(payload))
}

func (c *Client) dispatch(t EventType, raw json.RawMessage) {
	c.metrics.event(t)

	entries := c.listeners.snapshot(t)
	if len(entries) == 0 {
		return
	}

	ev := Event{Type: t, Raw: raw}
	if c.extendData && t == EventCombatData {
		if data, err := combat.DecodeCombatData(raw); err != nil {
			errutil.LogWarn(c.logger, "failed to extend combat data", err)
			c.metrics.parseFailure()
		} else {
			snap := combat.Extend(data, c.separateLB)
			ev.Combat = &snap
		}
	}

	for _, e := range entries {
		c.invoke(t, e, ev)
	}
}

func (c *Client) invoke(t EventType, e listenerEntry, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.listenerPanic(t)
			errutil.LogError(c.logger, "listener panicked",
				oops.Code(CodeListenerPanic).With("type", t).With("listener", e.id.String()).Errorf("panic: %v", r))
		}
	}()
	e.fn(ev)
}

// AddListener registers fn for t and returns its handle. The first
// registration for a type subscribes to it on the host. A nil fn is logged
// and the zero ID returned.
func (c *Client) AddListener(t EventType, fn Listener) ListenerID {
	if fn == nil {
		errutil.LogError(c.logger, "rejected listener",
			oops.Code(CodeInvalidListener).With("type", t).Errorf("listener is nil"))
		return ListenerID{}
	}

	id, first := c.listeners.add(t, fn)
	if first {
		c.send(SubscribeRequest(t), nil)
	}
	return id
}

// RemoveListener removes one registration. It reports whether id was found.
// A dispatch already in progress still invokes it.
func (c *Client) RemoveListener(t EventType, id ListenerID) bool {
	return c.listeners.remove(t, id)
}

// RemoveAllListeners clears the listeners for t. The host subscription stays.
func (c *Client) RemoveAllListeners(t EventType) {
	c.listeners.removeAll(t)
}

// Listeners returns the handles registered for t in registration order.
func (c *Client) Listeners(t EventType) []ListenerID {
	return c.listeners.ids(t)
}

// StartEvents sends one subscribe request naming every type that has
// listeners. It does nothing when no listener is registered.
func (c *Client) StartEvents() {
	types := c.listeners.active()
	if len(types) == 0 {
		return
	}
	c.send(SubscribeRequest(types...), nil)
}

// CallHandler sends a correlated request and returns its future. In
// WebSocket mode the request is tagged with the next rseq; in bridge mode
// the host's string answer is parsed as JSON, and a parse failure rejects
// the future. Inside a Listener, consume the future with Then, never Wait.
func (c *Client) CallHandler(req Request) *Future {
	f := newFuture()

	if c.mode == ModeWebSocket {
		seq := c.calls.register(f)
		c.metrics.pending(c.calls.len())
		req.RSeq = &seq
		c.send(req, nil)
		return f
	}

	c.send(req, func(response string) {
		if response == "" {
			f.settle(nil, nil)
			return
		}
		var result any
		if err := json.Unmarshal([]byte(response), &result); err != nil {
			err = oops.Code(CodeResponseParseFailed).With("call", req.Call).Wrap(err)
			errutil.LogError(c.logger, "failed to parse handler response", err)
			f.settle(nil, err)
			return
		}
		f.settle(result, nil)
	})
	return f
}

// EndEncounter asks the host to finalize the current encounter. Only the
// bridge supports it.
func (c *Client) EndEncounter() {
	if c.mode != ModeBridge {
		errutil.LogError(c.logger, "end encounter unavailable",
			oops.Code(CodeUnsupportedMode).With("mode", c.mode.String()).Errorf("end encounter requires bridge mode"))
		return
	}
	if !c.Ready() {
		errutil.LogWarn(c.logger, "end encounter skipped",
			oops.Code(CodeNotReady).Errorf("bridge host not ready"))
		return
	}
	if err := c.host.EndEncounter(); err != nil {
		errutil.LogError(c.logger, "end encounter failed",
			oops.Code(CodeDeliveryFailed).Wrap(err))
	}
}

func (c *Client) logInfo(msg string, args ...any) {
	if c.silent {
		return
	}
	c.logger.Info(msg, args...)
}
