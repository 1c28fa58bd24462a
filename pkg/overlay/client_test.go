// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

package overlay_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/errutil"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay/overlaytest"
)

const combatPush = `{
  "type": "CombatData",
  "isActive": "true",
  "Encounter": {"duration": "00:30", "DURATION": "30", "encdps": "4321.98", "enchps": "12"},
  "Combatant": {
    "Healer One": {"name": "Healer One", "Job": "Ast", "encdps": "100", "enchps": "900"},
    "Limit Break": {"encdps": "50", "enchps": "0", "maxhit": "Braver-1500"}
  }
}`

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// logBuffer is a goroutine-safe log sink.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *logBuffer) logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(b, nil))
}

// eventLog collects events delivered to a listener.
type eventLog struct {
	mu     sync.Mutex
	events []overlay.Event
}

func (l *eventLog) listen(ev overlay.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []overlay.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]overlay.Event(nil), l.events...)
}

func (l *eventLog) len() int { return len(l.all()) }

func newBridgeClient(t *testing.T, host overlay.Host, opts ...overlay.Option) *overlay.Client {
	t.Helper()
	base := []overlay.Option{
		overlay.WithHost(host),
		overlay.WithPollInterval(tick),
		overlay.WithLogger(discardLogger()),
	}
	c := overlay.New(append(base, opts...)...)
	require.Equal(t, overlay.ModeBridge, c.Mode())
	return c
}

func TestClient_BridgeQueuesSubscribeUntilReady(t *testing.T) {
	defer goleak.VerifyNone(t)

	host := overlaytest.NewFakeHost()
	c := newBridgeClient(t, host)
	defer c.Close()

	var got eventLog
	c.AddListener(overlay.EventCombatData, got.listen)

	assert.False(t, c.Ready())
	assert.Equal(t, 1, c.QueueLen())
	assert.Empty(t, host.Requests())

	host.SetReady(true)
	require.Eventually(t, c.Ready, waitFor, tick)
	assert.True(t, host.Attached())
	assert.Equal(t, []string{`{"call":"subscribe","events":["CombatData"]}`}, host.Requests())
	assert.Equal(t, 0, c.QueueLen())

	require.True(t, host.Push([]byte(combatPush)))

	events := got.all()
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Combat)
	assert.Equal(t, 4321, events[0].Combat.Encounter.DPS)
	assert.Equal(t, "4321.98", events[0].Get("Encounter.encdps").String())
	assert.Len(t, host.Requests(), 1, "subscribe is sent once")
}

func TestClient_SendsKeepOrderAcrossReadiness(t *testing.T) {
	defer goleak.VerifyNone(t)

	host := overlaytest.NewFakeHost()
	c := newBridgeClient(t, host)
	defer c.Close()

	const total = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range total {
			if i == total/4 {
				host.SetReady(true)
			}
			c.Send(overlay.Request{Call: overlay.HandlerSay, Fields: map[string]any{"n": i}})
		}
	}()
	<-done

	require.Eventually(t, c.Ready, waitFor, tick)
	requests := host.Requests()
	require.Len(t, requests, total)
	for i, raw := range requests {
		var req overlay.Request
		require.NoError(t, json.Unmarshal([]byte(raw), &req))
		assert.Equal(t, fmt.Sprint(i), fmt.Sprint(req.Fields["n"]), "request %d out of order", i)
	}
}

func TestClient_DeliveryFailureDropsMessage(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prometheus.NewRegistry()
	metrics := overlay.NewMetrics(reg)
	host := overlaytest.NewFakeHost()
	host.SetReady(true)
	c := newBridgeClient(t, host, overlay.WithMetrics(metrics))
	defer c.Close()
	require.Eventually(t, c.Ready, waitFor, tick)

	host.FailCalls(errors.New("host crashed"))
	c.Send(overlay.Request{Call: overlay.HandlerSay})
	host.FailCalls(nil)
	c.Send(overlay.Request{Call: overlay.HandlerBroadcast})

	assert.Equal(t, []string{`{"call":"say"}`, `{"call":"broadcast"}`}, host.Requests())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SendsTotal.WithLabelValues("say", overlay.SendDropped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SendsTotal.WithLabelValues("broadcast", overlay.SendDelivered)))
}

func TestClient_MarshalFailureDropsMessage(t *testing.T) {
	host := overlaytest.NewFakeHost()
	host.SetReady(true)
	c := newBridgeClient(t, host)
	defer c.Close()
	require.Eventually(t, c.Ready, waitFor, tick)

	c.Send(overlay.Request{Call: overlay.HandlerSaveData, Fields: map[string]any{"bad": make(chan int)}})
	c.Send(overlay.Request{Call: overlay.HandlerLoadData})

	assert.Equal(t, []string{`{"call":"loadData"}`}, host.Requests())
}

func TestClient_SubscribeOnlyOnFirstRegistration(t *testing.T) {
	host := overlaytest.NewFakeHost()
	c := newBridgeClient(t, host)
	defer c.Close()

	c.AddListener(overlay.EventLogLine, func(overlay.Event) {})
	c.AddListener(overlay.EventLogLine, func(overlay.Event) {})
	c.RemoveAllListeners(overlay.EventLogLine)
	c.AddListener(overlay.EventLogLine, func(overlay.Event) {})
	c.AddListener(overlay.EventChangeZone, func(overlay.Event) {})

	assert.Equal(t, 2, c.QueueLen())
}

func TestClient_NilListenerRejected(t *testing.T) {
	var logs logBuffer
	host := overlaytest.NewFakeHost()
	c := newBridgeClient(t, host, overlay.WithLogger(logs.logger()))
	defer c.Close()

	id := c.AddListener(overlay.EventLogLine, nil)

	assert.True(t, id.IsZero())
	assert.Empty(t, c.Listeners(overlay.EventLogLine))
	assert.Equal(t, 0, c.QueueLen())
	assert.Contains(t, logs.String(), overlay.CodeInvalidListener)
}

func TestClient_DispatchInvokesEachListenerOnce(t *testing.T) {
	c := newBridgeClient(t, overlaytest.NewFakeHost())
	defer c.Close()

	var a, b eventLog
	c.AddListener(overlay.EventLogLine, a.listen)
	c.AddListener(overlay.EventLogLine, b.listen)

	payload := []byte(`{"type":"LogLine","line":["00","2024-01-01","hello"],"rawLine":"00|hello"}`)
	c.Dispatch(overlay.EventLogLine, payload)

	require.Equal(t, 1, a.len())
	require.Equal(t, 1, b.len())
	assert.JSONEq(t, string(payload), string(a.all()[0].Raw))
	assert.Nil(t, a.all()[0].Combat)

	var line overlay.LogLinePayload
	require.NoError(t, a.all()[0].Decode(&line))
	assert.Equal(t, "00|hello", line.RawLine)
}

func TestClient_RemoveDuringDispatch(t *testing.T) {
	c := newBridgeClient(t, overlaytest.NewFakeHost())
	defer c.Close()

	var calls []string
	var idA, idB overlay.ListenerID
	idA = c.AddListener(overlay.EventChangeZone, func(overlay.Event) {
		calls = append(calls, "a")
		c.RemoveListener(overlay.EventChangeZone, idA)
		c.RemoveListener(overlay.EventChangeZone, idB)
	})
	idB = c.AddListener(overlay.EventChangeZone, func(overlay.Event) {
		calls = append(calls, "b")
	})
	c.AddListener(overlay.EventChangeZone, func(overlay.Event) {
		calls = append(calls, "c")
	})

	c.Dispatch(overlay.EventChangeZone, []byte(`{"type":"ChangeZone"}`))
	assert.Equal(t, []string{"a", "b", "c"}, calls)

	calls = nil
	c.Dispatch(overlay.EventChangeZone, []byte(`{"type":"ChangeZone"}`))
	assert.Equal(t, []string{"c"}, calls)
}

func TestClient_AddDuringDispatchWaitsForNextPass(t *testing.T) {
	c := newBridgeClient(t, overlaytest.NewFakeHost())
	defer c.Close()

	var late eventLog
	added := false
	c.AddListener(overlay.EventPartyChanged, func(overlay.Event) {
		if !added {
			added = true
			c.AddListener(overlay.EventPartyChanged, late.listen)
		}
	})

	c.Dispatch(overlay.EventPartyChanged, []byte(`{}`))
	assert.Equal(t, 0, late.len())
	c.Dispatch(overlay.EventPartyChanged, []byte(`{}`))
	assert.Equal(t, 1, late.len())
}

func TestClient_ListenerPanicIsolated(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := overlay.NewMetrics(reg)
	var logs logBuffer
	c := newBridgeClient(t, overlaytest.NewFakeHost(), overlay.WithMetrics(metrics), overlay.WithLogger(logs.logger()))
	defer c.Close()

	var after eventLog
	c.AddListener(overlay.EventBroadcastMessage, func(overlay.Event) { panic("boom") })
	c.AddListener(overlay.EventBroadcastMessage, after.listen)

	c.Dispatch(overlay.EventBroadcastMessage, []byte(`{"source":"x","msg":1}`))

	assert.Equal(t, 1, after.len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ListenerPanics.WithLabelValues("BroadcastMessage")))
	assert.Contains(t, logs.String(), overlay.CodeListenerPanic)
	assert.NotContains(t, logs.String(), overlay.CodeInvalidListener)
}

func TestClient_ListenersAndRemove(t *testing.T) {
	c := newBridgeClient(t, overlaytest.NewFakeHost())
	defer c.Close()

	a := c.AddListener(overlay.EventLogLine, func(overlay.Event) {})
	b := c.AddListener(overlay.EventLogLine, func(overlay.Event) {})
	assert.Equal(t, []overlay.ListenerID{a, b}, c.Listeners(overlay.EventLogLine))

	assert.True(t, c.RemoveListener(overlay.EventLogLine, a))
	assert.False(t, c.RemoveListener(overlay.EventLogLine, a))
	assert.Equal(t, []overlay.ListenerID{b}, c.Listeners(overlay.EventLogLine))
}

func TestClient_HandleInboundInvalidJSON(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := overlay.NewMetrics(reg)
	c := newBridgeClient(t, overlaytest.NewFakeHost(), overlay.WithMetrics(metrics))
	defer c.Close()

	var got eventLog
	c.AddListener(overlay.EventLogLine, got.listen)

	c.HandleInbound([]byte(`{"type":"LogLine",`))
	c.Simulate([]byte(`{"type":"LogLine","rawLine":"ok"}`))

	assert.Equal(t, 1, got.len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ParseFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsTotal.WithLabelValues("LogLine")))
}

func TestClient_ExtendDataOptions(t *testing.T) {
	tests := []struct {
		name       string
		opts       []overlay.Option
		wantCombat bool
		wantLB     bool
	}{
		{"default", nil, true, false},
		{"raw only", []overlay.Option{overlay.WithExtendData(false)}, false, false},
		{"separate limit break", []overlay.Option{overlay.WithSeparateLimitBreak(true)}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newBridgeClient(t, overlaytest.NewFakeHost(), tt.opts...)
			defer c.Close()

			var got eventLog
			c.AddListener(overlay.EventCombatData, got.listen)
			c.Simulate([]byte(combatPush))

			require.Equal(t, 1, got.len())
			ev := got.all()[0]
			if !tt.wantCombat {
				assert.Nil(t, ev.Combat)
				return
			}
			require.NotNil(t, ev.Combat)
			assert.True(t, ev.Combat.IsActive)
			assert.Equal(t, tt.wantLB, ev.Combat.LimitBreak != nil)
			if tt.wantLB {
				assert.Len(t, ev.Combat.Combatant, 1)
			} else {
				assert.Len(t, ev.Combat.Combatant, 2)
			}
		})
	}
}

func TestClient_StartEvents(t *testing.T) {
	host := overlaytest.NewFakeHost()
	c := newBridgeClient(t, host)
	defer c.Close()

	c.StartEvents()
	assert.Equal(t, 0, c.QueueLen())

	c.AddListener(overlay.EventLogLine, func(overlay.Event) {})
	c.AddListener(overlay.EventCombatData, func(overlay.Event) {})
	c.StartEvents()

	host.SetReady(true)
	require.Eventually(t, c.Ready, waitFor, tick)
	assert.Equal(t, []string{
		`{"call":"subscribe","events":["LogLine"]}`,
		`{"call":"subscribe","events":["CombatData"]}`,
		`{"call":"subscribe","events":["CombatData","LogLine"]}`,
	}, host.Requests())
}

func TestClient_BridgeCallHandler(t *testing.T) {
	defer goleak.VerifyNone(t)

	host := overlaytest.NewFakeHost()
	host.RespondWith(func(request string) string {
		switch {
		case strings.Contains(request, "getLanguage"):
			return `{"language":"English","languageId":1}`
		case strings.Contains(request, "say"):
			return ""
		default:
			return "<html>"
		}
	})
	c := newBridgeClient(t, host)
	defer c.Close()

	lang := c.CallHandler(overlay.Request{Call: overlay.HandlerGetLanguage})
	select {
	case <-lang.Done():
		t.Fatal("call answered before the host was ready")
	default:
	}

	host.SetReady(true)
	res, err := lang.Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"language": "English", "languageId": 1.0}, res)

	res, err = c.CallHandler(overlay.Request{Call: overlay.HandlerSay}).Wait(t.Context())
	require.NoError(t, err)
	assert.Nil(t, res)

	_, err = c.CallHandler(overlay.Request{Call: overlay.HandlerLoadData}).Wait(t.Context())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, overlay.CodeResponseParseFailed)
	errutil.AssertErrorContext(t, err, "call", overlay.HandlerLoadData)
}

func TestClient_EndEncounter(t *testing.T) {
	host := overlaytest.NewFakeHost()
	c := newBridgeClient(t, host)
	defer c.Close()

	c.EndEncounter()
	assert.Equal(t, 0, host.EndEncounters(), "not ready yet")

	host.SetReady(true)
	require.Eventually(t, c.Ready, waitFor, tick)
	c.EndEncounter()
	assert.Equal(t, 1, host.EndEncounters())
}

func TestClient_BridgeWithoutHostNeverReady(t *testing.T) {
	defer goleak.VerifyNone(t)

	var logs logBuffer
	c := overlay.New(overlay.WithLogger(logs.logger()))
	defer c.Close()

	c.Send(overlay.Request{Call: overlay.HandlerSay})
	assert.False(t, c.Ready())
	assert.Equal(t, 1, c.QueueLen())
	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), overlay.CodeNoHost)
	}, waitFor, tick)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newBridgeClient(t, overlaytest.NewFakeHost())
	c.Close()
	c.Close()
	assert.False(t, c.Ready())
}

func TestShared(t *testing.T) {
	a := overlay.Shared(overlay.WithLogger(discardLogger()))
	b := overlay.Shared(overlay.WithEndpoint("ws://ignored:1"))

	assert.Same(t, a, b)
	assert.Equal(t, overlay.ModeBridge, b.Mode())

	c := newBridgeClient(t, overlaytest.NewFakeHost())
	defer c.Close()
	assert.NotSame(t, a, c)
}
