// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The ffxiv-overlay-api Authors

//go:build integration

package overlay_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/combat"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay"
	"github.com/dsrkafuu/ffxiv-overlay-api/pkg/overlay/overlaytest"
)

const encounterPush = `{
  "type": "CombatData",
  "isActive": true,
  "Encounter": {"duration": "02:10", "DURATION": "130", "CurrentZoneName": "Abyssos", "encdps": "18234.61", "enchps": "2210"},
  "Combatant": {
    "Tank Main": {"name": "Tank Main", "Job": "Gnb", "encdps": "9100", "enchps": "300", "maxhit": "Burst Strike-41200"},
    "Healer Two": {"name": "Healer Two", "Job": "Sge", "encdps": "6200.4", "enchps": "7800", "damageShield": "12000", "healed": "48000"}
  }
}`

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func callCtx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	DeferCleanup(cancel)
	return ctx
}

// recorder keeps every event a listener receives.
type recorder struct {
	mu     sync.Mutex
	events []overlay.Event
}

func (r *recorder) listen(ev overlay.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []overlay.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]overlay.Event(nil), r.events...)
}

var _ = Describe("Bridge mode", func() {
	var (
		host   *overlaytest.FakeHost
		client *overlay.Client
		got    *recorder
	)

	BeforeEach(func() {
		host = overlaytest.NewFakeHost()
		got = &recorder{}
		client = overlay.New(
			overlay.WithPageURL("file:///overlays/dps.html?theme=dark"),
			overlay.WithHost(host),
			overlay.WithPollInterval(5*time.Millisecond),
			overlay.WithLogger(quietLogger),
		)
		DeferCleanup(client.Close)
	})

	It("queues the subscribe until the host is ready and delivers it once", func() {
		Expect(client.Mode()).To(Equal(overlay.ModeBridge))

		client.AddListener(overlay.EventCombatData, got.listen)
		Consistently(host.Requests, 30*time.Millisecond).Should(BeEmpty())

		host.SetReady(true)
		Eventually(client.Ready).Should(BeTrue())
		Expect(host.Requests()).To(Equal([]string{`{"call":"subscribe","events":["CombatData"]}`}))
		Consistently(host.Requests, 30*time.Millisecond).Should(HaveLen(1))
	})

	It("normalizes pushed combat data for the listener", func() {
		client.AddListener(overlay.EventCombatData, got.listen)
		host.SetReady(true)
		Eventually(host.Attached).Should(BeTrue())

		Expect(host.Push([]byte(encounterPush))).To(BeTrue())

		events := got.snapshot()
		Expect(events).To(HaveLen(1))
		snap := events[0].Combat
		Expect(snap).NotTo(BeNil())
		Expect(snap.IsActive).To(BeTrue())
		Expect(snap.Encounter.DPS).To(Equal(18234))
		Expect(snap.Encounter.ZoneName).To(Equal("Abyssos"))

		players := snap.Players()
		Expect(players).To(HaveLen(2))
		Expect(players[0].JobType).To(Equal(combat.JobTank))
		Expect(players[0].MaxHitDamage).To(Equal(41200))
		Expect(players[1].JobType).To(Equal(combat.JobHealer))
		Expect(players[1].ShieldPct).To(Equal("25%"))

		data, err := json.Marshal(snap)
		Expect(err).NotTo(HaveOccurred())
		Expect(combat.ValidateSnapshot(data)).To(Succeed())
	})

	It("answers bridge calls through the response callback", func() {
		host.RespondWith(func(string) string { return `{"language":"Japanese"}` })
		host.SetReady(true)

		res, err := client.CallHandler(overlay.Request{Call: overlay.HandlerGetLanguage}).Wait(callCtx())
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(HaveKeyWithValue("language", "Japanese"))
	})
})

var _ = Describe("WebSocket mode", func() {
	var (
		server *overlaytest.MockServer
		client *overlay.Client
	)

	BeforeEach(func() {
		server = overlaytest.NewMockServer(GinkgoT())
		server.ReplyWith(func(map[string]any) map[string]any {
			return map[string]any{"result": "ok"}
		})
		client = overlay.New(
			overlay.WithPageURL("http://localhost/dps.html?HOST_PORT="+server.Addr()),
			overlay.WithReconnectDelay(10*time.Millisecond),
			overlay.WithLogger(quietLogger),
		)
		DeferCleanup(client.Close)
	})

	It("resolves the call tagged rseq 7 and forgets it", func() {
		Expect(client.Mode()).To(Equal(overlay.ModeWebSocket))
		Eventually(client.Ready).Should(BeTrue())

		for range 7 {
			_, err := client.CallHandler(overlay.Request{Call: overlay.HandlerGetCombatants}).Wait(callCtx())
			Expect(err).NotTo(HaveOccurred())
		}

		res, err := client.CallHandler(overlay.Request{Call: overlay.HandlerSay, Fields: map[string]any{"text": "hi"}}).
			Wait(callCtx())
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(map[string]any{"rseq": 7.0, "result": "ok"}))
		Expect(client.PendingCalls()).To(BeZero())

		last := server.ReceivedStrings()[7]
		Expect(last).To(MatchJSON(`{"call":"say","rseq":7,"text":"hi"}`))
	})

	It("keeps delivering events after the host drops the socket", func() {
		got := &recorder{}
		client.AddListener(overlay.EventChangeZone, got.listen)
		Eventually(func() int { return len(server.Received()) }).Should(Equal(1))

		server.DropConnections()
		Eventually(server.Accepted).Should(Equal(2))
		Eventually(client.Ready).Should(BeTrue())

		Eventually(func() int {
			return server.PushJSON(map[string]any{"type": "ChangeZone", "zoneID": 1002, "zoneName": "Sastasha"})
		}).Should(Equal(1))
		Eventually(func() int { return len(got.snapshot()) }).Should(BeNumerically(">=", 1))

		var zone overlay.ChangeZonePayload
		Expect(got.snapshot()[0].Decode(&zone)).To(Succeed())
		Expect(zone.ZoneName).To(Equal("Sastasha"))
	})
})
