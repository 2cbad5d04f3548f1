package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanBus struct {
	ch         chan []byte
	subErr     error
	gotChannel string
}

func (b *chanBus) Publish(ctx context.Context, channel string, payload []byte) error { return nil }

func (b *chanBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.gotChannel = channel
	if b.subErr != nil {
		return nil, b.subErr
	}
	return b.ch, nil
}

type stubDeduper struct {
	fresh bool
	err   error
	keys  []string
}

func (d *stubDeduper) Claim(ctx context.Context, key string, window time.Duration) (bool, error) {
	d.keys = append(d.keys, key)
	return d.fresh, d.err
}

// chanSender forwards deliveries to a channel so tests can wait on them.
type chanSender struct {
	got chan string
}

func (s *chanSender) Send(ctx context.Context, title, message string) error {
	s.got <- title + "\n" + message
	return nil
}

func (s *chanSender) Name() string { return "test" }

func alertPayload(t *testing.T, ev alertEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func profitableEvent() alertEvent {
	return alertEvent{
		Event:        "arb_detected",
		ReportID:     "run-1",
		TokenIn:      "WETH",
		TokenOut:     "USDC",
		ProfitUSD:    73.0032,
		NetSpreadBps: 36.5016,
		BestChain:    "Polygon",
	}
}

type listenerHarness struct {
	bus    *chanBus
	sender *chanSender
	done   chan error
	cancel context.CancelFunc
}

func startListener(t *testing.T, build func(*Notifier, *chanBus) *AlertListener) *listenerHarness {
	t.Helper()
	h := &listenerHarness{
		bus:    &chanBus{ch: make(chan []byte, 8)},
		sender: &chanSender{got: make(chan string, 8)},
		done:   make(chan error, 1),
	}
	n := NewNotifier([]Sender{h.sender}, nil, testLogger())
	l := build(n, h.bus)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
			t.Error("listener did not stop")
		}
	})
	return h
}

func (h *listenerHarness) receive(t *testing.T) string {
	t.Helper()
	select {
	case msg := <-h.sender.got:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no alert delivered")
		return ""
	}
}

func TestAlertListener_DeliversQualifyingAlerts(t *testing.T) {
	h := startListener(t, func(n *Notifier, bus *chanBus) *AlertListener {
		return NewAlertListener(bus, n, "arb.alerts", 50, testLogger())
	})

	h.bus.ch <- alertPayload(t, profitableEvent())

	msg := h.receive(t)
	assert.Contains(t, msg, "Arbitrage: WETH/USDC")
	assert.Contains(t, msg, "net spread 36.50 bps")
	assert.Contains(t, msg, "est. profit $73.00")
	assert.Contains(t, msg, "best venue Polygon")
	assert.Equal(t, "arb.alerts", h.bus.gotChannel)
}

func TestAlertListener_DropsBelowThreshold(t *testing.T) {
	h := startListener(t, func(n *Notifier, bus *chanBus) *AlertListener {
		return NewAlertListener(bus, n, "arb.alerts", 50, testLogger())
	})

	small := profitableEvent()
	small.ReportID = "run-small"
	small.ProfitUSD = 9.99
	h.bus.ch <- alertPayload(t, small)
	h.bus.ch <- alertPayload(t, profitableEvent())

	// Events are handled in order, so the first delivery proves the
	// below-threshold one was dropped.
	msg := h.receive(t)
	assert.Contains(t, msg, "$73.00")
}

func TestAlertListener_IgnoresForeignEventsAndGarbage(t *testing.T) {
	h := startListener(t, func(n *Notifier, bus *chanBus) *AlertListener {
		return NewAlertListener(bus, n, "arb.alerts", 0, testLogger())
	})

	other := profitableEvent()
	other.Event = "report_published"
	h.bus.ch <- alertPayload(t, other)
	h.bus.ch <- []byte("not json at all")
	h.bus.ch <- alertPayload(t, profitableEvent())

	msg := h.receive(t)
	assert.Contains(t, msg, "Arbitrage: WETH/USDC")
	assert.Empty(t, h.sender.got)
}

func TestAlertListener_DedupSkipsClaimedReports(t *testing.T) {
	dedup := &stubDeduper{fresh: false}
	h := startListener(t, func(n *Notifier, bus *chanBus) *AlertListener {
		return NewAlertListener(bus, n, "arb.alerts", 0, testLogger()).
			WithDeduper(dedup, time.Minute)
	})

	h.bus.ch <- alertPayload(t, profitableEvent())

	// An event without a report ID bypasses dedup; its delivery proves the
	// claimed one before it was skipped.
	anon := profitableEvent()
	anon.ReportID = ""
	anon.BestChain = "Arbitrum"
	h.bus.ch <- alertPayload(t, anon)

	msg := h.receive(t)
	assert.Contains(t, msg, "Arbitrum")
	assert.Equal(t, []string{"run-1"}, dedup.keys)
}

func TestAlertListener_DedupFreshReportDelivered(t *testing.T) {
	dedup := &stubDeduper{fresh: true}
	h := startListener(t, func(n *Notifier, bus *chanBus) *AlertListener {
		return NewAlertListener(bus, n, "arb.alerts", 0, testLogger()).
			WithDeduper(dedup, time.Minute)
	})

	h.bus.ch <- alertPayload(t, profitableEvent())

	msg := h.receive(t)
	assert.Contains(t, msg, "Polygon")
	assert.Equal(t, []string{"run-1"}, dedup.keys)
}

func TestAlertListener_DedupFaultDoesNotMuteAlerts(t *testing.T) {
	dedup := &stubDeduper{err: errors.New("redis down")}
	h := startListener(t, func(n *Notifier, bus *chanBus) *AlertListener {
		return NewAlertListener(bus, n, "arb.alerts", 0, testLogger()).
			WithDeduper(dedup, time.Minute)
	})

	h.bus.ch <- alertPayload(t, profitableEvent())

	msg := h.receive(t)
	assert.Contains(t, msg, "Polygon")
}

func TestAlertListener_SubscribeFailure(t *testing.T) {
	bus := &chanBus{subErr: errors.New("redis down")}
	n := NewNotifier(nil, nil, testLogger())
	l := NewAlertListener(bus, n, "arb.alerts", 0, testLogger())

	err := l.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arb.alerts")
}

func TestAlertListener_StopsWhenBusCloses(t *testing.T) {
	bus := &chanBus{ch: make(chan []byte)}
	n := NewNotifier(nil, nil, testLogger())
	l := NewAlertListener(bus, n, "arb.alerts", 0, testLogger())

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	close(bus.ch)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on closed bus channel")
	}
}

func TestAlertListener_CancelStopsRun(t *testing.T) {
	bus := &chanBus{ch: make(chan []byte)}
	n := NewNotifier(nil, nil, testLogger())
	l := NewAlertListener(bus, n, "arb.alerts", 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on cancel")
	}
}
