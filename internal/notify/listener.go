package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/DeganAI/cross-dex-arbitrage/internal/domain"
)

// Deduper claims a key for this instance. Claim returns false when another
// replica already claimed it within the window.
type Deduper interface {
	Claim(ctx context.Context, key string, window time.Duration) (bool, error)
}

// AlertListener consumes alert events from the signal bus and relays them
// through the notifier. It applies the profit threshold so operators only
// hear about opportunities worth acting on.
type AlertListener struct {
	bus         domain.SignalBus
	notifier    *Notifier
	channel     string
	minProfit   float64
	dedup       Deduper
	dedupWindow time.Duration
	logger      *slog.Logger
}

// NewAlertListener creates a listener on the given bus channel. Alerts
// below minProfit USD are dropped silently.
func NewAlertListener(bus domain.SignalBus, notifier *Notifier, channel string, minProfit float64, logger *slog.Logger) *AlertListener {
	return &AlertListener{
		bus:       bus,
		notifier:  notifier,
		channel:   channel,
		minProfit: minProfit,
		logger:    logger.With(slog.String("component", "alert_listener")),
	}
}

// WithDeduper makes delivery exactly-once across replicas: every event is
// claimed by report ID before sending. A nil Deduper leaves dedup off.
func (l *AlertListener) WithDeduper(d Deduper, window time.Duration) *AlertListener {
	l.dedup = d
	l.dedupWindow = window
	return l
}

// alertEvent is the JSON shape published on the alerts channel.
type alertEvent struct {
	Event        string  `json:"event"`
	ReportID     string  `json:"report_id"`
	TokenIn      string  `json:"token_in"`
	TokenOut     string  `json:"token_out"`
	ProfitUSD    float64 `json:"profit_usd"`
	NetSpreadBps float64 `json:"net_spread_bps"`
	BestChain    string  `json:"best_chain"`
}

// Run subscribes to the alerts channel and forwards each qualifying event.
// It blocks until ctx is cancelled.
func (l *AlertListener) Run(ctx context.Context) error {
	ch, err := l.bus.Subscribe(ctx, l.channel)
	if err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", l.channel, err)
	}
	l.logger.Info("alert listener started", slog.String("channel", l.channel))
	defer l.logger.Info("alert listener stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-ch:
			if !ok {
				return nil
			}
			l.handle(ctx, payload)
		}
	}
}

func (l *AlertListener) handle(ctx context.Context, payload []byte) {
	var ev alertEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		l.logger.Warn("bad alert payload", slog.String("error", err.Error()))
		return
	}
	if ev.Event != "arb_detected" {
		return
	}
	if ev.ProfitUSD < l.minProfit {
		l.logger.Debug("alert below profit threshold",
			slog.String("report_id", ev.ReportID),
			slog.Float64("profit_usd", ev.ProfitUSD),
		)
		return
	}
	if l.dedup != nil && ev.ReportID != "" {
		fresh, err := l.dedup.Claim(ctx, ev.ReportID, l.dedupWindow)
		if err != nil {
			// Dedup is best-effort; a cache fault must not mute alerts.
			l.logger.Warn("alert claim failed", slog.String("error", err.Error()))
		} else if !fresh {
			l.logger.Debug("alert already claimed", slog.String("report_id", ev.ReportID))
			return
		}
	}

	title := fmt.Sprintf("Arbitrage: %s/%s", ev.TokenIn, ev.TokenOut)
	message := fmt.Sprintf("net spread %.2f bps, est. profit $%.2f, best venue %s",
		ev.NetSpreadBps, ev.ProfitUSD, ev.BestChain)
	if err := l.notifier.Notify(ctx, ev.Event, title, message); err != nil {
		l.logger.Warn("alert delivery failed",
			slog.String("report_id", ev.ReportID),
			slog.String("error", err.Error()),
		)
	}
}
