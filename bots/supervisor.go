package bots

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bazaar/market"
)

// SwarmConfig describes the bot swarm a supervisor runs.
type SwarmConfig struct {
	Item           int64
	BasePrice      int64
	Buyers         int
	Sellers        int
	SubmitInterval time.Duration
}

// Supervisor orchestrates buyer and seller bots against one marketplace and
// tracks the turnover their trading produces.
type Supervisor struct {
	mkt      *market.Marketplace
	cfg      SwarmConfig
	log      *logrus.Logger
	turnover *turnoverTracker
	throttle *time.Ticker
}

// NewSupervisor builds a supervisor. The throttle is shared by every bot so
// the swarm's aggregate submission rate stays bounded.
func NewSupervisor(mkt *market.Marketplace, cfg SwarmConfig, log *logrus.Logger) *Supervisor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.SubmitInterval <= 0 {
		cfg.SubmitInterval = 200 * time.Millisecond
	}
	return &Supervisor{
		mkt:      mkt,
		cfg:      cfg,
		log:      log,
		turnover: &turnoverTracker{},
		throttle: time.NewTicker(cfg.SubmitInterval),
	}
}

// Start launches the swarm and blocks until the context is canceled.
func (s *Supervisor) Start(ctx context.Context) {
	defer s.throttle.Stop()

	var wg sync.WaitGroup
	launch := func(bot Bot, userID string) {
		client := NewThrottledClient(s.mkt, s.cfg.Item, userID, s.throttle.C)
		wg.Add(1)
		go func() {
			defer wg.Done()
			bot.Start(ctx, client)
		}()
	}

	for i := 0; i < s.cfg.Buyers; i++ {
		launch(NewRandomBuyerBot(s.cfg.BasePrice), fmt.Sprintf("bot-buyer-%d", i+1))
	}
	for i := 0; i < s.cfg.Sellers; i++ {
		launch(NewRandomSellerBot(s.cfg.BasePrice), fmt.Sprintf("bot-seller-%d", i+1))
	}
	launch(NewSniperBot(), "bot-sniper")

	go s.consumeOrders(ctx)

	logTicker := time.NewTicker(2 * time.Second)
	defer logTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			trades, volume, notional := s.turnover.Snapshot()
			s.log.WithFields(logrus.Fields{
				"trades": trades, "volume": volume, "notional": notional,
			}).Info("bot swarm stopped")
			return
		case <-logTicker.C:
			trades, volume, notional := s.turnover.Snapshot()
			s.log.WithFields(logrus.Fields{
				"trades": trades, "volume": volume, "notional": notional,
			}).Info("bot swarm turnover")
		}
	}
}

func (s *Supervisor) consumeOrders(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-s.mkt.Orders():
			if !ok {
				return
			}
			if order.ItemID == s.cfg.Item {
				s.turnover.Record(order)
			}
		}
	}
}

type turnoverTracker struct {
	mu       sync.Mutex
	trades   int64
	volume   int64
	notional int64
}

func (t *turnoverTracker) Record(order market.Order) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trades++
	t.volume += order.Quantity
	t.notional += order.Quantity * order.PricePerUnit
}

func (t *turnoverTracker) Snapshot() (trades, volume, notional int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trades, t.volume, t.notional
}
