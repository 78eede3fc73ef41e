package bots

import (
	"context"
	"time"
)

// SniperBot watches the best ask and bids it at that exact price whenever
// one is visible. With first-fit matching the sniper does not always hit the
// cheapest seller; an earlier compatible offer takes the trade.
type SniperBot struct {
	Interval time.Duration
	Quantity int64
}

func NewSniperBot() *SniperBot {
	return &SniperBot{
		Interval: 500 * time.Millisecond,
		Quantity: 1,
	}
}

func (b *SniperBot) Start(ctx context.Context, client MarketClient) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ask, ok := client.BestAsk(); ok {
				_ = client.SubmitBid(ctx, b.Quantity, ask)
			}
		}
	}
}
