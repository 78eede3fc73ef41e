package bots

import (
	"context"
	"math/rand"
	"time"
)

// RandomBuyerBot periodically places small bids around the reference price.
type RandomBuyerBot struct {
	Interval   time.Duration
	BasePrice  int64
	RangeTicks int64
	MaxQty     int64
	rand       *rand.Rand
}

func NewRandomBuyerBot(basePrice int64) *RandomBuyerBot {
	return &RandomBuyerBot{
		Interval:   200 * time.Millisecond,
		BasePrice:  basePrice,
		RangeTicks: 5,
		MaxQty:     5,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *RandomBuyerBot) Start(ctx context.Context, client MarketClient) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.placeBid(ctx, client)
		}
	}
}

func (b *RandomBuyerBot) placeBid(ctx context.Context, client MarketClient) {
	ref := referencePrice(client, b.BasePrice)

	// Bid a little above or below the reference so some bids cross and the
	// rest rest.
	price := ref + b.rand.Int63n(2*b.RangeTicks+1) - b.RangeTicks
	if price <= 0 {
		price = 1
	}
	qty := b.rand.Int63n(b.MaxQty) + 1

	_ = client.SubmitBid(ctx, qty, price)
}
