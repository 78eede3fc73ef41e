package bots

import (
	"context"
	"math/rand"
	"time"
)

// RandomSellerBot periodically places offers around the reference price.
type RandomSellerBot struct {
	Interval   time.Duration
	BasePrice  int64
	RangeTicks int64
	MaxQty     int64
	rand       *rand.Rand
}

func NewRandomSellerBot(basePrice int64) *RandomSellerBot {
	return &RandomSellerBot{
		Interval:   200 * time.Millisecond,
		BasePrice:  basePrice,
		RangeTicks: 5,
		MaxQty:     5,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *RandomSellerBot) Start(ctx context.Context, client MarketClient) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.placeOffer(ctx, client)
		}
	}
}

func (b *RandomSellerBot) placeOffer(ctx context.Context, client MarketClient) {
	ref := referencePrice(client, b.BasePrice)

	price := ref + b.rand.Int63n(2*b.RangeTicks+1) - b.RangeTicks
	if price <= 0 {
		price = 1
	}

	// Offers skew larger than bids so partial fills happen regularly: a
	// bid never splits across offers, but an offer can be nibbled down.
	qty := b.rand.Int63n(b.MaxQty*2) + 1

	_ = client.SubmitOffer(ctx, qty, price)
}
