package bots

import (
	"context"
	"sync"
	"time"

	"bazaar/market"
)

// ThrottledClient wraps a marketplace with basic rate limiting and submission
// bookkeeping for one simulated user trading one item.
type ThrottledClient struct {
	mkt      *market.Marketplace
	item     int64
	userID   string
	throttle <-chan time.Time

	mu        sync.Mutex
	submitted int64
}

// NewThrottledClient builds a client. A nil throttle disables rate limiting.
func NewThrottledClient(mkt *market.Marketplace, item int64, userID string, throttle <-chan time.Time) *ThrottledClient {
	return &ThrottledClient{
		mkt:      mkt,
		item:     item,
		userID:   userID,
		throttle: throttle,
	}
}

func (c *ThrottledClient) waitThrottle(ctx context.Context) error {
	if c.throttle == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.throttle:
		return nil
	}
}

func (c *ThrottledClient) SubmitBid(ctx context.Context, quantity, pricePerUnit int64) error {
	if err := c.waitThrottle(ctx); err != nil {
		return err
	}
	if err := c.mkt.AddBid(market.NewBid(c.item, quantity, pricePerUnit, c.userID)); err != nil {
		return err
	}
	c.mu.Lock()
	c.submitted++
	c.mu.Unlock()
	return nil
}

func (c *ThrottledClient) SubmitOffer(ctx context.Context, quantity, pricePerUnit int64) error {
	if err := c.waitThrottle(ctx); err != nil {
		return err
	}
	if err := c.mkt.AddOffer(market.NewOffer(c.item, quantity, pricePerUnit, c.userID)); err != nil {
		return err
	}
	c.mu.Lock()
	c.submitted++
	c.mu.Unlock()
	return nil
}

func (c *ThrottledClient) BestBid() (int64, bool) {
	return c.mkt.BidPrice(c.item)
}

func (c *ThrottledClient) BestAsk() (int64, bool) {
	return c.mkt.OfferPrice(c.item)
}

func (c *ThrottledClient) Item() int64 {
	return c.item
}

func (c *ThrottledClient) UserID() string {
	return c.userID
}

// Submitted reports how many bids and offers this client has placed.
func (c *ThrottledClient) Submitted() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}
