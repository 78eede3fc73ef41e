package bots

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/market"
)

func newQuietMarketplace() *market.Marketplace {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return market.New(market.Config{Logger: log})
}

func TestThrottledClientSubmitsForItsUser(t *testing.T) {
	mkt := newQuietMarketplace()
	client := NewThrottledClient(mkt, 1, "alice", nil)
	ctx := context.Background()

	require.NoError(t, client.SubmitBid(ctx, 5, 20))
	require.NoError(t, client.SubmitOffer(ctx, 5, 30))

	bid, ok := client.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(20), bid)
	ask, ok := client.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(30), ask)

	assert.Len(t, mkt.BidsForUser("alice"), 1)
	assert.Len(t, mkt.OffersForUser("alice"), 1)
	assert.Equal(t, int64(2), client.Submitted())
}

func TestThrottledClientHonorsContext(t *testing.T) {
	mkt := newQuietMarketplace()
	throttle := make(chan time.Time) // never fires
	client := NewThrottledClient(mkt, 1, "bob", throttle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.SubmitBid(ctx, 1, 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mkt.BidsForUser("bob"))
}

func TestSniperBotLiftsVisibleAsk(t *testing.T) {
	mkt := newQuietMarketplace()
	require.NoError(t, mkt.AddOffer(market.NewOffer(1, 1, 10, "seller")))

	sniper := &SniperBot{Interval: 5 * time.Millisecond, Quantity: 1}
	client := NewThrottledClient(mkt, 1, "sniper", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sniper.Start(ctx, client)

	orders := mkt.OrdersForBuyer("sniper")
	require.NotEmpty(t, orders)
	assert.Equal(t, int64(10), orders[0].PricePerUnit)
	assert.Empty(t, mkt.OffersForUser("seller"))
}
