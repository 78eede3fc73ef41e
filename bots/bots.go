package bots

import "context"

// Bot is a simulation agent that can be run under a supervisor.
type Bot interface {
	Start(ctx context.Context, client MarketClient)
}

// MarketClient abstracts the minimal surface bots need from the marketplace.
// A client is scoped to one item and one user.
type MarketClient interface {
	SubmitBid(ctx context.Context, quantity, pricePerUnit int64) error
	SubmitOffer(ctx context.Context, quantity, pricePerUnit int64) error
	BestBid() (int64, bool)
	BestAsk() (int64, bool)
}
