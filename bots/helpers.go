package bots

// referencePrice picks a price to quote around: the mid when both sides
// rest, either side alone otherwise, and the fallback on an empty market.
func referencePrice(client MarketClient, fallback int64) int64 {
	bid, hasBid := client.BestBid()
	ask, hasAsk := client.BestAsk()

	switch {
	case hasBid && hasAsk:
		return (bid + ask) / 2
	case hasBid:
		return bid
	case hasAsk:
		return ask
	default:
		return fallback
	}
}
