package market

import "sync/atomic"

// Sequence generators for entity identity. IDs are process-wide, monotonic
// and unique per entity type; they carry no business meaning beyond equality.
var (
	bidSeq   atomic.Int64
	offerSeq atomic.Int64
	orderSeq atomic.Int64
)

// Bid is a buy intent: the maximum price per unit a user will pay for an item.
type Bid struct {
	ID           int64
	ItemID       int64
	Quantity     int64
	PricePerUnit int64 // expressed in ticks
	UserID       string
}

// NewBid assigns the next bid ID. Two bids with identical fields are still
// distinct entries; identity lives in the ID alone.
func NewBid(itemID, quantity, pricePerUnit int64, userID string) *Bid {
	return &Bid{
		ID:           bidSeq.Add(1),
		ItemID:       itemID,
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
		UserID:       userID,
	}
}

// Offer is a sell intent: the minimum price per unit a user will accept.
// Quantity is the resting remainder and is reduced in place when the offer is
// partially consumed; only the marketplace settlement step may touch it.
type Offer struct {
	ID           int64
	ItemID       int64
	Quantity     int64
	PricePerUnit int64
	UserID       string
}

// NewOffer assigns the next offer ID.
func NewOffer(itemID, quantity, pricePerUnit int64, userID string) *Offer {
	return &Offer{
		ID:           offerSeq.Add(1),
		ItemID:       itemID,
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
		UserID:       userID,
	}
}

// Order records an executed trade between one bid and one offer. Orders are
// immutable once placed and are never removed from the store.
type Order struct {
	ID           int64
	ItemID       int64
	Quantity     int64
	PricePerUnit int64
	BuyerID      string
	SellerID     string
}

// newOrder is unexported: only the marketplace settlement step places orders.
func newOrder(itemID, quantity, pricePerUnit int64, buyerID, sellerID string) Order {
	return Order{
		ID:           orderSeq.Add(1),
		ItemID:       itemID,
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
		BuyerID:      buyerID,
		SellerID:     sellerID,
	}
}
