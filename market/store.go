package market

import "sync"

// Store keeps bids, offers and orders in paired keyed views so each is
// retrievable by user or item in insertion order. It holds no matching logic.
//
// Every live bid and offer appears in exactly two views (by user and by
// item); the pair is mutated under one critical section, so readers can
// never observe an entity in one view but not its twin.
type Store struct {
	mu             sync.RWMutex
	bidsByUser     map[string][]*Bid
	bidsByItem     map[int64][]*Bid
	offersByUser   map[string][]*Offer
	offersByItem   map[int64][]*Offer
	ordersByBuyer  map[string][]Order
	ordersBySeller map[string][]Order
}

func NewStore() *Store {
	return &Store{
		bidsByUser:     make(map[string][]*Bid),
		bidsByItem:     make(map[int64][]*Bid),
		offersByUser:   make(map[string][]*Offer),
		offersByItem:   make(map[int64][]*Offer),
		ordersByBuyer:  make(map[string][]Order),
		ordersBySeller: make(map[string][]Order),
	}
}

// InsertBid appends the bid to its by-user and by-item views. Duplicate
// field values are allowed; entries are tracked by ID.
func (s *Store) InsertBid(bid *Bid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bidsByUser[bid.UserID] = append(s.bidsByUser[bid.UserID], bid)
	s.bidsByItem[bid.ItemID] = append(s.bidsByItem[bid.ItemID], bid)
}

// InsertOffer appends the offer to its by-user and by-item views.
func (s *Store) InsertOffer(offer *Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offersByUser[offer.UserID] = append(s.offersByUser[offer.UserID], offer)
	s.offersByItem[offer.ItemID] = append(s.offersByItem[offer.ItemID], offer)
}

// InsertOrder appends the order to the by-buyer and by-seller views.
// Orders are append-only.
func (s *Store) InsertOrder(order Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordersByBuyer[order.BuyerID] = append(s.ordersByBuyer[order.BuyerID], order)
	s.ordersBySeller[order.SellerID] = append(s.ordersBySeller[order.SellerID], order)
}

// RemoveBid removes the specific bid, by ID, from both of its views. A bid
// that is not present is a no-op. An emptied bucket is dropped.
func (s *Store) RemoveBid(bid *Bid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropEntry(s.bidsByUser, bid.UserID, func(b *Bid) bool { return b.ID == bid.ID })
	dropEntry(s.bidsByItem, bid.ItemID, func(b *Bid) bool { return b.ID == bid.ID })
}

// RemoveOffer removes the specific offer, by ID, from both of its views.
func (s *Store) RemoveOffer(offer *Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropEntry(s.offersByUser, offer.UserID, func(o *Offer) bool { return o.ID == offer.ID })
	dropEntry(s.offersByItem, offer.ItemID, func(o *Offer) bool { return o.ID == offer.ID })
}

// ReduceOffer decrements the resting quantity of an offer in place. The
// decrement happens under the store lock so readers never see a torn value.
// Callers must keep the remainder positive; an offer that would reach zero
// is removed instead.
func (s *Store) ReduceOffer(offer *Offer, quantity int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer.Quantity -= quantity
}

// BidsByUser returns the user's resting bids in insertion order. Unknown
// users yield an empty slice, never an error.
func (s *Store) BidsByUser(userID string) []Bid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyBids(s.bidsByUser[userID])
}

// BidsByItem returns the item's resting bids in insertion order.
func (s *Store) BidsByItem(itemID int64) []Bid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyBids(s.bidsByItem[itemID])
}

// OffersByUser returns the user's resting offers in insertion order.
func (s *Store) OffersByUser(userID string) []Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyOffers(s.offersByUser[userID])
}

// OffersByItem returns the item's resting offers in insertion order.
func (s *Store) OffersByItem(itemID int64) []Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyOffers(s.offersByItem[itemID])
}

// OrdersByBuyer returns executed orders where the user bought, oldest first.
func (s *Store) OrdersByBuyer(userID string) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Order(nil), s.ordersByBuyer[userID]...)
}

// OrdersBySeller returns executed orders where the user sold, oldest first.
func (s *Store) OrdersBySeller(userID string) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Order(nil), s.ordersBySeller[userID]...)
}

// bidEntries hands the marketplace the live bid pointers for an item. Only
// the marketplace, which serializes all mutation, may use these.
func (s *Store) bidEntries(itemID int64) []*Bid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Bid(nil), s.bidsByItem[itemID]...)
}

// offerEntries hands the marketplace the live offer pointers for an item.
func (s *Store) offerEntries(itemID int64) []*Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Offer(nil), s.offersByItem[itemID]...)
}

// dropEntry removes the first bucket entry matching the predicate and drops
// the bucket once empty.
func dropEntry[K comparable, V any](m map[K][]V, key K, match func(V) bool) {
	bucket, ok := m[key]
	if !ok {
		return
	}
	for i, v := range bucket {
		if match(v) {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(m, key)
			} else {
				m[key] = bucket
			}
			return
		}
	}
}

// Queries return value copies: resting offers are reduced in place during
// settlement, so interior pointers must not escape the store.
func copyBids(bucket []*Bid) []Bid {
	out := make([]Bid, len(bucket))
	for i, b := range bucket {
		out[i] = *b
	}
	return out
}

func copyOffers(bucket []*Offer) []Offer {
	out := make([]Offer, len(bucket))
	for i, o := range bucket {
		out[i] = *o
	}
	return out
}
