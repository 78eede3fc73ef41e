package market

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrInvalidArgument is returned when a submitted bid or offer is nil or is
// missing a required field. No state is touched before this check.
var ErrInvalidArgument = errors.New("invalid argument")

const defaultOrderBuffer = 64

// Config controls marketplace parameters.
type Config struct {
	// Logger receives one entry per submission, removal, reduction and
	// placed order. Defaults to the logrus standard logger.
	Logger *logrus.Logger
	// OrderBuffer sizes the executed-order stream returned by Orders.
	OrderBuffer int
}

// Marketplace pairs incoming bids and offers into executed orders.
//
// Submissions are fully serialized: one mutex spans insert, match and
// settle, so a submission is a single atomic unit of work. Matching is
// first-fit by arrival order, not price priority; the first compatible
// resting counterpart wins even when a later one carries a better price.
type Marketplace struct {
	mu     sync.Mutex
	store  *Store
	log    *logrus.Logger
	orders chan Order
}

// New builds an empty marketplace.
func New(cfg Config) *Marketplace {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.OrderBuffer <= 0 {
		cfg.OrderBuffer = defaultOrderBuffer
	}
	return &Marketplace{
		store:  NewStore(),
		log:    cfg.Logger,
		orders: make(chan Order, cfg.OrderBuffer),
	}
}

// AddBid stores the bid and attempts to match it against the resting offers
// for the same item. At most one order is placed per call; an unmatched bid
// rests until a future offer consumes it.
func (m *Marketplace) AddBid(bid *Bid) error {
	if err := validateBid(bid); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.InsertBid(bid)
	m.log.WithFields(logrus.Fields{
		"bid": bid.ID, "item": bid.ItemID, "qty": bid.Quantity,
		"price": bid.PricePerUnit, "user": bid.UserID,
	}).Info("bid entered")

	for _, offer := range m.store.offerEntries(bid.ItemID) {
		if matches(bid, offer) {
			m.settle(bid, offer)
			return nil
		}
	}
	return nil
}

// AddOffer stores the offer and attempts to match it against the resting
// bids for the same item, symmetric to AddBid.
func (m *Marketplace) AddOffer(offer *Offer) error {
	if err := validateOffer(offer); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.InsertOffer(offer)
	m.log.WithFields(logrus.Fields{
		"offer": offer.ID, "item": offer.ItemID, "qty": offer.Quantity,
		"price": offer.PricePerUnit, "user": offer.UserID,
	}).Info("offer entered")

	for _, bid := range m.store.bidEntries(offer.ItemID) {
		if matches(bid, offer) {
			m.settle(bid, offer)
			return nil
		}
	}
	return nil
}

// matches reports whether a bid and an offer can trade. The predicate is
// deliberately asymmetric: a bid is never split across offers, so an offer
// with less quantity than the bid is not a partial match for it.
func matches(bid *Bid, offer *Offer) bool {
	return bid.ItemID == offer.ItemID &&
		bid.PricePerUnit >= offer.PricePerUnit &&
		bid.Quantity <= offer.Quantity
}

// settle executes a trade. The bid is always fully consumed; the offer is
// removed when drained to zero, otherwise its remainder keeps resting.
// Callers must hold m.mu.
func (m *Marketplace) settle(bid *Bid, offer *Offer) {
	price := min(bid.PricePerUnit, offer.PricePerUnit)
	order := newOrder(bid.ItemID, bid.Quantity, price, bid.UserID, offer.UserID)
	m.store.InsertOrder(order)

	m.store.RemoveBid(bid)
	m.log.WithField("bid", bid.ID).Info("bid removed")

	if offer.Quantity == bid.Quantity {
		m.store.RemoveOffer(offer)
		m.log.WithField("offer", offer.ID).Info("offer removed")
	} else {
		m.store.ReduceOffer(offer, bid.Quantity)
		m.log.WithFields(logrus.Fields{
			"offer": offer.ID, "remaining": offer.Quantity,
		}).Info("offer reduced")
	}

	m.log.WithFields(logrus.Fields{
		"order": order.ID, "item": order.ItemID, "qty": order.Quantity,
		"price": order.PricePerUnit, "buyer": order.BuyerID, "seller": order.SellerID,
	}).Info("order placed")

	// Best-effort stream; the store stays the source of truth.
	select {
	case m.orders <- order:
	default:
	}
}

// BidPrice returns the best (maximum) resting bid price for an item. The
// second result is false when no bids rest for that item.
func (m *Marketplace) BidPrice(itemID int64) (int64, bool) {
	var best int64
	found := false
	for _, bid := range m.store.BidsByItem(itemID) {
		if !found || bid.PricePerUnit > best {
			best = bid.PricePerUnit
			found = true
		}
	}
	return best, found
}

// OfferPrice returns the best (minimum) resting offer price for an item.
func (m *Marketplace) OfferPrice(itemID int64) (int64, bool) {
	var best int64
	found := false
	for _, offer := range m.store.OffersByItem(itemID) {
		if !found || offer.PricePerUnit < best {
			best = offer.PricePerUnit
			found = true
		}
	}
	return best, found
}

// BidsForUser returns the user's resting bids in submission order.
func (m *Marketplace) BidsForUser(userID string) []Bid {
	return m.store.BidsByUser(userID)
}

// OffersForUser returns the user's resting offers in submission order.
func (m *Marketplace) OffersForUser(userID string) []Offer {
	return m.store.OffersByUser(userID)
}

// OrdersForBuyer returns the orders where the user was the buyer.
func (m *Marketplace) OrdersForBuyer(userID string) []Order {
	return m.store.OrdersByBuyer(userID)
}

// OrdersForSeller returns the orders where the user was the seller.
func (m *Marketplace) OrdersForSeller(userID string) []Order {
	return m.store.OrdersBySeller(userID)
}

// Orders exposes the stream of executed orders. The stream drops entries
// when no consumer keeps up; query the store for the authoritative record.
func (m *Marketplace) Orders() <-chan Order {
	return m.orders
}

func validateBid(bid *Bid) error {
	switch {
	case bid == nil:
		return errors.Wrap(ErrInvalidArgument, "bid is nil")
	case bid.ID == 0:
		return errors.Wrap(ErrInvalidArgument, "bid has no identity; use NewBid")
	case bid.ItemID <= 0:
		return errors.Wrap(ErrInvalidArgument, "bid item is required")
	case bid.Quantity <= 0:
		return errors.Wrap(ErrInvalidArgument, "bid quantity must be positive")
	case bid.PricePerUnit <= 0:
		return errors.Wrap(ErrInvalidArgument, "bid price must be positive")
	case bid.UserID == "":
		return errors.Wrap(ErrInvalidArgument, "bid user is required")
	}
	return nil
}

func validateOffer(offer *Offer) error {
	switch {
	case offer == nil:
		return errors.Wrap(ErrInvalidArgument, "offer is nil")
	case offer.ID == 0:
		return errors.Wrap(ErrInvalidArgument, "offer has no identity; use NewOffer")
	case offer.ItemID <= 0:
		return errors.Wrap(ErrInvalidArgument, "offer item is required")
	case offer.Quantity <= 0:
		return errors.Wrap(ErrInvalidArgument, "offer quantity must be positive")
	case offer.PricePerUnit <= 0:
		return errors.Wrap(ErrInvalidArgument, "offer price must be positive")
	case offer.UserID == "":
		return errors.Wrap(ErrInvalidArgument, "offer user is required")
	}
	return nil
}
