package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"bazaar/bots"
	"bazaar/config"
	"bazaar/market"
)

type server struct {
	mkt        *market.Marketplace
	orderHub   *hub[market.Order]
	upgrader   websocket.Upgrader
	authToken  string
	corsOrigin string
	log        *logrus.Logger
}

type bidRequest struct {
	ItemID       int64  `json:"itemId"`
	Quantity     int64  `json:"quantity"`
	PricePerUnit int64  `json:"pricePerUnit"`
	UserID       string `json:"userId"`
}

type offerRequest bidRequest

type submitResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

type publicBid struct {
	ID           int64  `json:"id"`
	ItemID       int64  `json:"itemId"`
	Quantity     int64  `json:"quantity"`
	PricePerUnit int64  `json:"pricePerUnit"`
	UserID       string `json:"userId"`
}

type publicOffer publicBid

type publicOrder struct {
	ID           int64  `json:"id"`
	ItemID       int64  `json:"itemId"`
	Quantity     int64  `json:"quantity"`
	PricePerUnit int64  `json:"pricePerUnit"`
	BuyerID      string `json:"buyerId"`
	SellerID     string `json:"sellerId"`
}

type pricesResponse struct {
	ItemID     int64  `json:"itemId"`
	BidPrice   *int64 `json:"bidPrice,omitempty"`
	OfferPrice *int64 `json:"offerPrice,omitempty"`
}

type outboundMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to yaml config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("invalid log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	mkt := market.New(market.Config{Logger: log, OrderBuffer: cfg.OrderBuffer})
	srv := newServer(mkt, cfg.AuthToken, cfg.CORSOrigin, log)

	if cfg.Bots.Enabled {
		sup := bots.NewSupervisor(mkt, bots.SwarmConfig{
			Item:           cfg.Bots.ItemID,
			BasePrice:      cfg.Bots.BasePrice,
			Buyers:         cfg.Bots.Buyers,
			Sellers:        cfg.Bots.Sellers,
			SubmitInterval: cfg.Bots.ParsedInterval,
		}, log)
		go sup.Start(context.Background())
		log.WithFields(logrus.Fields{
			"item": cfg.Bots.ItemID, "buyers": cfg.Bots.Buyers, "sellers": cfg.Bots.Sellers,
		}).Info("bot swarm started")
	}

	log.Infof("listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.routes()); err != nil {
		log.Fatal(err)
	}
}

func newServer(mkt *market.Marketplace, authToken, corsOrigin string, log *logrus.Logger) *server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &server{
		mkt:        mkt,
		orderHub:   newHub[market.Order](),
		upgrader:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		authToken:  authToken,
		corsOrigin: corsOrigin,
		log:        log,
	}

	go s.consumeOrders()
	return s
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/bids", s.withCORS(s.withAuth(http.HandlerFunc(s.handleBids))))
	mux.Handle("/offers", s.withCORS(s.withAuth(http.HandlerFunc(s.handleOffers))))
	mux.Handle("/orders", s.withCORS(s.withAuth(http.HandlerFunc(s.handleOrders))))
	mux.Handle("/prices", s.withCORS(s.withAuth(http.HandlerFunc(s.handlePrices))))
	mux.Handle("/ws/orders", s.withCORS(s.withAuth(http.HandlerFunc(s.handleOrderStream))))
	return mux
}

func (s *server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != s.authToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("missing or invalid token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleBids(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req bidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid payload"))
			return
		}
		bid := market.NewBid(req.ItemID, req.Quantity, req.PricePerUnit, req.UserID)
		if err := s.mkt.AddBid(bid); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusAccepted, submitResponse{Status: "accepted", ID: bid.ID})
	case http.MethodGet:
		user := r.URL.Query().Get("user")
		if user == "" {
			writeError(w, http.StatusBadRequest, errors.New("user query parameter is required"))
			return
		}
		writeJSON(w, http.StatusOK, toPublicBids(s.mkt.BidsForUser(user)))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *server) handleOffers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req offerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid payload"))
			return
		}
		offer := market.NewOffer(req.ItemID, req.Quantity, req.PricePerUnit, req.UserID)
		if err := s.mkt.AddOffer(offer); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusAccepted, submitResponse{Status: "accepted", ID: offer.ID})
	case http.MethodGet:
		user := r.URL.Query().Get("user")
		if user == "" {
			writeError(w, http.StatusBadRequest, errors.New("user query parameter is required"))
			return
		}
		writeJSON(w, http.StatusOK, toPublicOffers(s.mkt.OffersForUser(user)))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	buyer := r.URL.Query().Get("buyer")
	seller := r.URL.Query().Get("seller")
	switch {
	case buyer != "" && seller == "":
		writeJSON(w, http.StatusOK, toPublicOrders(s.mkt.OrdersForBuyer(buyer)))
	case seller != "" && buyer == "":
		writeJSON(w, http.StatusOK, toPublicOrders(s.mkt.OrdersForSeller(seller)))
	default:
		writeError(w, http.StatusBadRequest, errors.New("exactly one of buyer or seller is required"))
	}
}

func (s *server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	itemID, err := strconv.ParseInt(r.URL.Query().Get("item"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid item"))
		return
	}

	resp := pricesResponse{ItemID: itemID}
	if price, ok := s.mkt.BidPrice(itemID); ok {
		resp.BidPrice = &price
	}
	if price, ok := s.mkt.OfferPrice(itemID); ok {
		resp.OfferPrice = &price
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleOrderStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.orderHub.Subscribe(32)
	defer s.orderHub.Unsubscribe(sub)
	s.log.WithField("subscribers", s.orderHub.Len()).Debug("order stream subscribed")

	for order := range sub.ch {
		msg := outboundMessage{Type: "order", Data: toPublicOrder(order)}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (s *server) consumeOrders() {
	for order := range s.mkt.Orders() {
		s.orderHub.Broadcast(order)
	}
}

func statusFor(err error) int {
	if errors.Is(err, market.ErrInvalidArgument) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func toPublicBids(bids []market.Bid) []publicBid {
	out := make([]publicBid, len(bids))
	for i, b := range bids {
		out[i] = publicBid{ID: b.ID, ItemID: b.ItemID, Quantity: b.Quantity, PricePerUnit: b.PricePerUnit, UserID: b.UserID}
	}
	return out
}

func toPublicOffers(offers []market.Offer) []publicOffer {
	out := make([]publicOffer, len(offers))
	for i, o := range offers {
		out[i] = publicOffer{ID: o.ID, ItemID: o.ItemID, Quantity: o.Quantity, PricePerUnit: o.PricePerUnit, UserID: o.UserID}
	}
	return out
}

func toPublicOrders(orders []market.Order) []publicOrder {
	out := make([]publicOrder, len(orders))
	for i, o := range orders {
		out[i] = toPublicOrder(o)
	}
	return out
}

func toPublicOrder(order market.Order) publicOrder {
	return publicOrder{
		ID:           order.ID,
		ItemID:       order.ItemID,
		Quantity:     order.Quantity,
		PricePerUnit: order.PricePerUnit,
		BuyerID:      order.BuyerID,
		SellerID:     order.SellerID,
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
