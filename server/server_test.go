package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/market"
)

func newTestServer(t *testing.T, authToken string) (*server, *httptest.Server) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	mkt := market.New(market.Config{Logger: log})
	srv := newServer(mkt, authToken, "*", log)
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestSubmitBidAndQueryIt(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/bids", bidRequest{ItemID: 1, Quantity: 10, PricePerUnit: 25, UserID: "Buyer"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted submitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	assert.Equal(t, "accepted", accepted.Status)
	assert.NotZero(t, accepted.ID)

	listResp, err := http.Get(ts.URL + "/bids?user=Buyer")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var bids []publicBid
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&bids))
	require.Len(t, bids, 1)
	assert.Equal(t, accepted.ID, bids[0].ID)
	assert.Equal(t, int64(25), bids[0].PricePerUnit)
}

func TestSubmitInvalidBidReturnsBadRequest(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/bids", bidRequest{ItemID: 1, Quantity: 0, PricePerUnit: 25, UserID: "Buyer"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/offers", offerRequest{ItemID: 1, Quantity: 5, PricePerUnit: -1, UserID: "Seller"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMatchedPairShowsUpInOrders(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/bids", bidRequest{ItemID: 1, Quantity: 10, PricePerUnit: 25, UserID: "Buyer"})
	resp.Body.Close()
	resp = postJSON(t, ts.URL+"/offers", offerRequest{ItemID: 1, Quantity: 10, PricePerUnit: 24, UserID: "Seller"})
	resp.Body.Close()

	ordersResp, err := http.Get(ts.URL + "/orders?buyer=Buyer")
	require.NoError(t, err)
	defer ordersResp.Body.Close()
	require.Equal(t, http.StatusOK, ordersResp.StatusCode)

	var orders []publicOrder
	require.NoError(t, json.NewDecoder(ordersResp.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, int64(24), orders[0].PricePerUnit)
	assert.Equal(t, "Seller", orders[0].SellerID)
}

func TestOrdersRequiresExactlyOneSide(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/orders?buyer=a&seller=b")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/orders")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPricesOmitMissingSides(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/bids", bidRequest{ItemID: 3, Quantity: 1, PricePerUnit: 42, UserID: "Buyer"})
	resp.Body.Close()

	pricesResp, err := http.Get(ts.URL + "/prices?item=3")
	require.NoError(t, err)
	defer pricesResp.Body.Close()

	var prices pricesResponse
	require.NoError(t, json.NewDecoder(pricesResp.Body).Decode(&prices))
	require.NotNil(t, prices.BidPrice)
	assert.Equal(t, int64(42), *prices.BidPrice)
	assert.Nil(t, prices.OfferPrice)
}

func TestAuthTokenIsEnforced(t *testing.T) {
	_, ts := newTestServer(t, "secret")

	resp, err := http.Get(ts.URL + "/prices?item=1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/prices?item=1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOrderStreamDeliversExecutions(t *testing.T) {
	_, ts := newTestServer(t, "")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/orders"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the handler a moment to register its subscription, then trade.
	time.Sleep(50 * time.Millisecond)
	resp := postJSON(t, ts.URL+"/bids", bidRequest{ItemID: 1, Quantity: 5, PricePerUnit: 30, UserID: "Buyer"})
	resp.Body.Close()
	resp = postJSON(t, ts.URL+"/offers", offerRequest{ItemID: 1, Quantity: 5, PricePerUnit: 30, UserID: "Seller"})
	resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg struct {
		Type string      `json:"type"`
		Data publicOrder `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "order", msg.Type)
	assert.Equal(t, int64(5), msg.Data.Quantity)
	assert.Equal(t, int64(30), msg.Data.PricePerUnit)
	assert.Equal(t, "Buyer", msg.Data.BuyerID)
}
