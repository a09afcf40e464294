package bitstamp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const diffFrame = `{"data":{"microtimestamp":"2","bids":[["0.05","2"]],"asks":[]},"channel":"diff_order_book_ethbtc","event":"data"}`

func newWSServer(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func receive(t *testing.T, stream <-chan []byte) ([]byte, bool) {
	t.Helper()
	select {
	case msg, ok := <-stream:
		return msg, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream")
		return nil, false
	}
}

func TestBitstampStreamAPI_DepthDiffStream(t *testing.T) {
	subscribed := make(chan subscribeRequest, 1)
	endpoint := newWSServer(t, func(conn *websocket.Conn) {
		var req subscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		subscribed <- req

		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"event":"bts:subscription_succeeded","channel":"diff_order_book_ethbtc","data":{}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(diffFrame))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"bts:request_reconnect","channel":"","data":""}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(diffFrame))
		_, _, _ = conn.ReadMessage()
	})

	api := NewBitstampStreamAPI(endpoint, zap.NewNop(), true)
	symbol, _ := domain.NewMarketSymbol("eth", "btc")

	sub, err := api.DepthDiffStream(context.Background(), symbol)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	req := <-subscribed
	assert.Equal(t, "bts:subscribe", req.Event)
	assert.Equal(t, "diff_order_book_ethbtc", req.Data.Channel)

	msg, ok := receive(t, sub.Stream)
	require.True(t, ok)
	var event Event
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, "data", event.Event)

	// request_reconnect ends the feed, frames after it are never delivered
	_, ok = receive(t, sub.Stream)
	assert.False(t, ok)
}

func TestBitstampStreamAPI_Unsubscribe(t *testing.T) {
	endpoint := newWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	api := NewBitstampStreamAPI(endpoint, zap.NewNop(), false)
	symbol, _ := domain.NewMarketSymbol("eth", "btc")

	sub, err := api.DepthDiffStream(context.Background(), symbol)
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe()

	_, ok := receive(t, sub.Stream)
	assert.False(t, ok)
}
