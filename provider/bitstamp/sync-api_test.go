package bitstamp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRESTServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/order_book/ethbtc/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"timestamp":"1","microtimestamp":"1000","bids":[["0.05","1"]],"asks":[["0.06","1"]]}`))
	})
	mux.HandleFunc("/api/v2/trading-pairs-info/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"name":"ETH/BTC","url_symbol":"ethbtc","trading":"Enabled"},
			{"name":"XRP/USD","url_symbol":"xrpusd","trading":"Disabled"},
			{"name":"BTC/USD","url_symbol":"btcusd","trading":"Enabled"}
		]`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestBitstampSyncAPI_OrderBookSnapshot(t *testing.T) {
	server := newRESTServer(t)
	api := NewBitstampSyncAPI(server.URL+"/", zap.NewNop())

	symbol, _ := domain.NewMarketSymbol("ETH", "BTC")
	raw, err := api.OrderBookSnapshot(context.Background(), symbol, 10)
	require.NoError(t, err)

	snapshot, err := NewAdapter().NormalizeSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), snapshot.Sequence)
	assert.Len(t, snapshot.Updates, 2)
}

func TestBitstampSyncAPI_UnknownPair(t *testing.T) {
	server := newRESTServer(t)
	api := NewBitstampSyncAPI(server.URL, zap.NewNop())

	symbol, _ := domain.NewMarketSymbol("foo", "bar")
	_, err := api.OrderBookSnapshot(context.Background(), symbol, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestBitstampSyncAPI_Cancelled(t *testing.T) {
	server := newRESTServer(t)
	api := NewBitstampSyncAPI(server.URL, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	symbol, _ := domain.NewMarketSymbol("eth", "btc")
	_, err := api.OrderBookSnapshot(ctx, symbol, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBitstampSyncAPI_Symbols(t *testing.T) {
	server := newRESTServer(t)
	api := NewBitstampSyncAPI(server.URL, zap.NewNop())

	symbols, err := api.Symbols(context.Background())
	require.NoError(t, err)
	require.Len(t, symbols, 2)
	assert.Equal(t, "ethbtc", symbols[0].Key())
	assert.Equal(t, "btcusd", symbols[1].Key())
}
