package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func symbols(t *testing.T, pairs ...string) []*domain.MarketSymbol {
	t.Helper()
	result := make([]*domain.MarketSymbol, 0, len(pairs))
	for _, pair := range pairs {
		s, err := domain.NewMarketSymbolFromString(pair)
		require.NoError(t, err)
		result = append(result, s)
	}
	return result
}

func newCatalog(t *testing.T, refresh time.Duration, apis ...*fakeSyncAPI) *SymbolCatalog {
	t.Helper()
	exchanges := []domain.Exchange{domain.Binance, domain.Bitstamp, domain.Kucoin}
	providers := make([]*domain.Provider, 0, len(apis))
	for i, api := range apis {
		providers = append(providers, &domain.Provider{Exchange: exchanges[i], SyncAPI: api})
	}

	c, err := NewSymbolCatalog(provider.NewStaticConnectionManager(providers...), nil, refresh, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestSymbolCatalog_Intersection(t *testing.T) {
	binanceAPI := &fakeSyncAPI{symbols: symbols(t, "ETH_BTC", "BTC_USDT", "LTC_BTC")}
	bitstampAPI := &fakeSyncAPI{symbols: symbols(t, "btc/usd", "eth/btc", "ltc/btc")}
	c := newCatalog(t, time.Hour, binanceAPI, bitstampAPI)

	keys, err := c.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ethbtc", "ltcbtc"}, keys)

	// cached until the refresh interval passes
	_, err = c.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), binanceAPI.calls.Load())
}

func TestSymbolCatalog_Validate(t *testing.T) {
	c := newCatalog(t, time.Hour, &fakeSyncAPI{symbols: symbols(t, "eth_btc")})

	for _, s := range []string{"ethbtc", "eth_btc", "ETH-BTC", "ETH/BTC", " EthBtc "} {
		symbol, err := c.Validate(context.Background(), s)
		require.NoError(t, err, s)
		assert.Equal(t, "eth", symbol.BaseAsset)
		assert.Equal(t, "btc", symbol.QuoteAsset)
	}

	_, err := c.Validate(context.Background(), "btcusdt")
	assert.ErrorIs(t, err, domain.ErrUnknownSymbol)
}

func TestSymbolCatalog_Static(t *testing.T) {
	api := &fakeSyncAPI{err: errors.New("unreachable")}
	c, err := NewSymbolCatalog(
		provider.NewStaticConnectionManager(&domain.Provider{Exchange: domain.Binance, SyncAPI: api}),
		[]string{"ETH-BTC", "btc_usdt"}, time.Hour, zap.NewNop(),
	)
	require.NoError(t, err)

	keys, err := c.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"btcusdt", "ethbtc"}, keys)
	assert.Zero(t, api.calls.Load())
}

func TestSymbolCatalog_InvalidStaticSymbol(t *testing.T) {
	_, err := NewSymbolCatalog(provider.NewStaticConnectionManager(), []string{"ethbtc"}, time.Hour, zap.NewNop())
	assert.Error(t, err)
}

func TestSymbolCatalog_FetchFailure(t *testing.T) {
	c := newCatalog(t, time.Hour, &fakeSyncAPI{symbols: symbols(t, "eth_btc")}, &fakeSyncAPI{err: errors.New("502")})

	_, err := c.Validate(context.Background(), "ethbtc")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestSymbolCatalog_ServesPreviousListingWhenRefreshFails(t *testing.T) {
	api := &fakeSyncAPI{symbols: symbols(t, "eth_btc")}
	c := newCatalog(t, 0, api)

	_, err := c.Validate(context.Background(), "ethbtc")
	require.NoError(t, err)

	api.err = errors.New("timeout")
	_, err = c.Validate(context.Background(), "ethbtc")
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.calls.Load())
}

func TestSymbolCatalog_FailedRefreshBacksOff(t *testing.T) {
	api := &fakeSyncAPI{symbols: symbols(t, "eth_btc")}
	c := newCatalog(t, 0, api)
	c.retryDelay = time.Hour

	_, err := c.Validate(context.Background(), "ethbtc")
	require.NoError(t, err)

	api.err = errors.New("timeout")
	for i := 0; i < 3; i++ {
		_, err = c.Validate(context.Background(), "ethbtc")
		require.NoError(t, err)
	}
	// one failed refresh, the next calls are served without asking again
	assert.Equal(t, int32(2), api.calls.Load())

	list, err := c.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ethbtc"}, list)
	assert.Equal(t, int32(2), api.calls.Load())
}
