package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	promclient "github.com/spooky-finn/go-cryptomarkets-aggregator/infrastructure/prometheus"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/provider"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/provider/binance"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/provider/bitstamp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	binanceSnapshot  = `{"lastUpdateId":160,"bids":[["0.0024","10"]],"asks":[["0.0026","100"]]}`
	bitstampSnapshot = `{"timestamp":"1","microtimestamp":"1000000","bids":[["0.0024","5"],["0.0023","1"]],"asks":[["0.0025","3"]]}`
)

// fakeSyncAPI serves snapshots in order and repeats the last one.
type fakeSyncAPI struct {
	mu        sync.Mutex
	snapshots []string
	symbols   []*domain.MarketSymbol
	err       error
	calls     atomic.Int32
}

func (f *fakeSyncAPI) OrderBookSnapshot(ctx context.Context, symbol *domain.MarketSymbol, depth int) ([]byte, error) {
	n := int(f.calls.Add(1)) - 1
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if n >= len(f.snapshots) {
		n = len(f.snapshots) - 1
	}
	return []byte(f.snapshots[n]), nil
}

func (f *fakeSyncAPI) Symbols(ctx context.Context) ([]*domain.MarketSymbol, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.symbols, nil
}

type fakeStreamAPI struct {
	stream       chan []byte
	err          error
	unsubscribed atomic.Int32
}

func newFakeStreamAPI() *fakeStreamAPI {
	return &fakeStreamAPI{stream: make(chan []byte)}
}

func (f *fakeStreamAPI) DepthDiffStream(ctx context.Context, symbol *domain.MarketSymbol) (*domain.Subscription[[]byte], error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Subscription[[]byte]{
		Stream:      f.stream,
		Unsubscribe: func() { f.unsubscribed.Add(1) },
		Topic:       symbol.Key(),
	}, nil
}

type fakeExchange struct {
	sync   *fakeSyncAPI
	stream *fakeStreamAPI
}

type fixture struct {
	binance  fakeExchange
	bitstamp fakeExchange
	metrics  *promclient.Metrics
	usecase  *SummaryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		binance: fakeExchange{
			sync:   &fakeSyncAPI{snapshots: []string{binanceSnapshot}},
			stream: newFakeStreamAPI(),
		},
		bitstamp: fakeExchange{
			sync:   &fakeSyncAPI{snapshots: []string{bitstampSnapshot}},
			stream: newFakeStreamAPI(),
		},
		metrics: promclient.NewMetrics(),
	}

	cm := provider.NewStaticConnectionManager(
		&domain.Provider{
			Exchange:  domain.Binance,
			Adapter:   binance.NewAdapter(),
			SyncAPI:   f.binance.sync,
			StreamAPI: f.binance.stream,
			Validator: &binance.BinanceDepthUpdateValidator{},
		},
		&domain.Provider{
			Exchange:  domain.Bitstamp,
			Adapter:   bitstamp.NewAdapter(),
			SyncAPI:   f.bitstamp.sync,
			StreamAPI: f.bitstamp.stream,
			Validator: &bitstamp.BitstampDepthUpdateValidator{},
		},
	)

	catalog, err := NewSymbolCatalog(cm, []string{"eth_btc"}, time.Hour, zap.NewNop())
	require.NoError(t, err)

	f.usecase = NewSummaryUseCase(cm, catalog, f.metrics, zap.NewNop(), Options{
		DefaultLevels:   10,
		SnapshotDepth:   100,
		SummaryBuffer:   1,
		SnapshotTimeout: time.Second,
	})
	return f
}

type flatLevel struct {
	Exchange domain.Exchange
	Price    string
	Quantity string
}

func flatten(levels []domain.SummaryLevel) []flatLevel {
	result := make([]flatLevel, 0, len(levels))
	for _, l := range levels {
		result = append(result, flatLevel{l.Exchange, l.Price.String(), l.Quantity.String()})
	}
	return result
}
