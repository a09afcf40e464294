package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func testSymbol(t *testing.T) *domain.MarketSymbol {
	symbol, err := domain.NewMarketSymbol("eth", "btc")
	require.NoError(t, err)
	return symbol
}

func next(t *testing.T, m *Multiplexer) (domain.FeedMessage, bool) {
	t.Helper()
	select {
	case msg, ok := <-m.Messages():
		return msg, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for multiplexer")
		return domain.FeedMessage{}, false
	}
}

func TestMultiplexer_TagsMessages(t *testing.T) {
	binance, bitstamp := newFakeStreamAPI(), newFakeStreamAPI()

	m, err := Open(context.Background(), testSymbol(t),
		Source{Exchange: domain.Binance, StreamAPI: binance},
		Source{Exchange: domain.Bitstamp, StreamAPI: bitstamp},
	)
	require.NoError(t, err)
	defer m.Close()

	go func() { bitstamp.stream <- []byte("b1") }()
	msg, ok := next(t, m)
	require.True(t, ok)
	assert.Equal(t, domain.FeedMessage{Exchange: domain.Bitstamp, Data: []byte("b1")}, msg)

	go func() { binance.stream <- []byte("a1") }()
	msg, ok = next(t, m)
	require.True(t, ok)
	assert.Equal(t, domain.Binance, msg.Exchange)
	assert.Equal(t, "a1", string(msg.Data))
}

func TestMultiplexer_KeepsPerSourceOrder(t *testing.T) {
	binance := newFakeStreamAPI()

	m, err := Open(context.Background(), testSymbol(t), Source{Exchange: domain.Binance, StreamAPI: binance})
	require.NoError(t, err)
	defer m.Close()

	go func() {
		for _, s := range []string{"1", "2", "3"} {
			binance.stream <- []byte(s)
		}
	}()

	for _, want := range []string{"1", "2", "3"} {
		msg, ok := next(t, m)
		require.True(t, ok)
		assert.Equal(t, want, string(msg.Data))
	}
}

func TestMultiplexer_FeedEndEndsStream(t *testing.T) {
	binance, bitstamp := newFakeStreamAPI(), newFakeStreamAPI()

	m, err := Open(context.Background(), testSymbol(t),
		Source{Exchange: domain.Binance, StreamAPI: binance},
		Source{Exchange: domain.Bitstamp, StreamAPI: bitstamp},
	)
	require.NoError(t, err)

	close(bitstamp.stream)

	_, ok := next(t, m)
	assert.False(t, ok)

	err = m.Err()
	assert.ErrorIs(t, err, domain.ErrStreamClosed)
	var streamErr *domain.StreamError
	require.True(t, errors.As(err, &streamErr))
	assert.Equal(t, domain.Bitstamp, streamErr.Exchange)

	// every connection is released, not only the one that ended
	assert.EqualValues(t, 1, binance.unsubscribed.Load())
	assert.EqualValues(t, 1, bitstamp.unsubscribed.Load())
	m.Close()
}

func TestMultiplexer_Close(t *testing.T) {
	binance, bitstamp := newFakeStreamAPI(), newFakeStreamAPI()

	m, err := Open(context.Background(), testSymbol(t),
		Source{Exchange: domain.Binance, StreamAPI: binance},
		Source{Exchange: domain.Bitstamp, StreamAPI: bitstamp},
	)
	require.NoError(t, err)

	assert.NoError(t, m.Err())
	m.Close()

	_, ok := <-m.Messages()
	assert.False(t, ok)
	assert.NoError(t, m.Err())
	assert.EqualValues(t, 1, binance.unsubscribed.Load())
	assert.EqualValues(t, 1, bitstamp.unsubscribed.Load())
}

func TestMultiplexer_ContextCancel(t *testing.T) {
	binance := newFakeStreamAPI()
	ctx, cancel := context.WithCancel(context.Background())

	m, err := Open(ctx, testSymbol(t), Source{Exchange: domain.Binance, StreamAPI: binance})
	require.NoError(t, err)

	cancel()
	_, ok := next(t, m)
	assert.False(t, ok)
	assert.NoError(t, m.Err())
	assert.EqualValues(t, 1, binance.unsubscribed.Load())
}

func TestOpen_SubscribeFailure(t *testing.T) {
	binance, bitstamp := newFakeStreamAPI(), newFakeStreamAPI()
	bitstamp.err = errors.New("dial tcp: connection refused")

	m, err := Open(context.Background(), testSymbol(t),
		Source{Exchange: domain.Binance, StreamAPI: binance},
		Source{Exchange: domain.Bitstamp, StreamAPI: bitstamp},
	)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Contains(t, err.Error(), "bitstamp")
	assert.EqualValues(t, 1, binance.unsubscribed.Load())
}
