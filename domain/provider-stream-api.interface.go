package domain

import "context"

// Subscription is a live exchange feed. Stream is closed by the producer when
// the feed ends; Unsubscribe releases the underlying connection and is safe to
// call more than once.
type Subscription[T any] struct {
	Stream      chan T
	Unsubscribe func()
	Topic       string
}

// FeedAdapter turns raw exchange payloads into normalized book messages.
// Implementations are stateless.
type FeedAdapter interface {
	Exchange() Exchange
	NormalizeSnapshot(raw []byte) (*Snapshot, error)
	NormalizeDelta(raw []byte) (*Delta, error)
}

type ProviderSyncAPI interface {
	// OrderBookSnapshot returns the raw snapshot payload, at most depth levels per side.
	OrderBookSnapshot(ctx context.Context, symbol *MarketSymbol, depth int) ([]byte, error)
	Symbols(ctx context.Context) ([]*MarketSymbol, error)
}

type ProviderStreamAPI interface {
	DepthDiffStream(ctx context.Context, symbol *MarketSymbol) (*Subscription[[]byte], error)
}
