package domain

import "context"

// Provider bundles everything a session needs from one exchange.
type Provider struct {
	Exchange  Exchange
	Adapter   FeedAdapter
	SyncAPI   ProviderSyncAPI
	StreamAPI ProviderStreamAPI
	Validator IDepthUpdateValidator
}

type ConnManager interface {
	// Providers returns the enabled exchanges in priority order.
	Providers() []*Provider
	Provider(exchange Exchange) (*Provider, bool)
}

// FetchSnapshot fetches and normalizes one snapshot. Every failure, including a
// payload that cannot be normalized, is reported as a *FetchError.
func (p *Provider) FetchSnapshot(ctx context.Context, symbol *MarketSymbol, depth int) (*Snapshot, error) {
	raw, err := p.SyncAPI.OrderBookSnapshot(ctx, symbol, depth)
	if err != nil {
		return nil, NewFetchError(p.Exchange, err)
	}

	snapshot, err := p.Adapter.NormalizeSnapshot(raw)
	if err != nil {
		return nil, NewFetchError(p.Exchange, err)
	}

	return snapshot, nil
}
