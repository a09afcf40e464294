package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// a failed refresh is not retried sooner than this while a listing is served
const catalogRetryDelay = time.Minute

// SymbolCatalog knows which symbols every enabled exchange trades.
type SymbolCatalog struct {
	connManager     domain.ConnManager
	refreshInterval time.Duration
	retryDelay      time.Duration
	static          bool
	log             *zap.Logger
	refresh         singleflight.Group

	mu        sync.RWMutex
	symbols   map[string]*domain.MarketSymbol
	fetchedAt time.Time
	retryAt   time.Time
}

// NewSymbolCatalog serves staticSymbols when given and never asks the
// exchanges. Otherwise the intersection of the exchange listings is fetched on
// first use and again once it is older than refreshInterval.
func NewSymbolCatalog(cm domain.ConnManager, staticSymbols []string, refreshInterval time.Duration, log *zap.Logger) (*SymbolCatalog, error) {
	c := &SymbolCatalog{
		connManager:     cm,
		refreshInterval: refreshInterval,
		retryDelay:      min(refreshInterval, catalogRetryDelay),
		log:             log,
	}

	if len(staticSymbols) > 0 {
		c.static = true
		c.symbols = make(map[string]*domain.MarketSymbol, len(staticSymbols))
		for _, s := range staticSymbols {
			symbol, err := domain.NewMarketSymbolFromString(s)
			if err != nil {
				return nil, fmt.Errorf("catalog symbol %q: %w", s, err)
			}
			c.symbols[symbol.Key()] = symbol
		}
	}

	return c, nil
}

// Validate resolves a client supplied symbol (ethbtc, eth_btc, ETH-BTC or
// ETH/BTC) to the catalog entry.
func (c *SymbolCatalog) Validate(ctx context.Context, symbol string) (*domain.MarketSymbol, error) {
	symbols, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	s, ok := symbols[domain.SymbolKey(symbol)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", symbol, domain.ErrUnknownSymbol)
	}
	return s, nil
}

// Symbols returns the sorted keys of every supported symbol.
func (c *SymbolCatalog) Symbols(ctx context.Context) ([]string, error) {
	symbols, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(symbols))
	for key := range symbols {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *SymbolCatalog) load(ctx context.Context) (map[string]*domain.MarketSymbol, error) {
	c.mu.RLock()
	symbols, fetchedAt, retryAt := c.symbols, c.fetchedAt, c.retryAt
	c.mu.RUnlock()

	if c.static || (symbols != nil && time.Since(fetchedAt) < c.refreshInterval) {
		return symbols, nil
	}
	if symbols != nil && time.Now().Before(retryAt) {
		return symbols, nil
	}

	// concurrent callers share one round of exchange requests
	v, err, _ := c.refresh.Do("symbols", func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		if symbols != nil {
			c.mu.Lock()
			c.retryAt = time.Now().Add(c.retryDelay)
			c.mu.Unlock()

			c.log.Warn("symbol catalog refresh failed, serving the previous listing",
				zap.Duration("retry_in", c.retryDelay), zap.Error(err))
			return symbols, nil
		}
		return nil, err
	}
	fresh := v.(map[string]*domain.MarketSymbol)

	c.mu.Lock()
	c.symbols, c.fetchedAt = fresh, time.Now()
	c.mu.Unlock()

	c.log.Info("symbol catalog refreshed", zap.Int("symbols", len(fresh)))
	return fresh, nil
}

func (c *SymbolCatalog) fetch(ctx context.Context) (map[string]*domain.MarketSymbol, error) {
	providers := c.connManager.Providers()
	listings := make([][]*domain.MarketSymbol, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			symbols, err := p.SyncAPI.Symbols(gctx)
			if err != nil {
				return fmt.Errorf("%s symbols: %w: %v", p.Exchange, domain.ErrUnavailable, err)
			}
			listings[i] = symbols
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return intersect(listings), nil
}

// intersect keeps the symbols present in every listing. The first listing's
// spelling wins.
func intersect(listings [][]*domain.MarketSymbol) map[string]*domain.MarketSymbol {
	result := make(map[string]*domain.MarketSymbol)
	if len(listings) == 0 {
		return result
	}

	counts := make(map[string]int)
	for _, listing := range listings {
		seen := make(map[string]bool, len(listing))
		for _, s := range listing {
			key := s.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
		}
	}

	for _, s := range listings[0] {
		if counts[s.Key()] == len(listings) {
			result[s.Key()] = s
		}
	}
	return result
}
