package domain

import (
	"fmt"
	"time"
)

// BookConfig is fixed for the lifetime of an OrderBook. Changing it means
// Reset, which starts the book over from empty ladders.
type BookConfig struct {
	Symbol *MarketSymbol
	// Levels caps the entries per side in a summary. Zero or less means no cap.
	Levels int
	// Updates priced outside [MinPrice, MaxPrice] are not stored.
	// A zero bound is open.
	MinPrice Price
	MaxPrice Price
	// Decimals > 0 rounds summary prices to that many places,
	// bids down and asks up.
	Decimals int32
	// Priority orders exchanges quoting the same price.
	Priority []Exchange
}

type SummaryLevel struct {
	Exchange Exchange
	Price    Price
	Quantity Quantity
}

// Summary is a read-only, depth-limited projection of an OrderBook.
type Summary struct {
	Symbol string
	Bids   []SummaryLevel
	Asks   []SummaryLevel
	// Spread is best ask minus best bid, nil while either side is empty.
	Spread  *Price
	Crossed bool
}

// OrderBook merges the ladders of several exchanges for one symbol.
// It is owned by exactly one session and is not safe for concurrent use.
type OrderBook struct {
	config BookConfig
	rank   map[Exchange]int

	bids *ladder
	asks *ladder

	LastUpdateTime time.Time
}

func NewOrderBook(config BookConfig) *OrderBook {
	ob := &OrderBook{
		bids: newLadder(Bid),
		asks: newLadder(Ask),
	}
	ob.Reset(config)
	return ob
}

// InitOrderBook builds a book from one snapshot per tracked exchange.
// A crossed result still returns the book together with ErrCrossedBook.
func InitOrderBook(config BookConfig, snapshots ...*Snapshot) (*OrderBook, error) {
	for _, snapshot := range snapshots {
		if config.Levels > 0 && len(snapshot.Updates) == 0 {
			return nil, fmt.Errorf("%s %s: %w", snapshot.Exchange, config.Symbol, ErrEmptySnapshot)
		}
	}

	ob := NewOrderBook(config)
	for _, snapshot := range snapshots {
		ob.replaceExchange(snapshot)
	}
	ob.LastUpdateTime = time.Now()

	return ob, ob.checkCrossed()
}

func (ob *OrderBook) Config() BookConfig {
	return ob.config
}

// Reset replaces the configuration and empties both ladders.
func (ob *OrderBook) Reset(config BookConfig) {
	rank := make(map[Exchange]int, len(config.Priority))
	for i, exchange := range config.Priority {
		if _, ok := rank[exchange]; !ok {
			rank[exchange] = i
		}
	}

	ob.config = config
	ob.rank = rank
	ob.bids.clear()
	ob.asks.clear()
	ob.LastUpdateTime = time.Time{}
}

// Apply upserts or removes one exchange quote. Applying the same update twice
// leaves the book as applying it once.
func (ob *OrderBook) Apply(update LevelUpdate) error {
	ob.apply(update)
	ob.LastUpdateTime = time.Now()
	return ob.checkCrossed()
}

// ApplySnapshot swaps one exchange's whole contribution for the snapshot's.
func (ob *OrderBook) ApplySnapshot(snapshot *Snapshot) error {
	ob.replaceExchange(snapshot)
	ob.LastUpdateTime = time.Now()
	return ob.checkCrossed()
}

func (ob *OrderBook) Summary() *Summary {
	summary := &Summary{
		Bids: ob.limitDepth(ob.bids),
		Asks: ob.limitDepth(ob.asks),
	}
	if ob.config.Symbol != nil {
		summary.Symbol = ob.config.Symbol.Key()
	}

	bestBid, hasBid := ob.bids.best()
	bestAsk, hasAsk := ob.asks.best()
	if hasBid && hasAsk {
		spread := bestAsk.Price.Sub(bestBid.Price)
		summary.Spread = &spread
		summary.Crossed = spread.Sign() <= 0
	}

	return summary
}

// Depth returns the number of price levels on each side.
func (ob *OrderBook) Depth() (bids int, asks int) {
	return ob.bids.len(), ob.asks.len()
}

func (ob *OrderBook) replaceExchange(snapshot *Snapshot) {
	ob.bids.removeExchange(snapshot.Exchange)
	ob.asks.removeExchange(snapshot.Exchange)

	for _, update := range snapshot.Updates {
		update.Exchange = snapshot.Exchange
		ob.apply(update)
	}
}

func (ob *OrderBook) apply(update LevelUpdate) {
	own, opposite := ob.bids, ob.asks
	if update.Side == Ask {
		own, opposite = ob.asks, ob.bids
	}

	if update.IsRemoval() {
		own.remove(update.Exchange, update.Price)
		return
	}

	if !ob.inRange(update.Price) {
		return
	}

	// an exchange never quotes one price on both sides, the latest side wins
	opposite.remove(update.Exchange, update.Price)
	own.set(update.Exchange, update.Price, update.Quantity)
}

func (ob *OrderBook) inRange(price Price) bool {
	if !ob.config.MinPrice.IsZero() && price.LessThan(ob.config.MinPrice) {
		return false
	}
	if !ob.config.MaxPrice.IsZero() && price.GreaterThan(ob.config.MaxPrice) {
		return false
	}
	return true
}

func (ob *OrderBook) checkCrossed() error {
	bestBid, hasBid := ob.bids.best()
	bestAsk, hasAsk := ob.asks.best()
	if !hasBid || !hasAsk {
		return nil
	}

	if bestBid.Price.GreaterThanOrEqual(bestAsk.Price) {
		return fmt.Errorf("%s: bid %s >= ask %s: %w",
			ob.config.Symbol, bestBid.Price, bestAsk.Price, ErrCrossedBook)
	}
	return nil
}

func (ob *OrderBook) limitDepth(l *ladder) []SummaryLevel {
	limit := ob.config.Levels
	levels := make([]SummaryLevel, 0, max(limit, 0))

	full := func() bool { return limit > 0 && len(levels) >= limit }

	l.ascend(func(level *PriceLevel) bool {
		price := ob.roundPrice(l.side, level.Price)
		for _, exchange := range level.Exchanges(ob.rank) {
			if full() {
				return false
			}
			levels = append(levels, SummaryLevel{
				Exchange: exchange,
				Price:    price,
				Quantity: level.quantities[exchange],
			})
		}
		return !full()
	})

	return levels
}

func (ob *OrderBook) roundPrice(side Side, price Price) Price {
	if ob.config.Decimals <= 0 {
		return price
	}
	if side == Bid {
		return price.RoundFloor(ob.config.Decimals)
	}
	return price.RoundCeil(ob.config.Decimals)
}
