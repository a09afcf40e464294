package domain

import (
	"sort"

	"github.com/google/btree"
)

const ladderDegree = 32

// PriceLevel is one rung of a ladder: every exchange quoting this price and
// the quantity it quotes.
type PriceLevel struct {
	Price      Price
	quantities map[Exchange]Quantity
}

func newPriceLevel(price Price) *PriceLevel {
	return &PriceLevel{
		Price:      price,
		quantities: make(map[Exchange]Quantity, 2),
	}
}

func (pl *PriceLevel) Quantity(exchange Exchange) (Quantity, bool) {
	q, ok := pl.quantities[exchange]
	return q, ok
}

func (pl *PriceLevel) Len() int {
	return len(pl.quantities)
}

// Exchanges lists the exchanges quoting this level, ordered by rank.
// Exchanges missing from rank go last, by name.
func (pl *PriceLevel) Exchanges(rank map[Exchange]int) []Exchange {
	exchanges := make([]Exchange, 0, len(pl.quantities))
	for ex := range pl.quantities {
		exchanges = append(exchanges, ex)
	}

	sort.Slice(exchanges, func(i, j int) bool {
		ri, iok := rank[exchanges[i]]
		rj, jok := rank[exchanges[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return exchanges[i] < exchanges[j]
		}
	})

	return exchanges
}

// ladder is one side of the book. Min() is always the best price.
type ladder struct {
	side Side
	tree *btree.BTreeG[*PriceLevel]
}

func newLadder(side Side) *ladder {
	less := func(a, b *PriceLevel) bool { return a.Price.LessThan(b.Price) }
	if side == Bid {
		less = func(a, b *PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
	}

	return &ladder{
		side: side,
		tree: btree.NewG[*PriceLevel](ladderDegree, less),
	}
}

func (l *ladder) get(price Price) (*PriceLevel, bool) {
	return l.tree.Get(&PriceLevel{Price: price})
}

func (l *ladder) set(exchange Exchange, price Price, quantity Quantity) {
	level, ok := l.get(price)
	if !ok {
		level = newPriceLevel(price)
		l.tree.ReplaceOrInsert(level)
	}
	level.quantities[exchange] = quantity
}

// remove drops the exchange's quote at price; the level goes with its last quote.
func (l *ladder) remove(exchange Exchange, price Price) bool {
	level, ok := l.get(price)
	if !ok {
		return false
	}
	if _, ok := level.quantities[exchange]; !ok {
		return false
	}

	delete(level.quantities, exchange)
	if len(level.quantities) == 0 {
		l.tree.Delete(level)
	}
	return true
}

func (l *ladder) removeExchange(exchange Exchange) {
	var emptied []*PriceLevel
	l.tree.Ascend(func(level *PriceLevel) bool {
		delete(level.quantities, exchange)
		if len(level.quantities) == 0 {
			emptied = append(emptied, level)
		}
		return true
	})

	for _, level := range emptied {
		l.tree.Delete(level)
	}
}

func (l *ladder) best() (*PriceLevel, bool) {
	return l.tree.Min()
}

func (l *ladder) ascend(fn func(level *PriceLevel) bool) {
	l.tree.Ascend(fn)
}

func (l *ladder) len() int {
	return l.tree.Len()
}

func (l *ladder) clear() {
	l.tree.Clear(false)
}
