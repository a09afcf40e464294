package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Exchange string

const (
	Binance  Exchange = "binance"
	Bitstamp Exchange = "bitstamp"
	Kucoin   Exchange = "kucoin"
)

type (
	Price    = decimal.Decimal
	Quantity = decimal.Decimal
)

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// LevelUpdate sets the quantity one exchange quotes at one price.
// A zero quantity removes that exchange's quote.
type LevelUpdate struct {
	Exchange Exchange
	Side     Side
	Price    Price
	Quantity Quantity
}

func (u LevelUpdate) IsRemoval() bool {
	return u.Quantity.IsZero()
}

// Snapshot is a full replacement of one exchange's contribution to a book.
type Snapshot struct {
	Exchange Exchange
	// Sequence is the exchange's book version at the time of the snapshot
	// (binance lastUpdateId, kucoin sequence, bitstamp microtimestamp).
	Sequence int64
	Updates  []LevelUpdate
}

// Delta is one incremental exchange message normalized to level updates.
type Delta struct {
	Exchange Exchange
	FirstSeq int64
	LastSeq  int64
	Updates  []LevelUpdate
	// ChangeSeqs holds a per-update sequence when the exchange provides one.
	// Either nil or the same length as Updates.
	ChangeSeqs []int64
}

// FeedMessage is a raw stream frame tagged with the exchange it came from.
type FeedMessage struct {
	Exchange Exchange
	Data     []byte
}

// ParseLevels converts exchange [price, quantity, ...] string tuples into
// level updates. Extra tuple elements are ignored.
func ParseLevels(exchange Exchange, side Side, levels [][]string) ([]LevelUpdate, error) {
	result := make([]LevelUpdate, 0, len(levels))
	for i, level := range levels {
		if len(level) < 2 {
			return nil, fmt.Errorf("%s level %d: expected [price, quantity], got %v", side, i, level)
		}
		price, err := decimal.NewFromString(level[0])
		if err != nil {
			return nil, fmt.Errorf("%s level %d: invalid price %q: %w", side, i, level[0], err)
		}
		quantity, err := decimal.NewFromString(level[1])
		if err != nil {
			return nil, fmt.Errorf("%s level %d: invalid quantity %q: %w", side, i, level[1], err)
		}
		if price.Sign() <= 0 {
			return nil, fmt.Errorf("%s level %d: non-positive price %s", side, i, level[0])
		}
		if quantity.Sign() < 0 {
			return nil, fmt.Errorf("%s level %d: negative quantity %s", side, i, level[1])
		}

		result = append(result, LevelUpdate{
			Exchange: exchange,
			Side:     side,
			Price:    price,
			Quantity: quantity,
		})
	}

	return result, nil
}
