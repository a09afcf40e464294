// Package booksummary holds the wire messages, codec and service descriptor of
// the booksummary.OrderbookAggregator gRPC service (rpc/proto/booksummary.proto).
package booksummary

import (
	"errors"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var errUint32Overflow = errors.New("booksummary: uint32 field overflows")

// Message is implemented by every booksummary message.
type Message interface {
	MarshalWire() []byte
	UnmarshalWire(b []byte) error
}

type Empty struct{}

func (m *Empty) MarshalWire() []byte { return nil }

func (m *Empty) UnmarshalWire(b []byte) error {
	return decode(b, func(protowire.Number, protowire.Type, []byte) (int, bool) {
		return 0, false
	})
}

type Symbols struct {
	Symbols []string
}

func (m *Symbols) MarshalWire() []byte {
	var b []byte
	for _, s := range m.Symbols {
		b = appendString(b, 1, s)
	}
	return b
}

func (m *Symbols) UnmarshalWire(b []byte) error {
	*m = Symbols{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			m.Symbols = append(m.Symbols, v)
			return n, true
		}
		return 0, false
	})
}

type SummaryRequest struct {
	Symbol   string
	Levels   uint32
	MinPrice float64
	MaxPrice float64
	Decimals uint32
}

func (m *SummaryRequest) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Symbol)
	b = appendUint32(b, 2, m.Levels)
	b = appendDouble(b, 3, m.MinPrice)
	b = appendDouble(b, 4, m.MaxPrice)
	b = appendUint32(b, 5, m.Decimals)
	return b
}

func (m *SummaryRequest) UnmarshalWire(b []byte) error {
	*m = SummaryRequest{}
	var err error
	decodeErr := decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (n int, ok bool) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.Symbol, n = protowire.ConsumeString(b)
		case num == 2 && typ == protowire.VarintType:
			m.Levels, n = consumeUint32(b, &err)
		case num == 3 && typ == protowire.Fixed64Type:
			m.MinPrice, n = consumeDouble(b)
		case num == 4 && typ == protowire.Fixed64Type:
			m.MaxPrice, n = consumeDouble(b)
		case num == 5 && typ == protowire.VarintType:
			m.Decimals, n = consumeUint32(b, &err)
		default:
			return 0, false
		}
		return n, true
	})
	if decodeErr != nil {
		return decodeErr
	}
	return err
}

type Level struct {
	Exchange string
	Price    float64
	Amount   float64
}

func (m *Level) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Exchange)
	b = appendDouble(b, 2, m.Price)
	b = appendDouble(b, 3, m.Amount)
	return b
}

func (m *Level) UnmarshalWire(b []byte) error {
	*m = Level{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (n int, ok bool) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.Exchange, n = protowire.ConsumeString(b)
		case num == 2 && typ == protowire.Fixed64Type:
			m.Price, n = consumeDouble(b)
		case num == 3 && typ == protowire.Fixed64Type:
			m.Amount, n = consumeDouble(b)
		default:
			return 0, false
		}
		return n, true
	})
}

type Summary struct {
	Spread float64
	Bids   []*Level
	Asks   []*Level
}

func (m *Summary) MarshalWire() []byte {
	var b []byte
	b = appendDouble(b, 1, m.Spread)
	for _, l := range m.Bids {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, l.MarshalWire())
	}
	for _, l := range m.Asks {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, l.MarshalWire())
	}
	return b
}

func (m *Summary) UnmarshalWire(b []byte) error {
	*m = Summary{}
	var err error
	decodeErr := decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch {
		case num == 1 && typ == protowire.Fixed64Type:
			v, n := consumeDouble(b)
			m.Spread = v
			return n, true
		case (num == 2 || num == 3) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, true
			}
			level := &Level{}
			if e := level.UnmarshalWire(v); e != nil && err == nil {
				err = e
			}
			if num == 2 {
				m.Bids = append(m.Bids, level)
			} else {
				m.Asks = append(m.Asks, level)
			}
			return n, true
		}
		return 0, false
	})
	if decodeErr != nil {
		return decodeErr
	}
	return err
}

// decode walks the fields of b. field consumes the value of a known field and
// returns its length, or false to have it skipped.
func decode(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, bool)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, ok := field(num, typ, b)
		if !ok {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

// proto3 scalars are only written when they differ from the zero value.

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendUint32(b []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 && !math.Signbit(v) {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

// consumeUint32 records errUint32Overflow in err for a value wider than 32
// bits instead of truncating it.
func consumeUint32(b []byte, err *error) (uint32, int) {
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 && v > math.MaxUint32 && *err == nil {
		*err = errUint32Overflow
	}
	return uint32(v), n
}

func consumeDouble(b []byte) (float64, int) {
	v, n := protowire.ConsumeFixed64(b)
	return math.Float64frombits(v), n
}
