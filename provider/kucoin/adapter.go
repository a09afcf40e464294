package kucoin

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
)

type OrderBookSnapshot struct {
	Sequence string     `json:"sequence"`
	Time     int64      `json:"time"`
	Bids     [][]string `json:"bids"`
	Asks     [][]string `json:"asks"`
}

type DepthUpdateModel struct {
	Changes       OrderBookChanges `json:"changes"`
	SequenceEnd   int64            `json:"sequenceEnd"`
	SequenceStart int64            `json:"sequenceStart"`
	Symbol        string           `json:"symbol"`
	Time          int64            `json:"time"`
}

// OrderBookChanges entries are [price, size, sequence].
type OrderBookChanges struct {
	Asks [][]string `json:"asks"`
	Bids [][]string `json:"bids"`
}

// Adapter normalizes KuCoin level2 payloads: the `data` object of the REST
// snapshot and of /market/level2 stream messages.
type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Exchange() domain.Exchange {
	return domain.Kucoin
}

func (a *Adapter) NormalizeSnapshot(raw []byte) (*domain.Snapshot, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.NewAdapterError(domain.Kucoin, "empty snapshot payload")
	}

	data := &OrderBookSnapshot{}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, domain.NewAdapterError(domain.Kucoin, "decode snapshot: %w", err)
	}

	sequence, err := strconv.ParseInt(data.Sequence, 10, 64)
	if err != nil {
		return nil, domain.NewAdapterError(domain.Kucoin, "failed to convert sequence to int: %w", err)
	}

	bids, err := domain.ParseLevels(domain.Kucoin, domain.Bid, data.Bids)
	if err != nil {
		return nil, domain.NewAdapterError(domain.Kucoin, "%w", err)
	}
	asks, err := domain.ParseLevels(domain.Kucoin, domain.Ask, data.Asks)
	if err != nil {
		return nil, domain.NewAdapterError(domain.Kucoin, "%w", err)
	}

	return &domain.Snapshot{
		Exchange: domain.Kucoin,
		Sequence: sequence,
		Updates:  append(bids, asks...),
	}, nil
}

func (a *Adapter) NormalizeDelta(raw []byte) (*domain.Delta, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.NewAdapterError(domain.Kucoin, "empty depth update payload")
	}

	message := &DepthUpdateModel{}
	if err := json.Unmarshal(raw, message); err != nil {
		return nil, domain.NewAdapterError(domain.Kucoin, "decode depth update: %w", err)
	}
	if message.SequenceEnd == 0 {
		return nil, domain.NewAdapterError(domain.Kucoin, "depth update without sequenceEnd")
	}

	bids, bidSeqs, err := parseChanges(domain.Bid, message.Changes.Bids)
	if err != nil {
		return nil, err
	}
	asks, askSeqs, err := parseChanges(domain.Ask, message.Changes.Asks)
	if err != nil {
		return nil, err
	}

	return &domain.Delta{
		Exchange:   domain.Kucoin,
		FirstSeq:   message.SequenceStart,
		LastSeq:    message.SequenceEnd,
		Updates:    append(bids, asks...),
		ChangeSeqs: append(bidSeqs, askSeqs...),
	}, nil
}

func parseChanges(side domain.Side, changes [][]string) ([]domain.LevelUpdate, []int64, error) {
	updates, err := domain.ParseLevels(domain.Kucoin, side, changes)
	if err != nil {
		return nil, nil, domain.NewAdapterError(domain.Kucoin, "%w", err)
	}

	seqs := make([]int64, len(changes))
	for i, change := range changes {
		if len(change) < 3 {
			return nil, nil, domain.NewAdapterError(domain.Kucoin, "%s change %d: missing sequence", side, i)
		}
		seq, err := strconv.ParseInt(change[2], 10, 64)
		if err != nil {
			return nil, nil, domain.NewAdapterError(domain.Kucoin, "%s change %d: invalid sequence %q: %w", side, i, change[2], err)
		}
		seqs[i] = seq
	}

	return updates, seqs, nil
}
