package binance

import (
	"bytes"
	"encoding/json"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
)

// Message is a combined stream frame.
type Message[T any] struct {
	Stream string `json:"stream"`
	Data   T      `json:"data"`
}

type DepthUpdateData struct {
	Event         string     `json:"e"`
	EventTime     int64      `json:"E"`
	Symbol        string     `json:"s"`
	FirstUpdateId int64      `json:"U"`
	FinalUpdateId int64      `json:"u"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}

type DepthSnapshotData struct {
	LastUpdateId int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

const depthUpdateEvent = "depthUpdate"

// Adapter normalizes Binance spot depth payloads.
type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Exchange() domain.Exchange {
	return domain.Binance
}

// NormalizeSnapshot accepts the bare depth object as well as the WebSocket API
// envelope around it.
func (a *Adapter) NormalizeSnapshot(raw []byte) (*domain.Snapshot, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.NewAdapterError(domain.Binance, "empty snapshot payload")
	}

	var envelope GenericMessage[json.RawMessage]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, domain.NewAdapterError(domain.Binance, "decode snapshot: %w", err)
	}
	if envelope.Error != nil {
		return nil, domain.NewAdapterError(domain.Binance, "snapshot request failed: %s", envelope.Error)
	}
	if len(envelope.Result) > 0 {
		raw = envelope.Result
	}

	var data DepthSnapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, domain.NewAdapterError(domain.Binance, "decode snapshot: %w", err)
	}
	if data.LastUpdateId == 0 && data.Bids == nil && data.Asks == nil {
		return nil, domain.NewAdapterError(domain.Binance, "snapshot has no lastUpdateId, bids or asks")
	}

	updates, err := parseSides(data.Bids, data.Asks)
	if err != nil {
		return nil, err
	}

	return &domain.Snapshot{
		Exchange: domain.Binance,
		Sequence: data.LastUpdateId,
		Updates:  updates,
	}, nil
}

func (a *Adapter) NormalizeDelta(raw []byte) (*domain.Delta, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.NewAdapterError(domain.Binance, "empty depth update payload")
	}

	var message Message[json.RawMessage]
	if err := json.Unmarshal(raw, &message); err != nil {
		return nil, domain.NewAdapterError(domain.Binance, "decode depth update: %w", err)
	}
	// raw stream endpoints send the payload without the combined stream wrapper
	payload := raw
	if message.Stream != "" {
		payload = message.Data
	}

	var data DepthUpdateData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, domain.NewAdapterError(domain.Binance, "decode depth update: %w", err)
	}
	if data.Event != depthUpdateEvent {
		return nil, domain.NewAdapterError(domain.Binance, "unexpected event %q", data.Event)
	}

	updates, err := parseSides(data.Bids, data.Asks)
	if err != nil {
		return nil, err
	}

	return &domain.Delta{
		Exchange: domain.Binance,
		FirstSeq: data.FirstUpdateId,
		LastSeq:  data.FinalUpdateId,
		Updates:  updates,
	}, nil
}

func parseSides(bids, asks [][]string) ([]domain.LevelUpdate, error) {
	bidUpdates, err := domain.ParseLevels(domain.Binance, domain.Bid, bids)
	if err != nil {
		return nil, domain.NewAdapterError(domain.Binance, "%w", err)
	}
	askUpdates, err := domain.ParseLevels(domain.Binance, domain.Ask, asks)
	if err != nil {
		return nil, domain.NewAdapterError(domain.Binance, "%w", err)
	}

	return append(bidUpdates, askUpdates...), nil
}
