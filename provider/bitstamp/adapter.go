package bitstamp

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
)

const (
	eventData             = "data"
	eventRequestReconnect = "bts:request_reconnect"
)

// Event is a websocket frame. Data stays raw because its shape depends on Event.
type Event struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// OrderBookData is shared by the REST order book and the diff_order_book channel.
type OrderBookData struct {
	Timestamp      string     `json:"timestamp"`
	Microtimestamp string     `json:"microtimestamp"`
	Bids           [][]string `json:"bids"`
	Asks           [][]string `json:"asks"`
}

// Adapter normalizes Bitstamp order book payloads. Bitstamp has no update ids,
// microtimestamp is used as the sequence instead.
type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Exchange() domain.Exchange {
	return domain.Bitstamp
}

func (a *Adapter) NormalizeSnapshot(raw []byte) (*domain.Snapshot, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.NewAdapterError(domain.Bitstamp, "empty snapshot payload")
	}

	var data OrderBookData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, domain.NewAdapterError(domain.Bitstamp, "decode snapshot: %w", err)
	}
	if data.Microtimestamp == "" && data.Bids == nil && data.Asks == nil {
		return nil, domain.NewAdapterError(domain.Bitstamp, "snapshot has no microtimestamp, bids or asks")
	}

	seq, updates, err := normalizeBook(&data)
	if err != nil {
		return nil, err
	}

	return &domain.Snapshot{
		Exchange: domain.Bitstamp,
		Sequence: seq,
		Updates:  updates,
	}, nil
}

// NormalizeDelta accepts `data` events of the diff_order_book channel. A frame
// with an empty data object carries no updates.
func (a *Adapter) NormalizeDelta(raw []byte) (*domain.Delta, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, domain.NewAdapterError(domain.Bitstamp, "empty diff payload")
	}

	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, domain.NewAdapterError(domain.Bitstamp, "decode diff: %w", err)
	}
	if event.Event != eventData {
		return nil, domain.NewAdapterError(domain.Bitstamp, "unexpected event %q", event.Event)
	}

	var data OrderBookData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return nil, domain.NewAdapterError(domain.Bitstamp, "decode diff data: %w", err)
	}
	if data.Microtimestamp == "" && len(data.Bids) == 0 && len(data.Asks) == 0 {
		return &domain.Delta{Exchange: domain.Bitstamp}, nil
	}

	seq, updates, err := normalizeBook(&data)
	if err != nil {
		return nil, err
	}

	return &domain.Delta{
		Exchange: domain.Bitstamp,
		FirstSeq: seq,
		LastSeq:  seq,
		Updates:  updates,
	}, nil
}

func normalizeBook(data *OrderBookData) (int64, []domain.LevelUpdate, error) {
	var seq int64
	if data.Microtimestamp != "" {
		var err error
		seq, err = strconv.ParseInt(data.Microtimestamp, 10, 64)
		if err != nil {
			return 0, nil, domain.NewAdapterError(domain.Bitstamp, "invalid microtimestamp %q: %w", data.Microtimestamp, err)
		}
	}

	bids, err := domain.ParseLevels(domain.Bitstamp, domain.Bid, data.Bids)
	if err != nil {
		return 0, nil, domain.NewAdapterError(domain.Bitstamp, "%w", err)
	}
	asks, err := domain.ParseLevels(domain.Bitstamp, domain.Ask, data.Asks)
	if err != nil {
		return 0, nil, domain.NewAdapterError(domain.Bitstamp, "%w", err)
	}

	return seq, append(bids, asks...), nil
}
