package bitstamp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"go.uber.org/zap"
)

const defaultStreamEndpoint = "wss://ws.bitstamp.net"

type subscribeRequest struct {
	Event string `json:"event"`
	Data  struct {
		Channel string `json:"channel"`
	} `json:"data"`
}

type BitstampStreamAPI struct {
	endpoint string
	dialer   *websocket.Dialer
	log      *zap.Logger
	debug    bool
}

func NewBitstampStreamAPI(endpoint string, log *zap.Logger, debug bool) *BitstampStreamAPI {
	if endpoint == "" {
		endpoint = defaultStreamEndpoint
	}

	return &BitstampStreamAPI{
		endpoint: endpoint,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 5 * time.Second,
		},
		log:   log,
		debug: debug,
	}
}

func (bs *BitstampStreamAPI) Topic(symbol *domain.MarketSymbol) string {
	return "diff_order_book_" + symbol.Key()
}

// DepthDiffStream yields raw `data` frames of the symbol's diff_order_book
// channel. The stream ends when the server asks for a reconnect, the
// connection drops, ctx is done or Unsubscribe is called.
func (bs *BitstampStreamAPI) DepthDiffStream(ctx context.Context, symbol *domain.MarketSymbol) (*domain.Subscription[[]byte], error) {
	topic := bs.Topic(symbol)

	conn, _, err := bs.dialer.DialContext(ctx, bs.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bitstamp stream: %w", err)
	}

	req := subscribeRequest{Event: "bts:subscribe"}
	req.Data.Channel = topic
	if err := conn.WriteJSON(req); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to send subscribe msg for channel=%s: %w", topic, err)
	}
	if bs.debug {
		bs.log.Debug("subscribed to diff order book channel", zap.String("channel", topic))
	}

	stream := make(chan []byte)
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			_ = conn.Close()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-done:
		}
	}()

	go func() {
		defer close(stream)
		defer unsubscribe()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-done:
				default:
					bs.log.Warn("diff order book stream closed", zap.String("channel", topic), zap.Error(err))
				}
				return
			}

			var event Event
			if err := json.Unmarshal(msg, &event); err == nil {
				switch event.Event {
				case eventData:
				case eventRequestReconnect:
					bs.log.Warn("server requested reconnect", zap.String("channel", topic))
					return
				default:
					bs.log.Debug("skipping event", zap.String("channel", topic), zap.String("event", event.Event))
					continue
				}
			}

			select {
			case stream <- msg:
			case <-done:
				return
			}
		}
	}()

	return &domain.Subscription[[]byte]{
		Stream:      stream,
		Unsubscribe: unsubscribe,
		Topic:       topic,
	}, nil
}
