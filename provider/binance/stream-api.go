package binance

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

const (
	defaultStreamEndpoint = "wss://stream.binance.com:9443/stream"
	defaultUpdateSpeed    = "@100ms"
)

// BinanceStreamAPI opens one combined stream connection per subscription, so
// a session owns its connection and closing it affects nobody else.
type BinanceStreamAPI struct {
	endpoint    string
	updateSpeed string
	dialer      *websocket.Dialer
	log         *zap.Logger
	debug       bool
}

func NewBinanceStreamAPI(endpoint, updateSpeed string, log *zap.Logger, debug bool) *BinanceStreamAPI {
	if endpoint == "" {
		endpoint = defaultStreamEndpoint
	}
	if updateSpeed == "" {
		updateSpeed = defaultUpdateSpeed
	}

	return &BinanceStreamAPI{
		endpoint:    endpoint,
		updateSpeed: updateSpeed,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 5 * time.Second,
		},
		log:   log,
		debug: debug,
	}
}

func (bs *BinanceStreamAPI) Topic(symbol *domain.MarketSymbol) string {
	return fmt.Sprintf("%s@depth%s", symbol.Key(), bs.updateSpeed)
}

// DepthDiffStream yields raw combined stream frames for the symbol's diff
// depth topic. Subscription acks are filtered out. The stream is closed when
// the connection drops, ctx is done or Unsubscribe is called.
func (bs *BinanceStreamAPI) DepthDiffStream(ctx context.Context, symbol *domain.MarketSymbol) (*domain.Subscription[[]byte], error) {
	topic := bs.Topic(symbol)

	conn, _, err := bs.dialer.DialContext(ctx, bs.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial binance stream: %w", err)
	}

	err = conn.WriteJSON(WebSocketRequestModel{
		Method: "SUBSCRIBE",
		ReqId:  1,
		Params: []string{topic},
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to send subscribe msg for topic=%s: %w", topic, err)
	}
	if bs.debug {
		bs.log.Debug("subscribed to depth update stream", zap.String("topic", topic))
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
					bs.log.Warn("depth update stream closed", zap.String("topic", topic), zap.Error(err))
				}
				return
			}

			var frame struct {
				Stream string          `json:"stream"`
				ID     *int64          `json:"id"`
				Result json.RawMessage `json:"result"`
			}
			if err := json.Unmarshal(msg, &frame); err == nil && frame.Stream == "" && frame.ID != nil {
				bs.log.Debug("subscription ack", zap.String("topic", topic), zap.ByteString("result", frame.Result))
				continue
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
