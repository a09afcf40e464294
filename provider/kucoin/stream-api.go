package kucoin

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Kucoin/kucoin-go-sdk"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"go.uber.org/zap"
)

type KucoinStreamAPI struct {
	syncAPI *KucoinSyncAPI
	log     *zap.Logger
	debug   bool
}

func NewKucoinStreamAPI(syncAPI *KucoinSyncAPI, log *zap.Logger, debug bool) *KucoinStreamAPI {
	return &KucoinStreamAPI{
		syncAPI: syncAPI,
		log:     log,
		debug:   debug,
	}
}

func (s *KucoinStreamAPI) Topic(symbol *domain.MarketSymbol) string {
	return fmt.Sprintf("/market/level2:%s", strings.ToUpper(symbol.Join("-")))
}

// DepthDiffStream yields the raw `data` object of every level2 message for
// the symbol. Each call gets its own websocket client.
func (s *KucoinStreamAPI) DepthDiffStream(ctx context.Context, symbol *domain.MarketSymbol) (*domain.Subscription[[]byte], error) {
	topic := s.Topic(symbol)

	token, err := s.syncAPI.WsConnOpts(ctx)
	if err != nil {
		return nil, err
	}

	wc := s.syncAPI.ApiService().NewWebSocketClient(token)
	msgCh, errCh, err := wc.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect kucoin websocket: %w", err)
	}

	if err := wc.Subscribe(kucoin.NewSubscribeMessage(topic, false)); err != nil {
		wc.Stop()
		return nil, fmt.Errorf("failed to subscribe topic=%s: %w", topic, err)
	}
	if s.debug {
		s.log.Debug("subscribed to depth update stream", zap.String("topic", topic))
	}

	return s.pump(ctx, topic, msgCh, errCh, wc.Stop), nil
}

// pump forwards the topic's level2 messages until the client reports an error,
// msgCh closes, ctx is done or Unsubscribe is called. stop runs exactly once.
func (s *KucoinStreamAPI) pump(ctx context.Context, topic string, msgCh <-chan *kucoin.WebSocketDownstreamMessage, errCh <-chan error, stop func()) *domain.Subscription[[]byte] {
	stream := make(chan []byte)
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			stop()
		})
	}

	go func() {
		defer close(stream)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case err := <-errCh:
				s.log.Warn("depth update stream closed", zap.String("topic", topic), zap.Error(err))
				return
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				if msg.WebSocketMessage == nil || msg.Type != kucoin.Message || msg.Topic != topic {
					continue
				}

				select {
				case stream <- []byte(msg.RawData):
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &domain.Subscription[[]byte]{
		Stream:      stream,
		Unsubscribe: unsubscribe,
		Topic:       topic,
	}
}
