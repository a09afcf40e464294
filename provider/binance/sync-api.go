package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"go.uber.org/zap"
)

const (
	defaultWSAPIEndpoint = "wss://ws-api.binance.com:443/ws-api/v3"
	requestTimeout       = 10 * time.Second
	maxSnapshotDepth     = 5000
	symbolStatusTrading  = "TRADING"
)

var (
	ErrTimeout          = errors.New("timeout error")
	ErrConnectionClosed = errors.New("websocket api connection closed")
)

type GenericMessage[T any] struct {
	ID     int64     `json:"id"`
	Status int       `json:"status"`
	Result T         `json:"result"`
	Error  *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("code %d: %s", e.Code, e.Msg)
}

type WebSocketRequestModel struct {
	ReqId  int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type exchangeInfoResult struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// BinanceSyncAPI talks to the Binance WebSocket API. One connection is shared
// by every caller; it is dialed on first use and redialed after it drops.
type BinanceSyncAPI struct {
	endpoint string
	dialer   *websocket.Dialer
	timeout  time.Duration
	log      *zap.Logger

	writeMutex sync.Mutex
	mu         sync.Mutex
	conn       *websocket.Conn
	pending    map[int64]chan []byte

	reqId atomic.Int64
}

func NewBinanceSyncAPI(endpoint string, log *zap.Logger) *BinanceSyncAPI {
	if endpoint == "" {
		endpoint = defaultWSAPIEndpoint
	}

	api := &BinanceSyncAPI{
		endpoint: endpoint,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 5 * time.Second,
		},
		timeout: requestTimeout,
		log:     log,
		pending: make(map[int64]chan []byte),
	}
	api.reqId.Store(time.Now().UnixMilli())

	return api
}

// OrderBookSnapshot returns the raw `depth` response envelope.
func (api *BinanceSyncAPI) OrderBookSnapshot(ctx context.Context, symbol *domain.MarketSymbol, depth int) ([]byte, error) {
	if depth <= 0 || depth > maxSnapshotDepth {
		depth = maxSnapshotDepth
	}

	params := map[string]any{
		"symbol": strings.ToUpper(symbol.Join("")),
		"limit":  depth,
	}

	return api.request(ctx, "depth", params)
}

func (api *BinanceSyncAPI) Symbols(ctx context.Context) ([]*domain.MarketSymbol, error) {
	msg, err := api.request(ctx, "exchangeInfo", nil)
	if err != nil {
		return nil, err
	}

	var response GenericMessage[exchangeInfoResult]
	if err := json.Unmarshal(msg, &response); err != nil {
		return nil, fmt.Errorf("decode exchangeInfo: %w", err)
	}

	symbols := make([]*domain.MarketSymbol, 0, len(response.Result.Symbols))
	for _, s := range response.Result.Symbols {
		if s.Status != symbolStatusTrading {
			continue
		}
		symbol, err := domain.NewMarketSymbol(s.BaseAsset, s.QuoteAsset)
		if err != nil {
			api.log.Debug("skipping symbol", zap.String("symbol", s.Symbol), zap.Error(err))
			continue
		}
		symbols = append(symbols, symbol)
	}

	return symbols, nil
}

func (api *BinanceSyncAPI) Close() error {
	api.mu.Lock()
	defer api.mu.Unlock()

	if api.conn == nil {
		return nil
	}
	err := api.conn.Close()
	api.conn = nil
	api.failPending()
	return err
}

// request sends one method call and waits for the response with the same id.
// API level failures (status != 200) are returned as errors.
func (api *BinanceSyncAPI) request(ctx context.Context, method string, params any) ([]byte, error) {
	reqId := api.reqId.Add(1)
	response := make(chan []byte, 1)

	conn, err := api.connect(ctx, reqId, response)
	if err != nil {
		return nil, err
	}
	defer api.forget(reqId)

	api.writeMutex.Lock()
	err = conn.WriteJSON(WebSocketRequestModel{
		ReqId:  reqId,
		Method: method,
		Params: params,
	})
	api.writeMutex.Unlock()
	if err != nil {
		return nil, fmt.Errorf("send %s request: %w", method, err)
	}

	timer := time.NewTimer(api.timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-response:
		if !ok {
			return nil, ErrConnectionClosed
		}
		var status GenericMessage[json.RawMessage]
		if err := json.Unmarshal(msg, &status); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", method, err)
		}
		if status.Error != nil {
			return nil, fmt.Errorf("%s request failed: %w", method, status.Error)
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%s request %d: %w", method, reqId, ErrTimeout)
	}
}

// connect registers the pending request and returns the live connection,
// dialing it when there is none.
func (api *BinanceSyncAPI) connect(ctx context.Context, reqId int64, response chan []byte) (*websocket.Conn, error) {
	api.mu.Lock()
	defer api.mu.Unlock()

	if api.conn == nil {
		conn, _, err := api.dialer.DialContext(ctx, api.endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("dial binance websocket api: %w", err)
		}
		api.log.Debug("connected to websocket api", zap.String("endpoint", api.endpoint))
		api.conn = conn
		go api.listener(conn)
	}

	api.pending[reqId] = response
	return api.conn, nil
}

func (api *BinanceSyncAPI) forget(reqId int64) {
	api.mu.Lock()
	delete(api.pending, reqId)
	api.mu.Unlock()
}

func (api *BinanceSyncAPI) listener(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			api.log.Debug("websocket api connection closed", zap.Error(err))
			api.drop(conn)
			return
		}

		var header struct {
			ID *int64 `json:"id"`
		}
		if err := json.Unmarshal(message, &header); err != nil || header.ID == nil {
			api.log.Warn("unexpected websocket api message", zap.ByteString("message", message))
			continue
		}

		api.mu.Lock()
		if ch, ok := api.pending[*header.ID]; ok {
			ch <- message
			delete(api.pending, *header.ID)
		}
		api.mu.Unlock()
	}
}

// drop fails every request waiting on conn so the next call redials.
func (api *BinanceSyncAPI) drop(conn *websocket.Conn) {
	api.mu.Lock()
	defer api.mu.Unlock()

	if api.conn != conn {
		return
	}
	_ = conn.Close()
	api.conn = nil
	api.failPending()
}

// failPending must be called with mu held.
func (api *BinanceSyncAPI) failPending() {
	for id, ch := range api.pending {
		close(ch)
		delete(api.pending, id)
	}
}
