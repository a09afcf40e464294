package bitstamp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"go.uber.org/zap"
)

const (
	defaultRESTEndpoint = "https://www.bitstamp.net"
	requestTimeout      = 10 * time.Second
	pairTradingEnabled  = "Enabled"
)

type tradingPairInfo struct {
	Name      string `json:"name"`
	URLSymbol string `json:"url_symbol"`
	Trading   string `json:"trading"`
}

// BitstampSyncAPI reads the public REST endpoints.
type BitstampSyncAPI struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

func NewBitstampSyncAPI(endpoint string, log *zap.Logger) *BitstampSyncAPI {
	if endpoint == "" {
		endpoint = defaultRESTEndpoint
	}

	return &BitstampSyncAPI{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: requestTimeout},
		log:      log,
	}
}

// OrderBookSnapshot returns the raw order book. The endpoint always returns
// the whole book, depth is not sent.
func (api *BitstampSyncAPI) OrderBookSnapshot(ctx context.Context, symbol *domain.MarketSymbol, depth int) ([]byte, error) {
	return api.get(ctx, fmt.Sprintf("/api/v2/order_book/%s/", symbol.Key()))
}

func (api *BitstampSyncAPI) Symbols(ctx context.Context) ([]*domain.MarketSymbol, error) {
	body, err := api.get(ctx, "/api/v2/trading-pairs-info/")
	if err != nil {
		return nil, err
	}

	var pairs []tradingPairInfo
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("decode trading pairs: %w", err)
	}

	symbols := make([]*domain.MarketSymbol, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Trading != pairTradingEnabled {
			continue
		}
		symbol, err := domain.NewMarketSymbolFromString(pair.Name)
		if err != nil {
			api.log.Debug("skipping trading pair", zap.String("name", pair.Name), zap.Error(err))
			continue
		}
		symbols = append(symbols, symbol)
	}

	return symbols, nil
}

func (api *BitstampSyncAPI) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.endpoint+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := api.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d: %s", path, resp.StatusCode, truncate(body, 256))
	}

	return body, nil
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n]) + "..."
	}
	return string(body)
}
