package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Kucoin/kucoin-go-sdk"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"go.uber.org/zap"
)

// partial order books are served without credentials in these sizes only
var partOrderBookDepths = []int{20, 100}

type Credentials struct {
	BaseURI    string
	Key        string
	Secret     string
	Passphrase string
	KeyVersion string
}

type symbolModel struct {
	Symbol        string `json:"symbol"`
	BaseCurrency  string `json:"baseCurrency"`
	QuoteCurrency string `json:"quoteCurrency"`
	EnableTrading bool   `json:"enableTrading"`
}

type KucoinSyncAPI struct {
	apiService     *kucoin.ApiService
	hasCredentials bool
	log            *zap.Logger
}

func NewKucoinSyncAPI(creds Credentials, log *zap.Logger) *KucoinSyncAPI {
	opts := []kucoin.ApiServiceOption{
		kucoin.ApiKeyOption(creds.Key),
		kucoin.ApiSecretOption(creds.Secret),
		kucoin.ApiPassPhraseOption(creds.Passphrase),
	}
	if creds.BaseURI != "" {
		opts = append(opts, kucoin.ApiBaseURIOption(creds.BaseURI))
	}
	if creds.KeyVersion != "" {
		opts = append(opts, kucoin.ApiKeyVersionOption(creds.KeyVersion))
	}

	return &KucoinSyncAPI{
		apiService:     kucoin.NewApiService(opts...),
		hasCredentials: creds.Key != "",
		log:            log,
	}
}

func (api *KucoinSyncAPI) ApiService() *kucoin.ApiService {
	return api.apiService
}

// OrderBookSnapshot returns the `data` object of the level2 order book.
// The full book needs credentials; without them the smallest public partial
// book covering depth is used.
func (api *KucoinSyncAPI) OrderBookSnapshot(ctx context.Context, symbol *domain.MarketSymbol, depth int) ([]byte, error) {
	s := strings.ToUpper(symbol.Join("-"))

	return api.call(ctx, "order book snapshot", func() (*kucoin.ApiResponse, error) {
		if !api.hasCredentials {
			return api.apiService.AggregatedPartOrderBook(s, int64(partDepth(depth)))
		}
		return api.apiService.AggregatedFullOrderBookV3(s)
	})
}

func (api *KucoinSyncAPI) Symbols(ctx context.Context) ([]*domain.MarketSymbol, error) {
	raw, err := api.call(ctx, "symbols", func() (*kucoin.ApiResponse, error) {
		return api.apiService.Symbols("")
	})
	if err != nil {
		return nil, err
	}

	var models []symbolModel
	if err := json.Unmarshal(raw, &models); err != nil {
		return nil, fmt.Errorf("failed to unmarshal symbols: %w", err)
	}

	symbols := make([]*domain.MarketSymbol, 0, len(models))
	for _, m := range models {
		if !m.EnableTrading {
			continue
		}
		symbol, err := domain.NewMarketSymbol(m.BaseCurrency, m.QuoteCurrency)
		if err != nil {
			api.log.Debug("skipping symbol", zap.String("symbol", m.Symbol), zap.Error(err))
			continue
		}
		symbols = append(symbols, symbol)
	}

	return symbols, nil
}

func (api *KucoinSyncAPI) WsConnOpts(ctx context.Context) (*kucoin.WebSocketTokenModel, error) {
	raw, err := api.call(ctx, "websocket token", api.apiService.WebSocketPublicToken)
	if err != nil {
		return nil, err
	}

	data := &kucoin.WebSocketTokenModel{}
	if err = json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ws connection options: %w", err)
	}

	return data, nil
}

type callResult struct {
	resp *kucoin.ApiResponse
	err  error
}

// call runs a blocking SDK request and gives up on it when ctx is done.
func (api *KucoinSyncAPI) call(ctx context.Context, what string, fn func() (*kucoin.ApiResponse, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan callResult, 1)
	go func() {
		resp, err := fn()
		done <- callResult{resp, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", what, res.err)
		}
		if !res.resp.ApiSuccessful() {
			return nil, fmt.Errorf("failed to get %s: code %s: %s", what, res.resp.Code, res.resp.Message)
		}
		return res.resp.RawData, nil
	}
}

func partDepth(depth int) int {
	for _, d := range partOrderBookDepths {
		if depth <= d {
			return d
		}
	}
	return partOrderBookDepths[len(partOrderBookDepths)-1]
}
