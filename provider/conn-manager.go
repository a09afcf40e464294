package provider

import (
	"fmt"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/config"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/provider/binance"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/provider/bitstamp"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/provider/kucoin"
	"go.uber.org/zap"
)

// ConnectionManager holds the enabled providers in priority order.
// Nothing is dialed here: fetchers connect on first use and every stream
// subscription owns its connection.
type ConnectionManager struct {
	providers  []*domain.Provider
	byExchange map[domain.Exchange]*domain.Provider
	closers    []func() error
}

func NewConnectionManager(cfg *config.Config, log *zap.Logger) (*ConnectionManager, error) {
	cm := &ConnectionManager{byExchange: make(map[domain.Exchange]*domain.Provider)}
	debug := cfg.App.DebugMode

	for _, name := range cfg.Exchanges {
		exchange := domain.Exchange(name)
		if _, ok := cm.byExchange[exchange]; ok {
			return nil, fmt.Errorf("exchange %q is listed twice", name)
		}

		var p *domain.Provider
		switch exchange {
		case domain.Binance:
			l := log.Named("binance")
			syncAPI := binance.NewBinanceSyncAPI(cfg.Binance.WSAPIEndpoint, l)
			cm.closers = append(cm.closers, syncAPI.Close)
			p = &domain.Provider{
				Exchange:  exchange,
				Adapter:   binance.NewAdapter(),
				SyncAPI:   syncAPI,
				StreamAPI: binance.NewBinanceStreamAPI(cfg.Binance.StreamEndpoint, cfg.Binance.UpdateSpeed, l, debug),
				Validator: &binance.BinanceDepthUpdateValidator{},
			}
		case domain.Bitstamp:
			l := log.Named("bitstamp")
			p = &domain.Provider{
				Exchange:  exchange,
				Adapter:   bitstamp.NewAdapter(),
				SyncAPI:   bitstamp.NewBitstampSyncAPI(cfg.Bitstamp.RESTEndpoint, l),
				StreamAPI: bitstamp.NewBitstampStreamAPI(cfg.Bitstamp.StreamEndpoint, l, debug),
				Validator: &bitstamp.BitstampDepthUpdateValidator{},
			}
		case domain.Kucoin:
			l := log.Named("kucoin")
			syncAPI := kucoin.NewKucoinSyncAPI(kucoin.Credentials{
				BaseURI:    cfg.Kucoin.BaseURI,
				Key:        cfg.Kucoin.Key,
				Secret:     cfg.Kucoin.Secret,
				Passphrase: cfg.Kucoin.Passphrase,
				KeyVersion: cfg.Kucoin.KeyVersion,
			}, l)
			p = &domain.Provider{
				Exchange:  exchange,
				Adapter:   kucoin.NewAdapter(),
				SyncAPI:   syncAPI,
				StreamAPI: kucoin.NewKucoinStreamAPI(syncAPI, l, debug),
				Validator: &kucoin.KucoinDepthUpdateValidator{},
			}
		default:
			return nil, fmt.Errorf("unknown exchange: %q", name)
		}

		cm.add(p)
	}

	return cm, nil
}

// NewStaticConnectionManager serves the given providers in the given order.
func NewStaticConnectionManager(providers ...*domain.Provider) *ConnectionManager {
	cm := &ConnectionManager{byExchange: make(map[domain.Exchange]*domain.Provider)}
	for _, p := range providers {
		cm.add(p)
	}
	return cm
}

func (cm *ConnectionManager) add(p *domain.Provider) {
	cm.providers = append(cm.providers, p)
	cm.byExchange[p.Exchange] = p
}

func (cm *ConnectionManager) Providers() []*domain.Provider {
	return cm.providers
}

func (cm *ConnectionManager) Provider(exchange domain.Exchange) (*domain.Provider, bool) {
	p, ok := cm.byExchange[exchange]
	return p, ok
}

// Priority lists the enabled exchanges in tie-break order.
func (cm *ConnectionManager) Priority() []domain.Exchange {
	priority := make([]domain.Exchange, 0, len(cm.providers))
	for _, p := range cm.providers {
		priority = append(priority, p.Exchange)
	}
	return priority
}

func (cm *ConnectionManager) Close() {
	for _, closeFn := range cm.closers {
		_ = closeFn()
	}
}
