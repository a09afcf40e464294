package domain

import (
	"fmt"
	"strings"
)

var symbolSeparators = []string{"_", "-", "/"}

type MarketSymbol struct {
	BaseAsset  string
	QuoteAsset string
}

func NewMarketSymbol(base string, quote string) (*MarketSymbol, error) {
	base = strings.ToLower(strings.TrimSpace(base))
	quote = strings.ToLower(strings.TrimSpace(quote))
	if base == "" || quote == "" {
		return nil, fmt.Errorf("base and quote must not be empty")
	}
	if base == quote {
		return nil, fmt.Errorf("base and quote must be different")
	}
	return &MarketSymbol{
		BaseAsset:  base,
		QuoteAsset: quote,
	}, nil
}

// NewMarketSymbolFromString parses "eth_btc", "ETH-BTC" or "eth/btc".
// Symbols written without a separator ("ethbtc") are ambiguous and must be
// resolved through the symbol catalog by SymbolKey.
func NewMarketSymbolFromString(s string) (*MarketSymbol, error) {
	for _, sep := range symbolSeparators {
		split := strings.Split(s, sep)
		if len(split) == 2 {
			return NewMarketSymbol(split[0], split[1])
		}
	}

	return nil, fmt.Errorf("invalid symbol string %q", s)
}

// SymbolKey reduces any accepted spelling of a symbol to its canonical
// lowercase key, e.g. "ETH-BTC" -> "ethbtc".
func SymbolKey(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, sep := range symbolSeparators {
		key = strings.ReplaceAll(key, sep, "")
	}
	return key
}

func (ms *MarketSymbol) Join(separator string) string {
	return fmt.Sprintf("%s%s%s", ms.BaseAsset, separator, ms.QuoteAsset)
}

// Key is the canonical symbol used by the RPC surface.
func (ms *MarketSymbol) Key() string {
	return ms.Join("")
}

func (ms *MarketSymbol) String() string {
	return ms.Key()
}

func (ms *MarketSymbol) Equal(other *MarketSymbol) bool {
	return ms.BaseAsset == other.BaseAsset && ms.QuoteAsset == other.QuoteAsset
}
