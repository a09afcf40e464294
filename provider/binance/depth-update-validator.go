package binance

import "github.com/spooky-finn/go-cryptomarkets-aggregator/domain"

type BinanceDepthUpdateValidator struct{}

func (v *BinanceDepthUpdateValidator) IsValidUpd(update *domain.Delta, orderBookLastUpdId int64) error {
	// Drop any event where u is <= lastUpdateId in the snapshot
	if update.LastSeq <= orderBookLastUpdId {
		return domain.ErrOrderBookUpdateIsOutdated
	}

	// The first processed event should have U <= lastUpdateId+1 AND u >= lastUpdateId+1,
	// every later one U == previous u+1
	if update.FirstSeq <= orderBookLastUpdId+1 {
		return nil
	}

	return domain.ErrOrderBookUpdateIsOutOfSequence
}
