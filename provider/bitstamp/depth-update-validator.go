package bitstamp

import "github.com/spooky-finn/go-cryptomarkets-aggregator/domain"

// BitstampDepthUpdateValidator can only tell outdated diffs apart: the
// channel carries a timestamp, not an update id, so gaps are invisible.
type BitstampDepthUpdateValidator struct{}

func (v *BitstampDepthUpdateValidator) IsValidUpd(update *domain.Delta, orderBookLastUpdId int64) error {
	// diffs without data carry no timestamp
	if update.LastSeq == 0 {
		return nil
	}
	if update.LastSeq <= orderBookLastUpdId {
		return domain.ErrOrderBookUpdateIsOutdated
	}
	return nil
}
