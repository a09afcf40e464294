package kucoin

import "github.com/spooky-finn/go-cryptomarkets-aggregator/domain"

type KucoinDepthUpdateValidator struct{}

// IsValidUpd requires sequenceStart(new) <= sequenceEnd(old)+1 and
// sequenceEnd(new) > sequenceEnd(old). Changes of an overlapping update that
// are already in the book are skipped by their own sequence.
func (v *KucoinDepthUpdateValidator) IsValidUpd(update *domain.Delta, orderBookLastUpdId int64) error {
	if update.LastSeq <= orderBookLastUpdId {
		return domain.ErrOrderBookUpdateIsOutdated
	}

	if update.FirstSeq <= orderBookLastUpdId+1 {
		return nil
	}

	return domain.ErrOrderBookUpdateIsOutOfSequence
}
