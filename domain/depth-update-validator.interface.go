package domain

import "errors"

var (
	// The book has to be rebuilt from a fresh snapshot before this exchange's
	// deltas can be applied again.
	ErrOrderBookUpdateIsOutOfSequence = errors.New("order book update is out of sequence")
	// Already covered by the snapshot, skip it.
	ErrOrderBookUpdateIsOutdated = errors.New("order book update is outdated")
)

type IDepthUpdateValidator interface {
	// IsValidUpd returns nil when the delta directly follows lastUpdId.
	IsValidUpd(update *Delta, lastUpdId int64) error
}
