package usecase

import "github.com/spooky-finn/go-cryptomarkets-aggregator/domain"

// sequenceGuard tracks, per exchange, the last sequence merged into a session
// book and decides which deltas may follow it.
type sequenceGuard struct {
	validators map[domain.Exchange]domain.IDepthUpdateValidator
	last       map[domain.Exchange]int64
}

func newSequenceGuard(providers []*domain.Provider, snapshots []*domain.Snapshot) *sequenceGuard {
	g := &sequenceGuard{
		validators: make(map[domain.Exchange]domain.IDepthUpdateValidator, len(providers)),
		last:       make(map[domain.Exchange]int64, len(snapshots)),
	}
	for _, p := range providers {
		if p.Validator != nil {
			g.validators[p.Exchange] = p.Validator
		}
	}
	for _, s := range snapshots {
		g.last[s.Exchange] = s.Sequence
	}
	return g
}

// Check returns the updates of delta that are not in the book yet and
// advances the exchange's sequence. It returns ErrOrderBookUpdateIsOutdated
// for a delta the book already covers and ErrOrderBookUpdateIsOutOfSequence
// when deltas were missed.
func (g *sequenceGuard) Check(delta *domain.Delta) ([]domain.LevelUpdate, error) {
	validator, ok := g.validators[delta.Exchange]
	if !ok || (delta.FirstSeq == 0 && delta.LastSeq == 0) {
		return delta.Updates, nil
	}

	last := g.last[delta.Exchange]
	if err := validator.IsValidUpd(delta, last); err != nil {
		return nil, err
	}

	updates := delta.Updates
	if len(delta.ChangeSeqs) == len(delta.Updates) && delta.ChangeSeqs != nil {
		updates = make([]domain.LevelUpdate, 0, len(delta.Updates))
		for i, u := range delta.Updates {
			if delta.ChangeSeqs[i] > last {
				updates = append(updates, u)
			}
		}
	}

	g.last[delta.Exchange] = delta.LastSeq
	return updates, nil
}

// Reset restarts the exchange's sequence from a fresh snapshot.
func (g *sequenceGuard) Reset(snapshot *domain.Snapshot) {
	g.last[snapshot.Exchange] = snapshot.Sequence
}
