package bitstamp

import (
	"testing"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_NormalizeSnapshot(t *testing.T) {
	raw := `{"timestamp":"1700000000","microtimestamp":"1700000000123456",` +
		`"bids":[["0.05200","1.5"],["0.05100","2"]],"asks":[["0.05300","0.7"]]}`

	snapshot, err := NewAdapter().NormalizeSnapshot([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, domain.Bitstamp, snapshot.Exchange)
	assert.Equal(t, int64(1700000000123456), snapshot.Sequence)
	require.Len(t, snapshot.Updates, 3)
	assert.Equal(t, domain.Bid, snapshot.Updates[0].Side)
	assert.Equal(t, "0.052", snapshot.Updates[0].Price.String())
	assert.Equal(t, domain.Ask, snapshot.Updates[2].Side)
	assert.Equal(t, domain.Bitstamp, snapshot.Updates[2].Exchange)
}

func TestAdapter_NormalizeDelta(t *testing.T) {
	raw := `{"data":{"timestamp":"1700000001","microtimestamp":"1700000001000001",` +
		`"bids":[["0.052","0"]],"asks":[["0.0531","3"]]},"channel":"diff_order_book_ethbtc","event":"data"}`

	delta, err := NewAdapter().NormalizeDelta([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, int64(1700000001000001), delta.FirstSeq)
	assert.Equal(t, delta.FirstSeq, delta.LastSeq)
	require.Len(t, delta.Updates, 2)
	assert.True(t, delta.Updates[0].IsRemoval())
	assert.Equal(t, "3", delta.Updates[1].Quantity.String())
}

func TestAdapter_NormalizeDelta_EmptyData(t *testing.T) {
	raw := `{"event":"data","channel":"diff_order_book_ethbtc","data":{}}`

	delta, err := NewAdapter().NormalizeDelta([]byte(raw))
	require.NoError(t, err)
	assert.Empty(t, delta.Updates)
	assert.Zero(t, delta.LastSeq)
}

func TestAdapter_Malformed(t *testing.T) {
	a := NewAdapter()

	deltas := map[string]string{
		"empty":             ``,
		"not json":          `{"event":`,
		"subscription ack":  `{"event":"bts:subscription_succeeded","channel":"diff_order_book_ethbtc","data":{}}`,
		"string data":       `{"event":"data","channel":"diff_order_book_ethbtc","data":"x"}`,
		"bad microtimestmp": `{"event":"data","data":{"microtimestamp":"soon","bids":[]}}`,
		"bad price":         `{"event":"data","data":{"microtimestamp":"1","bids":[["one","1"]]}}`,
	}
	for name, raw := range deltas {
		t.Run("delta "+name, func(t *testing.T) {
			_, err := a.NormalizeDelta([]byte(raw))
			assert.ErrorIs(t, err, domain.ErrMalformed)
		})
	}

	snapshots := map[string]string{
		"empty":    ``,
		"array":    `[]`,
		"no book":  `{}`,
		"bad size": `{"microtimestamp":"1","asks":[["1","many"]]}`,
	}
	for name, raw := range snapshots {
		t.Run("snapshot "+name, func(t *testing.T) {
			_, err := a.NormalizeSnapshot([]byte(raw))
			assert.ErrorIs(t, err, domain.ErrMalformed)
		})
	}
}

func TestDepthUpdateValidator(t *testing.T) {
	v := &BitstampDepthUpdateValidator{}

	assert.Equal(t, domain.ErrOrderBookUpdateIsOutdated, v.IsValidUpd(&domain.Delta{LastSeq: 100}, 100))
	assert.Equal(t, domain.ErrOrderBookUpdateIsOutdated, v.IsValidUpd(&domain.Delta{LastSeq: 99}, 100))
	assert.Nil(t, v.IsValidUpd(&domain.Delta{LastSeq: 101}, 100))
	// a timestamp jump is not a gap
	assert.Nil(t, v.IsValidUpd(&domain.Delta{LastSeq: 100000}, 100))
	assert.Nil(t, v.IsValidUpd(&domain.Delta{}, 100))
}
