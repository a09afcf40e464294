package rpc

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/rpc/booksummary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestValidationService_SummaryRequest(t *testing.T) {
	s := NewValidationService(&ValidationServiceConfig{MaxLevels: 100})

	req, err := s.SummaryRequest(&booksummary.SummaryRequest{Symbol: "ethbtc", Levels: 5, MinPrice: 0.5, MaxPrice: 2.25, Decimals: 4})
	require.NoError(t, err)
	assert.Equal(t, "ethbtc", req.Symbol)
	assert.Equal(t, 5, req.Levels)
	assert.Equal(t, "0.5", req.MinPrice.String())
	assert.Equal(t, "2.25", req.MaxPrice.String())
	assert.Equal(t, int32(4), req.Decimals)

	// an open upper bound accepts any lower bound
	_, err = s.SummaryRequest(&booksummary.SummaryRequest{Symbol: "ethbtc", MinPrice: 10})
	assert.NoError(t, err)

	invalid := map[string]*booksummary.SummaryRequest{
		"no symbol":      {},
		"levels":         {Symbol: "ethbtc", Levels: 101},
		"decimals":       {Symbol: "ethbtc", Decimals: 16},
		"negative price": {Symbol: "ethbtc", MinPrice: -1},
		"nan":            {Symbol: "ethbtc", MaxPrice: math.NaN()},
		"infinite":       {Symbol: "ethbtc", MaxPrice: math.Inf(1)},
		"inverted":       {Symbol: "ethbtc", MinPrice: 3, MaxPrice: 2},
	}
	for name, in := range invalid {
		_, err := s.SummaryRequest(in)
		assert.ErrorIs(t, err, ErrInvalidRequest, name)
	}
}

func TestToStatus(t *testing.T) {
	testCases := map[string]struct {
		err  error
		code codes.Code
	}{
		"invalid":        {ErrInvalidRequest, codes.InvalidArgument},
		"unknown symbol": {domain.ErrUnknownSymbol, codes.InvalidArgument},
		"fetch":          {domain.NewFetchError(domain.Bitstamp, errors.New("503")), codes.Unavailable},
		"empty snapshot": {domain.ErrEmptySnapshot, codes.FailedPrecondition},
		"stream closed":  {domain.NewStreamError(domain.Kucoin, nil), codes.Aborted},
		"canceled":       {context.Canceled, codes.Canceled},
		"other":          {errors.New("boom"), codes.Internal},
	}

	for name, tc := range testCases {
		err := toStatus(tc.err)
		assert.Equal(t, tc.code, status.Code(err), name)
		assert.Contains(t, status.Convert(err).Message(), tc.err.Error(), name)
	}

	assert.NoError(t, toStatus(nil))
}
