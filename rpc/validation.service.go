package rpc

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/rpc/booksummary"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/usecase"
)

var ErrInvalidRequest = errors.New("invalid request")

// maxDecimals keeps rounding within what a double can carry.
const maxDecimals = 15

type ValidationServiceConfig struct {
	MaxLevels int
}

type ValidationService struct {
	config *ValidationServiceConfig
}

func NewValidationService(config *ValidationServiceConfig) *ValidationService {
	return &ValidationService{
		config: config,
	}
}

// SummaryRequest checks the client request and converts its prices to decimals.
// The symbol itself is resolved later against the symbol catalog.
func (s *ValidationService) SummaryRequest(in *booksummary.SummaryRequest) (usecase.SummaryRequest, error) {
	if in.Symbol == "" {
		return usecase.SummaryRequest{}, fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	if int(in.Levels) > s.config.MaxLevels {
		return usecase.SummaryRequest{}, fmt.Errorf("%w: levels must not exceed %d, got %d", ErrInvalidRequest, s.config.MaxLevels, in.Levels)
	}
	if in.Decimals > maxDecimals {
		return usecase.SummaryRequest{}, fmt.Errorf("%w: decimals must not exceed %d, got %d", ErrInvalidRequest, maxDecimals, in.Decimals)
	}

	minPrice, err := price("min_price", in.MinPrice)
	if err != nil {
		return usecase.SummaryRequest{}, err
	}
	maxPrice, err := price("max_price", in.MaxPrice)
	if err != nil {
		return usecase.SummaryRequest{}, err
	}
	if !maxPrice.IsZero() && minPrice.GreaterThan(maxPrice) {
		return usecase.SummaryRequest{}, fmt.Errorf("%w: min_price %s is above max_price %s", ErrInvalidRequest, minPrice, maxPrice)
	}

	return usecase.SummaryRequest{
		Symbol:   in.Symbol,
		Levels:   int(in.Levels),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Decimals: int32(in.Decimals),
	}, nil
}

func price(field string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidRequest, field, v)
	}
	return decimal.NewFromFloat(v), nil
}
