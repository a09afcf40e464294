package rpc

import (
	"context"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/rpc/booksummary"
	"go.uber.org/zap"
)

func (s *server) GetSymbols(ctx context.Context, _ *booksummary.Empty) (*booksummary.Symbols, error) {
	symbols, err := s.summaryUseCase.GetSymbols(ctx)
	if err != nil {
		s.log.Warn("GetSymbols failed", zap.Error(err))
		return nil, toStatus(err)
	}

	return &booksummary.Symbols{Symbols: symbols}, nil
}

func (s *server) GetSummary(ctx context.Context, in *booksummary.SummaryRequest) (*booksummary.Summary, error) {
	req, err := s.validationService.SummaryRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}

	summary, err := s.summaryUseCase.GetSummary(ctx, req)
	if err != nil {
		s.log.Warn("GetSummary failed", zap.String("symbol", in.Symbol), zap.Error(err))
		return nil, toStatus(err)
	}

	return toProtoSummary(summary), nil
}

func (s *server) WatchSummary(in *booksummary.SummaryRequest, stream booksummary.OrderbookAggregator_WatchSummaryServer) error {
	req, err := s.validationService.SummaryRequest(in)
	if err != nil {
		return toStatus(err)
	}

	err = s.summaryUseCase.WatchSummary(stream.Context(), req, func(summary *domain.Summary) error {
		return stream.Send(toProtoSummary(summary))
	})
	return toStatus(err)
}

func toProtoSummary(summary *domain.Summary) *booksummary.Summary {
	out := &booksummary.Summary{
		Bids: toProtoLevels(summary.Bids),
		Asks: toProtoLevels(summary.Asks),
	}
	if summary.Spread != nil {
		out.Spread = summary.Spread.InexactFloat64()
	}
	return out
}

func toProtoLevels(levels []domain.SummaryLevel) []*booksummary.Level {
	out := make([]*booksummary.Level, 0, len(levels))
	for _, level := range levels {
		out = append(out, &booksummary.Level{
			Exchange: string(level.Exchange),
			Price:    level.Price.InexactFloat64(),
			Amount:   level.Quantity.InexactFloat64(),
		})
	}
	return out
}
