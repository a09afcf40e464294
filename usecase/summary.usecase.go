package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	promclient "github.com/spooky-finn/go-cryptomarkets-aggregator/infrastructure/prometheus"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/stream"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SummaryRequest is a validated client request. A zero Levels means the
// configured default, a zero price bound is open.
type SummaryRequest struct {
	Symbol   string
	Levels   int
	MinPrice domain.Price
	MaxPrice domain.Price
	Decimals int32
}

const (
	maxResyncAttempts = 3
	resyncRetryDelay  = 100 * time.Millisecond
)

type Options struct {
	DefaultLevels   int
	SnapshotDepth   int
	SummaryBuffer   int
	SnapshotTimeout time.Duration
}

// SummaryUseCase serves summaries of books merged from every enabled exchange.
// Each call builds its own book, nothing is shared between sessions.
type SummaryUseCase struct {
	connManager domain.ConnManager
	catalog     *SymbolCatalog
	metrics     *promclient.Metrics
	log         *zap.Logger
	opts        Options
}

func NewSummaryUseCase(cm domain.ConnManager, catalog *SymbolCatalog, metrics *promclient.Metrics, log *zap.Logger, opts Options) *SummaryUseCase {
	return &SummaryUseCase{
		connManager: cm,
		catalog:     catalog,
		metrics:     metrics,
		log:         log,
		opts:        opts,
	}
}

func (u *SummaryUseCase) GetSymbols(ctx context.Context) ([]string, error) {
	return u.catalog.Symbols(ctx)
}

// GetSummary fetches a snapshot from every exchange and summarizes the merged book.
func (u *SummaryUseCase) GetSummary(ctx context.Context, req SummaryRequest) (*domain.Summary, error) {
	cfg, err := u.bookConfig(ctx, req)
	if err != nil {
		return nil, err
	}

	ob, _, err := u.initBook(ctx, cfg)
	if err != nil {
		return nil, err
	}

	summary := ob.Summary()
	if summary.Crossed {
		u.log.Warn("book is crossed", zap.String("symbol", summary.Symbol), zap.Stringp("spread", spreadString(summary)))
		u.metrics.CrossedBooks.WithLabelValues(summary.Symbol).Inc()
	}
	return summary, nil
}

// WatchSummary calls send with the initial summary and then with a fresh
// summary after every exchange message that changed the book. It returns nil
// once ctx is cancelled and the *domain.StreamError of the feed that ended
// otherwise. send is never called concurrently.
func (u *SummaryUseCase) WatchSummary(ctx context.Context, req SummaryRequest, send func(*domain.Summary) error) error {
	cfg, err := u.bookConfig(ctx, req)
	if err != nil {
		return err
	}

	u.metrics.ActiveWatchSessions.Inc()
	defer u.metrics.ActiveWatchSessions.Dec()

	log := u.log.With(zap.String("symbol", cfg.Symbol.Key()))
	log.Debug("watch session started", zap.Int("levels", cfg.Levels))

	err = u.watch(ctx, cfg, log, send)
	if ctx.Err() != nil {
		log.Debug("watch session closed by client")
		return nil
	}
	if err != nil {
		log.Warn("watch session ended", zap.Error(err))
	}
	return err
}

func (u *SummaryUseCase) watch(ctx context.Context, cfg domain.BookConfig, log *zap.Logger, send func(*domain.Summary) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	providers := u.connManager.Providers()
	sources := make([]stream.Source, 0, len(providers))
	for _, p := range providers {
		sources = append(sources, stream.Source{Exchange: p.Exchange, StreamAPI: p.StreamAPI})
	}

	// subscribe before the snapshots are taken, deltas wait in the feeds
	// until the book is ready and the guard drops the stale ones
	mux, err := stream.Open(ctx, cfg.Symbol, sources...)
	if err != nil {
		return err
	}
	defer mux.Close()

	ob, snapshots, err := u.initBook(ctx, cfg)
	if err != nil {
		return err
	}

	s := &session{
		SummaryUseCase: u,
		log:            log,
		book:           ob,
		guard:          newSequenceGuard(providers, snapshots),
		buffer:         newSummaryBuffer(u.opts.SummaryBuffer),
		out:            make(chan *domain.Summary),
	}
	s.push(ob.Summary())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(s.out)
		return s.run(gctx, mux)
	})
	g.Go(func() error {
		return s.deliver(gctx, send)
	})

	return g.Wait()
}

func (u *SummaryUseCase) bookConfig(ctx context.Context, req SummaryRequest) (domain.BookConfig, error) {
	symbol, err := u.catalog.Validate(ctx, req.Symbol)
	if err != nil {
		return domain.BookConfig{}, err
	}

	levels := req.Levels
	if levels == 0 {
		levels = u.opts.DefaultLevels
	}

	providers := u.connManager.Providers()
	priority := make([]domain.Exchange, 0, len(providers))
	for _, p := range providers {
		priority = append(priority, p.Exchange)
	}

	return domain.BookConfig{
		Symbol:   symbol,
		Levels:   levels,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Decimals: req.Decimals,
		Priority: priority,
	}, nil
}

// initBook fetches every exchange snapshot concurrently. A crossed book is
// returned as usable, callers report it from the summary.
func (u *SummaryUseCase) initBook(ctx context.Context, cfg domain.BookConfig) (*domain.OrderBook, []*domain.Snapshot, error) {
	providers := u.connManager.Providers()
	snapshots := make([]*domain.Snapshot, len(providers))

	fetchCtx, cancel := context.WithTimeout(ctx, u.opts.SnapshotTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(fetchCtx)
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			snapshot, err := p.FetchSnapshot(gctx, cfg.Symbol, u.opts.SnapshotDepth)
			if err != nil {
				return err
			}
			snapshots[i] = snapshot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	ob, err := domain.InitOrderBook(cfg, snapshots...)
	if err != nil && !errors.Is(err, domain.ErrCrossedBook) {
		return nil, nil, err
	}

	return ob, snapshots, nil
}

// session is the state of one WatchSummary call. Only run touches the book,
// the guard and the buffer.
type session struct {
	*SummaryUseCase
	log *zap.Logger

	book    *domain.OrderBook
	guard   *sequenceGuard
	buffer  *summaryBuffer
	crossed bool

	out chan *domain.Summary
}

func (s *session) run(ctx context.Context, mux *stream.Multiplexer) error {
	for {
		var (
			out  chan<- *domain.Summary
			next *domain.Summary
		)
		if s.buffer.Len() > 0 {
			out, next = s.out, s.buffer.Front()
		}

		select {
		case <-ctx.Done():
			return nil
		case out <- next:
			s.buffer.PopFront()
		case msg, ok := <-mux.Messages():
			if !ok {
				return mux.Err()
			}
			changed, err := s.handle(ctx, msg)
			if err != nil {
				return err
			}
			if changed {
				s.push(s.book.Summary())
			}
		}
	}
}

// handle merges one exchange message into the book and reports whether a
// summary should follow it.
func (s *session) handle(ctx context.Context, msg domain.FeedMessage) (bool, error) {
	p, ok := s.connManager.Provider(msg.Exchange)
	if !ok {
		return false, fmt.Errorf("message from disabled exchange %s", msg.Exchange)
	}

	delta, err := p.Adapter.NormalizeDelta(msg.Data)
	if err != nil {
		s.metrics.AdapterErrors.WithLabelValues(string(msg.Exchange)).Inc()
		s.log.Warn("skipping exchange message", zap.Error(err))
		return false, nil
	}

	updates, err := s.guard.Check(delta)
	resynced := false
	if errors.Is(err, domain.ErrOrderBookUpdateIsOutOfSequence) {
		updates, err = s.resync(ctx, p, delta)
		resynced = true
	}
	switch {
	case errors.Is(err, domain.ErrOrderBookUpdateIsOutdated):
		return resynced, nil
	case err != nil:
		return false, err
	}

	for _, update := range updates {
		update.Exchange = msg.Exchange
		if err := s.book.Apply(update); err != nil && !errors.Is(err, domain.ErrCrossedBook) {
			return false, err
		}
	}

	return resynced || len(updates) > 0, nil
}

// resync swaps the exchange's levels for a fresh snapshot and checks delta
// against it again. A snapshot older than the delta is fetched again, the
// delta is returned to the caller once it is covered or follows on.
func (s *session) resync(ctx context.Context, p *domain.Provider, delta *domain.Delta) ([]domain.LevelUpdate, error) {
	log := s.log.With(zap.String("exchange", string(p.Exchange)))
	log.Info("sequence gap, fetching a new snapshot",
		zap.Int64("first_seq", delta.FirstSeq),
		zap.Int64("last_seq", delta.LastSeq))

	for attempt := 1; ; attempt++ {
		snapshot, err := s.fetchSnapshot(ctx, p)
		if err != nil {
			return nil, err
		}

		if err := s.book.ApplySnapshot(snapshot); err != nil && !errors.Is(err, domain.ErrCrossedBook) {
			return nil, err
		}
		s.guard.Reset(snapshot)

		updates, err := s.guard.Check(delta)
		if !errors.Is(err, domain.ErrOrderBookUpdateIsOutOfSequence) {
			s.metrics.Resyncs.WithLabelValues(string(p.Exchange)).Inc()
			return updates, err
		}

		if attempt == maxResyncAttempts {
			return nil, domain.NewFetchError(p.Exchange,
				fmt.Errorf("snapshot %d still behind update %d after %d attempts", snapshot.Sequence, delta.FirstSeq, attempt))
		}
		log.Debug("snapshot is behind the stream, fetching again", zap.Int64("snapshot_seq", snapshot.Sequence))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(resyncRetryDelay):
		}
	}
}

func (s *session) fetchSnapshot(ctx context.Context, p *domain.Provider) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.SnapshotTimeout)
	defer cancel()

	return p.FetchSnapshot(ctx, s.book.Config().Symbol, s.opts.SnapshotDepth)
}

func (s *session) push(summary *domain.Summary) {
	if summary.Crossed && !s.crossed {
		s.log.Warn("book is crossed", zap.Stringp("spread", spreadString(summary)))
		s.metrics.CrossedBooks.WithLabelValues(summary.Symbol).Inc()
	}
	s.crossed = summary.Crossed

	if s.buffer.Push(summary) {
		s.metrics.SummariesSuperseded.Inc()
	}
}

func (s *session) deliver(ctx context.Context, send func(*domain.Summary) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case summary, ok := <-s.out:
			if !ok {
				return nil
			}
			if err := send(summary); err != nil {
				return fmt.Errorf("send summary: %w", err)
			}
			s.metrics.SummariesSent.Inc()
		}
	}
}

func spreadString(summary *domain.Summary) *string {
	if summary.Spread == nil {
		return nil
	}
	spread := summary.Spread.String()
	return &spread
}
