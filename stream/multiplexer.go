package stream

import (
	"context"
	"fmt"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
	"golang.org/x/sync/errgroup"
)

// Source is one exchange feed taking part in a multiplexed stream.
type Source struct {
	Exchange  domain.Exchange
	StreamAPI domain.ProviderStreamAPI
}

// Multiplexer merges the depth diff streams of several exchanges into one
// channel of tagged raw messages, delivered in the order they become ready.
type Multiplexer struct {
	out    chan domain.FeedMessage
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// Open subscribes every source for symbol. When any subscription fails the
// ones already made are released and an ErrUnavailable error is returned.
func Open(ctx context.Context, symbol *domain.MarketSymbol, sources ...Source) (*Multiplexer, error) {
	ctx, cancel := context.WithCancel(ctx)

	// subscriptions live as long as ctx, not as long as this group
	subscriptions := make([]*domain.Subscription[[]byte], len(sources))
	var g errgroup.Group
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			sub, err := source.StreamAPI.DepthDiffStream(ctx, symbol)
			if err != nil {
				return fmt.Errorf("%s %s stream: %w: %v", source.Exchange, symbol, domain.ErrUnavailable, err)
			}
			subscriptions[i] = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		cancel()
		for _, sub := range subscriptions {
			if sub != nil {
				sub.Unsubscribe()
			}
		}
		return nil, err
	}

	m := &Multiplexer{
		out:    make(chan domain.FeedMessage),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go m.run(ctx, sources, subscriptions)

	return m, nil
}

func (m *Multiplexer) run(ctx context.Context, sources []Source, subscriptions []*domain.Subscription[[]byte]) {
	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range subscriptions {
		exchange, sub := sources[i].Exchange, sub
		g.Go(func() error {
			return m.listen(gctx, exchange, sub)
		})
	}

	m.err = g.Wait()
	m.cancel()
	for _, sub := range subscriptions {
		sub.Unsubscribe()
	}
	// Err must be final by the time a reader sees Messages closed
	close(m.done)
	close(m.out)
}

func (m *Multiplexer) listen(ctx context.Context, exchange domain.Exchange, sub *domain.Subscription[[]byte]) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-sub.Stream:
			if !ok {
				// the feed may have ended because the consumer went away
				if ctx.Err() != nil {
					return nil
				}
				return domain.NewStreamError(exchange, nil)
			}

			select {
			case m.out <- domain.FeedMessage{Exchange: exchange, Data: raw}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Messages is closed when the stream ends for any reason.
func (m *Multiplexer) Messages() <-chan domain.FeedMessage {
	return m.out
}

// Err returns the *domain.StreamError of the feed that ended the stream. It is
// nil while the stream runs and after an ordinary Close or cancellation.
func (m *Multiplexer) Err() error {
	select {
	case <-m.done:
		return m.err
	default:
		return nil
	}
}

// Close releases every connection and waits for the listeners to exit.
func (m *Multiplexer) Close() {
	m.cancel()
	<-m.done
}
