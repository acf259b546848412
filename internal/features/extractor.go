package features

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khanglvm/forkfeat/internal/storage"
)

// Record is the extraction result for one annotated event.
type Record struct {
	Event  storage.AnnotatedEvent
	Counts []int
	Label  Label
}

// Extractor computes base feature counts and labels for annotated events.
type Extractor struct {
	agg     *Aggregator
	catalog []Feature
	bounds  Bounds
	workers int
	logger  *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithWorkers sets how many annotated events are processed at once.
func WithWorkers(n int) ExtractorOption {
	return func(x *Extractor) {
		if n > 0 {
			x.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(x *Extractor) {
		if l != nil {
			x.logger = l
		}
	}
}

// NewExtractor creates an extractor for catalog over src.
func NewExtractor(src Source, catalog []Feature, bounds Bounds, opts ...ExtractorOption) (*Extractor, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("feature catalog is empty")
	}

	x := &Extractor{
		agg:     NewAggregator(src),
		catalog: catalog,
		bounds:  bounds,
		workers: 1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

// Counts computes the base feature counts of event in catalog order.
func (x *Extractor) Counts(ctx context.Context, event storage.AnnotatedEvent) ([]int, error) {
	counts := make([]int, len(x.catalog))
	for i, f := range x.catalog {
		w := x.bounds.Window(f.Phase)

		var n int
		var err error
		switch f.Kind {
		case KindFollowUp:
			n, err = x.agg.FollowedBy(ctx, event, f.Select, f.Target, w)
		default:
			n, err = x.agg.GroupCount(ctx, event, f.Select, w)
		}
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.Name, err)
		}
		counts[i] = n
	}
	return counts, nil
}

// Extract labels and counts every event. Records keep the order of events
// whatever the worker count; the first error cancels the rest.
func (x *Extractor) Extract(ctx context.Context, events []storage.AnnotatedEvent) ([]Record, error) {
	records := make([]Record, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.workers)

	for i, event := range events {
		g.Go(func() error {
			label, err := Classify(event)
			if err != nil {
				return err
			}

			counts, err := x.Counts(gctx, event)
			if err != nil {
				return fmt.Errorf("%s: %w", event, err)
			}

			records[i] = Record{Event: event, Counts: counts, Label: label}
			x.logger.Debug("extracted features",
				zap.String("participant", event.Participant),
				zap.String("videotime", event.VideoTime),
				zap.String("label", string(label)),
				zap.Ints("counts", counts),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
