// Package traversal walks the ownership graph backward (buyer <- seller),
// one BFS level per repository round trip.
package traversal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
)

// DefaultMaxDepth is used when a Walker is built with a non-positive limit.
const DefaultMaxDepth = 64

var tracer trace.Tracer = otel.Tracer("github.com/SscSPs/supply_chain_app/internal/core/traversal")

// LevelFilterFunc returns the filter applied to the frontier fetch at depth.
type LevelFilterFunc func(depth int) domain.TransactionFilter

// Visitor receives every level's fetched transactions. Returning an error
// aborts the walk.
type Visitor interface {
	VisitLevel(depth int, transactions []domain.Transaction) error
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(depth int, transactions []domain.Transaction) error

func (f VisitorFunc) VisitLevel(depth int, transactions []domain.Transaction) error {
	return f(depth, transactions)
}

// Options configure a single walk.
type Options struct {
	// CommodityID scopes every lookup to one commodity. Nil walks across
	// commodities, which only makes sense together with FollowConversions.
	CommodityID *string

	// FollowConversions pulls in the input legs of conversion output legs
	// through their group id.
	FollowConversions bool

	// LevelFilter overrides the per-level filter. Defaults to AcceptedAfterAnchor.
	LevelFilter LevelFilterFunc
}

// Stats describes the cost of a finished walk.
type Stats struct {
	Levels     int
	RoundTrips int
	Visited    int
}

// AcceptedAfterAnchor leaves the anchor level unconstrained and requires
// ACCEPTED on every later level.
func AcceptedAfterAnchor(depth int) domain.TransactionFilter {
	if depth == 0 {
		return domain.TransactionFilter{}
	}
	return domain.AcceptedOnly()
}

// Walker performs level-synchronous backward walks over a TransactionReader.
type Walker struct {
	repo     portsrepo.TransactionReader
	maxDepth int
}

// NewWalker creates a Walker bounded to maxDepth levels.
func NewWalker(repo portsrepo.TransactionReader, maxDepth int) *Walker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Walker{repo: repo, maxDepth: maxDepth}
}

// MaxDepth returns the configured level bound.
func (w *Walker) MaxDepth() int {
	return w.maxDepth
}

// Walk expands the chain upstream of anchorIDs. Each id is expanded at most
// once: frontier ids are marked visited whether or not they matched the
// level filter, so cycles in the trading relation terminate.
func (w *Walker) Walk(ctx context.Context, anchorIDs []string, opts Options, visitor Visitor) (Stats, error) {
	ctx, span := tracer.Start(ctx, "traversal.Walk", trace.WithAttributes(
		attribute.Int("chain.anchors", len(anchorIDs)),
		attribute.Bool("chain.follow_conversions", opts.FollowConversions),
	))
	defer span.End()

	stats, err := w.walk(ctx, anchorIDs, opts, visitor)
	span.SetAttributes(
		attribute.Int("chain.levels", stats.Levels),
		attribute.Int("chain.round_trips", stats.RoundTrips),
		attribute.Int("chain.visited", stats.Visited),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return stats, err
}

func (w *Walker) walk(ctx context.Context, anchorIDs []string, opts Options, visitor Visitor) (Stats, error) {
	levelFilter := opts.LevelFilter
	if levelFilter == nil {
		levelFilter = AcceptedAfterAnchor
	}

	var stats Stats
	visited := make(map[string]struct{})
	frontier := newIDSet(anchorIDs...)

	for depth := 0; frontier.len() > 0; depth++ {
		if depth >= w.maxDepth {
			return stats, fmt.Errorf("%w: still expanding after %d levels", apperrors.ErrChainDepthExceeded, w.maxDepth)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ids := frontier.without(visited)
		for _, id := range frontier.ids {
			visited[id] = struct{}{}
		}
		if len(ids) == 0 {
			break
		}

		filter := levelFilter(depth)
		if opts.CommodityID != nil {
			filter = filter.WithCommodity(*opts.CommodityID)
		}

		fetched, err := w.repo.FindTransactionsByIDs(ctx, ids, filter)
		stats.RoundTrips++
		if err != nil {
			return stats, fmt.Errorf("failed to fetch chain level %d: %w", depth, err)
		}
		stats.Levels++

		if opts.FollowConversions {
			siblings, trips, err := w.conversionSiblings(ctx, fetched, visited)
			stats.RoundTrips += trips
			if err != nil {
				return stats, err
			}
			// Input legs are expanded on this level: their sellers feed the
			// next frontier like any other fetched transaction.
			for _, s := range siblings {
				visited[s.TransactionID] = struct{}{}
			}
			fetched = append(fetched, siblings...)
		}

		stats.Visited += len(fetched)
		if err := visitor.VisitLevel(depth, fetched); err != nil {
			return stats, err
		}

		sellerIDs := newIDSet()
		for _, t := range fetched {
			if t.SellerID != nil {
				sellerIDs.add(*t.SellerID)
			}
		}
		if sellerIDs.len() > 0 {
			var upstreamFilter domain.TransactionFilter
			if opts.CommodityID != nil {
				upstreamFilter = upstreamFilter.WithCommodity(*opts.CommodityID)
			}
			upstream, err := w.repo.FindTransactionsByBuyerIDs(ctx, sellerIDs.ids, upstreamFilter)
			stats.RoundTrips++
			if err != nil {
				return stats, fmt.Errorf("failed to fetch upstream of chain level %d: %w", depth, err)
			}
			next := newIDSet()
			for _, t := range upstream {
				next.add(t.TransactionID)
			}
			frontier = newIDSet(next.without(visited)...)
		} else {
			frontier = newIDSet()
		}
	}

	return stats, nil
}

// conversionSiblings fetches the input legs sharing a group with any output
// leg in fetched.
func (w *Walker) conversionSiblings(ctx context.Context, fetched []domain.Transaction, visited map[string]struct{}) ([]domain.Transaction, int, error) {
	groupIDs := newIDSet()
	exclude := newIDSet()
	for _, t := range fetched {
		exclude.add(t.TransactionID)
		if t.IsConversionOutputLeg() && t.GroupID != nil {
			groupIDs.add(*t.GroupID)
		}
	}
	if groupIDs.len() == 0 {
		return nil, 0, nil
	}
	for id := range visited {
		exclude.add(id)
	}

	legs, err := w.repo.FindConversionInputLegs(ctx, groupIDs.ids, exclude.ids)
	if err != nil {
		return nil, 1, fmt.Errorf("failed to fetch conversion input legs: %w", err)
	}
	return legs, 1, nil
}

// idSet keeps insertion order so repository calls are deterministic.
type idSet struct {
	ids  []string
	seen map[string]struct{}
}

func newIDSet(ids ...string) *idSet {
	s := &idSet{seen: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *idSet) add(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *idSet) len() int { return len(s.ids) }

func (s *idSet) without(exclude map[string]struct{}) []string {
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		if _, ok := exclude[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
