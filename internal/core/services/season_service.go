package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	"github.com/SscSPs/supply_chain_app/internal/core/domain"
	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
	"github.com/SscSPs/supply_chain_app/internal/middleware"
	"github.com/SscSPs/supply_chain_app/internal/observability"
)

// seasonService implements the SeasonSvc interface
type seasonService struct {
	BaseService
	seasonRepo portsrepo.SeasonRepositoryWithTx
}

// NewSeasonService creates a new season service
func NewSeasonService(repo portsrepo.SeasonRepositoryWithTx) portssvc.SeasonSvc {
	return &seasonService{seasonRepo: repo}
}

var _ portssvc.SeasonSvc = (*seasonService)(nil)

func (s *seasonService) BackfillSeasons(ctx context.Context, batchSize int) (*domain.SeasonBackfillResult, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", apperrors.ErrValidation, batchSize)
	}

	result := &domain.SeasonBackfillResult{RunID: uuid.NewString()}
	ctx = middleware.WithLogger(ctx, s.GetLogger(ctx).With(slog.String("run_id", result.RunID)))
	s.LogInfo(ctx, "Season backfill started", slog.Int("batch_size", batchSize))

	seasons := make(map[string][]domain.Season)
	afterID := ""
	for {
		page, err := s.seasonRepo.ListUnscopedTransactions(ctx, afterID, batchSize)
		if err != nil {
			s.LogError(ctx, err, "Failed to list unscoped transactions", slog.String("after_id", afterID))
			return nil, fmt.Errorf("failed to list unscoped transactions: %w", err)
		}
		if len(page) == 0 {
			break
		}
		result.Batches++
		result.Scanned += len(page)

		if err := s.loadSeasons(ctx, page, seasons); err != nil {
			return nil, err
		}

		assignments := make(map[string]string, len(page))
		for _, t := range page {
			if season, ok := matchSeason(seasons[t.CommodityID], t); ok {
				assignments[t.TransactionID] = season.SeasonID
			} else {
				result.Unmatched++
			}
		}
		if err := s.assign(ctx, assignments); err != nil {
			return nil, err
		}
		result.Assigned += len(assignments)
		observability.SeasonsAssigned.Add(float64(len(assignments)))

		afterID = page[len(page)-1].TransactionID
		if len(page) < batchSize {
			break
		}
	}

	s.LogInfo(ctx, "Season backfill finished",
		slog.Int("batches", result.Batches),
		slog.Int("scanned", result.Scanned),
		slog.Int("assigned", result.Assigned),
		slog.Int("unmatched", result.Unmatched))
	return result, nil
}

// loadSeasons fetches the seasons of commodities in page not yet in cache.
func (s *seasonService) loadSeasons(ctx context.Context, page []domain.Transaction, cache map[string][]domain.Season) error {
	var missing []string
	for _, t := range page {
		if _, ok := cache[t.CommodityID]; ok {
			continue
		}
		cache[t.CommodityID] = nil
		missing = append(missing, t.CommodityID)
	}
	if len(missing) == 0 {
		return nil
	}

	loaded, err := s.seasonRepo.ListSeasonsByCommodityIDs(ctx, missing)
	if err != nil {
		s.LogError(ctx, err, "Failed to load seasons", slog.Any("commodity_ids", missing))
		return fmt.Errorf("failed to load seasons: %w", err)
	}
	for _, season := range loaded {
		cache[season.CommodityID] = append(cache[season.CommodityID], season)
	}
	return nil
}

// assign writes one page of assignments in a single database transaction.
func (s *seasonService) assign(ctx context.Context, assignments map[string]string) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := s.seasonRepo.Begin(ctx)
	if err != nil {
		return err
	}
	if err := s.seasonRepo.AssignSeasons(ctx, tx, assignments); err != nil {
		s.LogError(ctx, err, "Failed to assign seasons", slog.Int("count", len(assignments)))
		_ = s.seasonRepo.Rollback(ctx, tx)
		return fmt.Errorf("failed to assign seasons: %w", err)
	}
	return s.seasonRepo.Commit(ctx, tx)
}

// matchSeason returns the first season whose range contains the transaction's creation time.
func matchSeason(seasons []domain.Season, t domain.Transaction) (domain.Season, bool) {
	for _, season := range seasons {
		if season.Contains(t.CreatedAt) {
			return season, true
		}
	}
	return domain.Season{}, false
}
