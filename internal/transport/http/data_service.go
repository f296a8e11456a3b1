package http

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"embalsescli/internal/config"
	"embalsescli/internal/dataprocessing"
	"embalsescli/pkg/contracts/domain"
)

// DataService supplies the cleaned dataset backing the read-only endpoints.
type DataService interface {
	// Dataset returns the current cleaned dataset, loading it on first use.
	Dataset(ctx context.Context) (*domain.Dataset, error)

	// Refresh forces a reload from disk.
	Refresh(ctx context.Context) (*domain.Dataset, error)
}

// CachedDataService loads the per-reservoir CSVs once, cleans them, and
// serves the result from memory. The cache expires after a TTL so that new
// files dropped into the data directory are picked up without a restart.
type CachedDataService struct {
	loader  *dataprocessing.Loader
	cleaner *dataprocessing.Cleaner
	dataDir string
	ttl     time.Duration
	logger  *slog.Logger

	mu       sync.RWMutex
	dataset  *domain.Dataset
	loadedAt time.Time
}

// NewCachedDataService creates a data service over the configured data
// directory.
func NewCachedDataService(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *CachedDataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDataService{
		loader:  dataprocessing.NewLoader(logger),
		cleaner: dataprocessing.NewCleaner(cfg.Cleaning, logger),
		dataDir: paths.DataDir,
		ttl:     5 * time.Minute,
		logger:  logger.With(slog.String("component", "data_service")),
	}
}

// Dataset returns the cached dataset, reloading when the cache is cold or
// stale.
func (s *CachedDataService) Dataset(ctx context.Context) (*domain.Dataset, error) {
	s.mu.RLock()
	dataset, loadedAt := s.dataset, s.loadedAt
	s.mu.RUnlock()

	if dataset != nil && time.Since(loadedAt) < s.ttl {
		return dataset, nil
	}
	return s.Refresh(ctx)
}

// Refresh reloads and re-cleans the dataset from disk.
func (s *CachedDataService) Refresh(ctx context.Context) (*domain.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	dataset, err := s.loader.LoadDirectory(ctx, s.dataDir, nil)
	if err != nil {
		return nil, err
	}
	if _, err := s.cleaner.Clean(ctx, dataset); err != nil {
		return nil, err
	}

	s.dataset = dataset
	s.loadedAt = time.Now()
	s.logger.InfoContext(ctx, "dataset reloaded",
		slog.Int("rows", dataset.Len()),
		slog.Int("reservoirs", len(dataset.Reservoirs())),
		slog.Duration("duration", time.Since(start)))
	return dataset, nil
}
