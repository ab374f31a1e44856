package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/coursehub/coursehub-api/internal/core/domain"
	"github.com/coursehub/coursehub-api/internal/core/ports"
	"github.com/coursehub/coursehub-api/internal/pkg/metrics"
)

// CatalogCache abstracts the cached active-course listing (Redis).
//
// Every Invalidate bumps a generation counter. Set only stores a listing
// when the generation is still the one read before the listing was loaded,
// so a load that raced with a write cannot repopulate the cache with
// stale data.
type CatalogCache interface {
	Get(ctx context.Context) ([]*domain.Course, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, generation int64, courses []*domain.Course) (bool, error)
	CatalogInvalidator
}

// catalogLoadTimeout bounds the shared database read behind a cache miss.
// The read is detached from the caller that started it.
const catalogLoadTimeout = 10 * time.Second

type CatalogService struct {
	repo  ports.CourseRepository
	cache CatalogCache
	sf    singleflight.Group
	log   zerolog.Logger
}

func NewCatalogService(repo ports.CourseRepository, cache CatalogCache, log zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, cache: cache, log: log}
}

// ListActive returns the active courses, served from cache when possible.
// Concurrent misses share one database read; each caller still stops
// waiting when its own context ends.
func (s *CatalogService) ListActive(ctx context.Context) ([]*domain.Course, error) {
	courses, ok, err := s.cache.Get(ctx)
	switch {
	case err != nil:
		metrics.CatalogCacheTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Msg("catalog cache read failed, falling back to database")
	case ok:
		metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
		return courses, nil
	default:
		metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan("active", func() (interface{}, error) {
		return s.load(loadCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("list courses: %w", res.Err)
		}
		return res.Val.([]*domain.Course), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("list courses: %w", ctx.Err())
	}
}

// load reads the active courses and repopulates the cache unless an
// invalidation happened while reading.
func (s *CatalogService) load(ctx context.Context) ([]*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, catalogLoadTimeout)
	defer cancel()

	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.log.Warn().Err(genErr).Msg("catalog cache generation unavailable, skipping populate")
	}

	list, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return list, nil
	}

	stored, err := s.cache.Set(ctx, gen, list)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Msg("failed to populate catalog cache")
	case !stored:
		s.log.Debug().Int64("generation", gen).Msg("catalog changed during load, cache left empty")
	}
	return list, nil
}

// Seed validates every course first, then upserts them by title. Existing
// enrollment data is left untouched.
func (s *CatalogService) Seed(ctx context.Context, courses []domain.Course) (int, error) {
	for i := range courses {
		if err := courses[i].Validate(); err != nil {
			return 0, fmt.Errorf("seed course %d (%q): %w", i, courses[i].Title, err)
		}
	}

	created := 0
	for i := range courses {
		c := courses[i]
		c.IsActive = true
		inserted, err := s.repo.Upsert(ctx, &c)
		if err != nil {
			return 0, fmt.Errorf("seed course %q: %w", c.Title, err)
		}
		if inserted {
			created++
		}
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}

	s.log.Info().Int("courses", len(courses)).Int("created", created).Msg("catalog seeded")
	return len(courses), nil
}
