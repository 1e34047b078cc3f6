package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arcodify/arcodify-api/internal/cache"
	"github.com/arcodify/arcodify-api/internal/observability"
)

// Service is a read-through cache in front of the external posts source.
// The snapshot is cached whole under one key; search and pagination are
// computed per call so differently-filtered views can never disagree
// about staleness.
type Service struct {
	store   cache.Store
	fetcher Fetcher
	key     string
	ttl     time.Duration
	log     *slog.Logger
	prom    *observability.Prom
}

func NewService(store cache.Store, fetcher Fetcher, keyPrefix string, ttl time.Duration, log *slog.Logger, prom *observability.Prom) *Service {
	return &Service{
		store:   store,
		fetcher: fetcher,
		key:     keyPrefix + ":all",
		ttl:     ttl,
		log:     log,
		prom:    prom,
	}
}

// snapshot returns the full unfiltered list, from cache when possible.
// Cache read errors count as misses (fail open); a fetch failure is
// fatal for the request; cache write errors are swallowed.
func (s *Service) snapshot(ctx context.Context) ([]Post, error) {
	b, err := s.store.Get(ctx, s.key)

	if err == nil {
		var items []Post
		if jsonErr := json.Unmarshal(b, &items); jsonErr == nil {
			s.prom.ObserveCacheRead("hit")
			return items, nil
		}
		// corrupt entry, treat as a miss and overwrite below
		s.log.Warn("discarding unreadable posts snapshot", "key", s.key)
	} else if !errors.Is(err, cache.ErrMiss) {
		s.prom.ObserveCacheRead("error")
		s.log.Warn("posts cache read failed, falling through", "err", err)
	} else {
		s.prom.ObserveCacheRead("miss")
	}

	items, err := s.fetcher.FetchAll(ctx)

	if err != nil {
		return nil, fmt.Errorf("posts source: %w", err)
	}

	if b, err := json.Marshal(items); err == nil {
		if err := s.store.Set(ctx, s.key, b, s.ttl); err != nil {
			s.log.Warn("posts cache write failed", "err", err)
		}
	}

	return items, nil
}

func (s *Service) GetPosts(ctx context.Context, page, perPage int, search string) (Page, error) {
	items, err := s.snapshot(ctx)

	if err != nil {
		return Page{}, err
	}

	filtered := filter(items, search)

	return paginate(filtered, page, perPage), nil
}

// GetPostByID scans the unfiltered snapshot. Absence is not an error.
func (s *Service) GetPostByID(ctx context.Context, id int) (Post, bool, error) {
	items, err := s.snapshot(ctx)

	if err != nil {
		return Post{}, false, err
	}

	for _, p := range items {
		if p.ID == id {
			return p, true, nil
		}
	}

	return Post{}, false, nil
}

// ClearCache evicts the snapshot. Best effort.
func (s *Service) ClearCache(ctx context.Context) {
	if err := s.store.Delete(ctx, s.key); err != nil {
		s.log.Warn("posts cache delete failed", "err", err)
	}
}

type CacheInfo struct {
	Key        string `json:"cacheKey"`
	Exists     bool   `json:"exists"`
	TTLSeconds int64  `json:"ttlSeconds"`
}

func (s *Service) CacheInfo(ctx context.Context) (CacheInfo, error) {
	ttl, exists, err := s.store.TTL(ctx, s.key)

	if err != nil {
		return CacheInfo{}, err
	}

	return CacheInfo{
		Key:        s.key,
		Exists:     exists,
		TTLSeconds: int64(ttl.Seconds()),
	}, nil
}

func filter(items []Post, search string) []Post {
	if search == "" {
		return items
	}

	needle := strings.ToLower(search)
	filtered := make([]Post, 0, len(items))

	for _, p := range items {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Body), needle) {
			filtered = append(filtered, p)
		}
	}

	return filtered
}

func paginate(items []Post, page, perPage int) Page {
	total := len(items)

	if total == 0 {
		return Page{
			Posts:   []Post{},
			Total:   0,
			Page:    page,
			PerPage: perPage,
		}
	}

	totalPages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	end := start + perPage

	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Posts:   items[start:end],
		Total:   total,
		Page:    page,
		PerPage: perPage,
		HasNext: page < totalPages,
		HasPrev: page > 1,
	}
}
