package app

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"kanzlei_check/internal/domain"
)

type QueryService struct {
	repo     domain.DirectoryRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.DirectoryRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetFirm(ctx context.Context, id int64) (domain.FirmView, error) {
	key := firmKey(id)
	var fv domain.FirmView
	if ok, _ := s.cache.Get(ctx, key, &fv); ok {
		return fv, nil
	}
	fv, err := s.repo.GetFirm(ctx, id)
	if err != nil {
		return domain.FirmView{}, err
	}
	counts, err := s.repo.ReviewRatingCounts(ctx, id)
	if err != nil {
		return domain.FirmView{}, err
	}
	fv.Ratings = Summarize(counts)
	_ = s.cache.Set(ctx, key, fv, s.cacheTTL)
	return fv, nil
}

// SearchFirms is uncached: the filter space (q × area × page) is open-ended
// and the list query is a single indexed aggregate.
func (s *QueryService) SearchFirms(ctx context.Context, q domain.FirmsQuery) (domain.FirmsPage, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	return s.repo.SearchFirms(ctx, q)
}

func (s *QueryService) ListReviews(ctx context.Context, firmID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	if pg.Limit <= 0 {
		pg.Limit = 20
	}
	key := reviewsKey(firmID, pg)
	var out domain.ReviewsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.repo.ListReviews(ctx, firmID, pg)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array
	cp := deepCopyReviewsPage(rs)

	// size guard
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, s.cacheTTL)
	}
	return cp, nil
}

func (s *QueryService) ListLegalAreas(ctx context.Context) ([]domain.LegalArea, error) {
	var out []domain.LegalArea
	if ok, _ := s.cache.Get(ctx, legalAreasKey, &out); ok {
		return out, nil
	}
	areas, err := s.repo.ListLegalAreas(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, legalAreasKey, areas, s.cacheTTL)
	return areas, nil
}

// Summarize turns per-star counts into the histogram shown on firm pages.
// Percentages are floored so no bucket is overstated.
func Summarize(counts [5]int) domain.RatingSummary {
	sum := domain.RatingSummary{Counts: counts}
	weighted := 0
	for i, c := range counts {
		sum.Total += c
		weighted += (i + 1) * c
	}
	if sum.Total == 0 {
		return sum
	}
	sum.Average = math.Round(float64(weighted)/float64(sum.Total)*10) / 10
	for i, c := range counts {
		sum.Percent[i] = c * 100 / sum.Total
	}
	return sum
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	out := domain.ReviewsPage{Total: in.Total}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Review, n)
		copy(out.Items, in.Items)
	}
	return out
}
