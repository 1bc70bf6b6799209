package app_test

import (
	"context"
	"time"

	"kanzlei_check/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	firms   []domain.Firm
	lawyers []domain.Lawyer
	areas   []domain.LegalArea

	fv domain.FirmView
	rp domain.ReviewsPage

	inserted  [][]domain.Review
	created   []domain.Review
	contacts  []domain.ContactMessage
	insertErr error
	listErr   error
}

func (f *fakeRepo) ListFirms(ctx context.Context) ([]domain.Firm, error) {
	return f.firms, f.listErr
}
func (f *fakeRepo) ListLawyers(ctx context.Context) ([]domain.Lawyer, error) {
	return f.lawyers, f.listErr
}
func (f *fakeRepo) ListLegalAreas(ctx context.Context) ([]domain.LegalArea, error) {
	return f.areas, f.listErr
}
func (f *fakeRepo) InsertReviews(ctx context.Context, rs []domain.Review) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, rs)
	return nil
}

func (f *fakeRepo) CreateFirm(ctx context.Context, fm domain.Firm) (int64, error) { return 1, nil }
func (f *fakeRepo) UpdateFirm(ctx context.Context, fm domain.Firm) error          { return nil }
func (f *fakeRepo) DeleteFirm(ctx context.Context, id int64) error                { return nil }
func (f *fakeRepo) CreateLawyer(ctx context.Context, l domain.Lawyer) (int64, error) {
	return 1, nil
}
func (f *fakeRepo) UpdateLawyer(ctx context.Context, l domain.Lawyer) error { return nil }
func (f *fakeRepo) DeleteLawyer(ctx context.Context, id int64) error        { return nil }
func (f *fakeRepo) CreateLegalArea(ctx context.Context, a domain.LegalArea) (int64, error) {
	return 1, nil
}
func (f *fakeRepo) UpdateLegalArea(ctx context.Context, a domain.LegalArea) error { return nil }
func (f *fakeRepo) DeleteLegalArea(ctx context.Context, id int64) error           { return nil }
func (f *fakeRepo) CreateReview(ctx context.Context, r domain.Review) (int64, error) {
	f.created = append(f.created, r)
	return int64(len(f.created)), nil
}
func (f *fakeRepo) UpdateReview(ctx context.Context, r domain.Review) error { return nil }
func (f *fakeRepo) DeleteReview(ctx context.Context, id int64) error        { return nil }
func (f *fakeRepo) SetReviewStatus(ctx context.Context, id int64, status string) error {
	return nil
}
func (f *fakeRepo) CreateContactMessage(ctx context.Context, m domain.ContactMessage) (int64, error) {
	f.contacts = append(f.contacts, m)
	return int64(len(f.contacts)), nil
}

func (f *fakeRepo) GetFirm(ctx context.Context, id int64) (domain.FirmView, error) {
	return f.fv, nil
}
func (f *fakeRepo) SearchFirms(ctx context.Context, q domain.FirmsQuery) (domain.FirmsPage, error) {
	return domain.FirmsPage{}, nil
}
func (f *fakeRepo) ReviewRatingCounts(ctx context.Context, firmID int64) ([5]int, error) {
	return [5]int{}, nil
}
func (f *fakeRepo) ListReviews(ctx context.Context, firmID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	return f.rp, nil
}
func (f *fakeRepo) ListAllReviews(ctx context.Context, pg domain.PageQuery) (domain.ReviewsPage, error) {
	return f.rp, nil
}

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.FirmView:
		*d = v.(domain.FirmView)
	case *domain.ReviewsPage:
		*d = v.(domain.ReviewsPage)
	case *[]domain.LegalArea:
		*d = v.([]domain.LegalArea)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

// ---- helpers ----

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
