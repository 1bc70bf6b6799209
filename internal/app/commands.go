package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"kanzlei_check/internal/domain"
)

// AdminService covers the operator CRUD surface plus the two public
// submission flows (review wizard, contact form).
type AdminService struct {
	repo  domain.DirectoryRepository
	cache domain.Cache
	rng   *rand.Rand
}

func NewAdminService(r domain.DirectoryRepository, c domain.Cache) *AdminService {
	return &AdminService{
		repo:  r,
		cache: c,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ---- firms ----

func (s *AdminService) CreateFirm(ctx context.Context, f domain.Firm) (int64, error) {
	if strings.TrimSpace(f.Name) == "" {
		return 0, fmt.Errorf("firm name is required")
	}
	return s.repo.CreateFirm(ctx, f)
}

func (s *AdminService) UpdateFirm(ctx context.Context, f domain.Firm) error {
	if err := s.repo.UpdateFirm(ctx, f); err != nil {
		return err
	}
	invalidateFirmCaches(ctx, s.cache, f.ID)
	return nil
}

func (s *AdminService) DeleteFirm(ctx context.Context, id int64) error {
	if err := s.repo.DeleteFirm(ctx, id); err != nil {
		return err
	}
	invalidateFirmCaches(ctx, s.cache, id)
	return nil
}

// ---- lawyers ----

func (s *AdminService) CreateLawyer(ctx context.Context, l domain.Lawyer) (int64, error) {
	if strings.TrimSpace(l.Name) == "" {
		return 0, fmt.Errorf("lawyer name is required")
	}
	id, err := s.repo.CreateLawyer(ctx, l)
	if err != nil {
		return 0, err
	}
	invalidateFirmCaches(ctx, s.cache, l.FirmID)
	return id, nil
}

func (s *AdminService) UpdateLawyer(ctx context.Context, l domain.Lawyer) error {
	if err := s.repo.UpdateLawyer(ctx, l); err != nil {
		return err
	}
	invalidateFirmCaches(ctx, s.cache, l.FirmID)
	return nil
}

// firmID is a cache hint; zero skips invalidation and TTL cleans up.
func (s *AdminService) DeleteLawyer(ctx context.Context, id, firmID int64) error {
	if err := s.repo.DeleteLawyer(ctx, id); err != nil {
		return err
	}
	if firmID != 0 {
		invalidateFirmCaches(ctx, s.cache, firmID)
	}
	return nil
}

// ---- legal areas ----

func (s *AdminService) CreateLegalArea(ctx context.Context, a domain.LegalArea) (int64, error) {
	if strings.TrimSpace(a.Name) == "" {
		return 0, fmt.Errorf("legal area name is required")
	}
	id, err := s.repo.CreateLegalArea(ctx, a)
	if err != nil {
		return 0, err
	}
	_ = s.cache.Del(ctx, legalAreasKey)
	return id, nil
}

func (s *AdminService) UpdateLegalArea(ctx context.Context, a domain.LegalArea) error {
	if err := s.repo.UpdateLegalArea(ctx, a); err != nil {
		return err
	}
	_ = s.cache.Del(ctx, legalAreasKey)
	return nil
}

func (s *AdminService) DeleteLegalArea(ctx context.Context, id int64) error {
	if err := s.repo.DeleteLegalArea(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Del(ctx, legalAreasKey)
	return nil
}

// ---- reference lists (admin panel tables) ----

func (s *AdminService) ListFirms(ctx context.Context) ([]domain.Firm, error) {
	return s.repo.ListFirms(ctx)
}

func (s *AdminService) ListLawyers(ctx context.Context) ([]domain.Lawyer, error) {
	return s.repo.ListLawyers(ctx)
}

func (s *AdminService) ListLegalAreas(ctx context.Context) ([]domain.LegalArea, error) {
	return s.repo.ListLegalAreas(ctx)
}

// ---- reviews ----

func (s *AdminService) ListAllReviews(ctx context.Context, pg domain.PageQuery) (domain.ReviewsPage, error) {
	if pg.Limit <= 0 {
		pg.Limit = 50
	}
	return s.repo.ListAllReviews(ctx, pg)
}

func (s *AdminService) CreateReview(ctx context.Context, r domain.Review) (int64, error) {
	if r.Rating < 1 || r.Rating > 5 {
		return 0, fmt.Errorf("rating must be between 1 and 5")
	}
	if r.AvatarColor == "" {
		r.AvatarColor = avatarPalette[s.rng.Intn(len(avatarPalette))]
	}
	if r.Status == "" {
		r.Status = domain.ReviewStatusPublished
	}
	id, err := s.repo.CreateReview(ctx, r)
	if err != nil {
		return 0, err
	}
	invalidateFirmCaches(ctx, s.cache, r.FirmID)
	return id, nil
}

func (s *AdminService) UpdateReview(ctx context.Context, r domain.Review) error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	if err := s.repo.UpdateReview(ctx, r); err != nil {
		return err
	}
	invalidateFirmCaches(ctx, s.cache, r.FirmID)
	return nil
}

func (s *AdminService) DeleteReview(ctx context.Context, id, firmID int64) error {
	if err := s.repo.DeleteReview(ctx, id); err != nil {
		return err
	}
	if firmID != 0 {
		invalidateFirmCaches(ctx, s.cache, firmID)
	}
	return nil
}

// ApproveReview publishes a pending wizard submission.
func (s *AdminService) ApproveReview(ctx context.Context, id, firmID int64) error {
	if err := s.repo.SetReviewStatus(ctx, id, domain.ReviewStatusPublished); err != nil {
		return err
	}
	if firmID != 0 {
		invalidateFirmCaches(ctx, s.cache, firmID)
	}
	return nil
}

// ---- public submissions ----

// SubmitReview stores a visitor review as pending; it only becomes visible
// once an operator approves it.
func (s *AdminService) SubmitReview(ctx context.Context, r domain.Review) (int64, error) {
	if r.Rating < 1 || r.Rating > 5 {
		return 0, fmt.Errorf("rating must be between 1 and 5")
	}
	if r.Initials == "" {
		r.Initials = deriveInitials(r.Title)
	}
	r.AvatarColor = avatarPalette[s.rng.Intn(len(avatarPalette))]
	r.Status = domain.ReviewStatusPending
	return s.repo.CreateReview(ctx, r)
}

// SubmitContact stores a message to a firm and returns the public reference
// the sender can quote later.
func (s *AdminService) SubmitContact(ctx context.Context, m domain.ContactMessage) (string, error) {
	m.Reference = uuid.NewString()
	if _, err := s.repo.CreateContactMessage(ctx, m); err != nil {
		return "", err
	}
	return m.Reference, nil
}
