package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("directory: not found")

// ReviewImportStore is the slice of the repository the bulk importer needs:
// the three reference snapshots plus the batch write.
type ReviewImportStore interface {
	ListFirms(ctx context.Context) ([]Firm, error)
	ListLawyers(ctx context.Context) ([]Lawyer, error)
	ListLegalAreas(ctx context.Context) ([]LegalArea, error)
	InsertReviews(ctx context.Context, rs []Review) error
}

type DirectoryRepository interface {
	ReviewImportStore

	// Write paths
	CreateFirm(ctx context.Context, f Firm) (int64, error)
	UpdateFirm(ctx context.Context, f Firm) error
	DeleteFirm(ctx context.Context, id int64) error
	CreateLawyer(ctx context.Context, l Lawyer) (int64, error)
	UpdateLawyer(ctx context.Context, l Lawyer) error
	DeleteLawyer(ctx context.Context, id int64) error
	CreateLegalArea(ctx context.Context, a LegalArea) (int64, error)
	UpdateLegalArea(ctx context.Context, a LegalArea) error
	DeleteLegalArea(ctx context.Context, id int64) error
	CreateReview(ctx context.Context, r Review) (int64, error)
	UpdateReview(ctx context.Context, r Review) error
	DeleteReview(ctx context.Context, id int64) error
	SetReviewStatus(ctx context.Context, id int64, status string) error
	CreateContactMessage(ctx context.Context, m ContactMessage) (int64, error)

	// Read paths
	GetFirm(ctx context.Context, id int64) (FirmView, error)
	SearchFirms(ctx context.Context, q FirmsQuery) (FirmsPage, error)
	ReviewRatingCounts(ctx context.Context, firmID int64) ([5]int, error)
	ListReviews(ctx context.Context, firmID int64, pg PageQuery) (ReviewsPage, error)
	ListAllReviews(ctx context.Context, pg PageQuery) (ReviewsPage, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Read models & queries

// FirmView is the public detail-page payload.
type FirmView struct {
	Firm
	Lawyers []Lawyer      `json:"lawyers"`
	Ratings RatingSummary `json:"ratings"`
}

// RatingSummary backs the star histogram. Counts[0] is one star.
type RatingSummary struct {
	Total   int     `json:"total"`
	Average float64 `json:"average"`
	Counts  [5]int  `json:"counts"`
	Percent [5]int  `json:"percent"`
}

// FirmCard is the list-page row: firm plus its published-review aggregate.
type FirmCard struct {
	Firm
	ReviewCount int     `json:"review_count"`
	AvgRating   float64 `json:"avg_rating"`
}

type FirmsQuery struct {
	Q      *string // substring match on name
	AreaID *int64  // firms with published reviews in this legal area
	Limit  int
	Offset int
}

type PageQuery struct {
	Limit  int
	Offset int
}

type FirmsPage struct {
	Items []FirmCard `json:"items"`
	Total int        `json:"total"`
}

type ReviewsPage struct {
	Items []Review `json:"items"`
	Total int      `json:"total"`
}
