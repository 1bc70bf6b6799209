package app

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"kanzlei_check/internal/domain"
)

// avatarPalette is the fixed set reviews draw their avatar color from.
// Purely cosmetic; no uniqueness guarantee.
var avatarPalette = [10]string{
	"#F44336", "#E91E63", "#9C27B0", "#3F51B5", "#2196F3",
	"#009688", "#4CAF50", "#FF9800", "#795548", "#607D8B",
}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ParsedReview is one candidate record built from a single input line.
// It lives only between Parse and Import.
type ParsedReview struct {
	FirmName      string
	Title         string
	Content       string
	Rating        string // raw field; validated to an int in 1..5
	Initials      string
	ReviewDate    *string
	ReviewTime    *string
	LawyerName    *string
	LegalAreaName *string
}

// ValidationResult at index i always describes the parsed record at index i.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

type ImportOutcome struct {
	Inserted     int
	Invalid      int
	MissingFirms []string // firm names that resolved to nothing; records skipped
}

// Notifier surfaces per-record notices (currently only firm-not-found)
// to whatever UI is driving the import.
type Notifier func(msg string)

type ImportOptions struct {
	// Strict reports lines with fewer than 5 fields as line errors
	// instead of dropping them silently.
	Strict     bool
	Notify     Notifier
	OnComplete func()
	Rand       *rand.Rand // avatar color source; defaults to time-seeded
}

// Importer runs one parse → validate → resolve → insert attempt.
// It is not safe for concurrent use; each attempt gets its own instance.
type Importer struct {
	store domain.ReviewImportStore
	cache domain.Cache
	opts  ImportOptions

	records    []ParsedReview
	results    []ValidationResult
	lineErrors []string
}

func NewImporter(store domain.ReviewImportStore, cache domain.Cache, opts ImportOptions) *Importer {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Importer{store: store, cache: cache, opts: opts}
}

func (s *Importer) Records() []ParsedReview     { return s.records }
func (s *Importer) Results() []ValidationResult { return s.results }
func (s *Importer) LineErrors() []string        { return s.lineErrors }

// Parse splits text into candidate records, one per qualifying line, in input
// order. Blank lines are skipped; lines with fewer than 5 pipe-separated
// fields are dropped (or reported, under Strict). Every record gets a
// validation result at the same index.
func (s *Importer) Parse(text string) {
	s.records = nil
	s.results = nil
	s.lineErrors = nil

	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 5 {
			if s.opts.Strict {
				s.lineErrors = append(s.lineErrors,
					fmt.Sprintf("line %d: expected at least 5 fields, got %d", n+1, len(parts)))
			}
			continue
		}

		rec := ParsedReview{
			FirmName: parts[0],
			Title:    parts[1],
			Content:  parts[2],
			Rating:   parts[3],
			Initials: parts[4],
		}
		if rec.Initials == "" {
			rec.Initials = deriveInitials(rec.Title)
		}
		rec.ReviewDate = optField(parts, 5)
		rec.ReviewTime = optField(parts, 6)
		rec.LawyerName = optField(parts, 7)
		rec.LegalAreaName = optField(parts, 8)

		s.records = append(s.records, rec)
		s.results = append(s.results, validateRecord(rec))
	}
}

// Import resolves the valid records against a fresh reference snapshot and
// submits them as one batch insert. A firm that cannot be resolved skips its
// record and the batch continues; a failed insert aborts the whole batch and
// is returned verbatim. On a successful insert the parsed state is cleared.
func (s *Importer) Import(ctx context.Context) (ImportOutcome, error) {
	var out ImportOutcome
	if len(s.records) == 0 {
		return out, nil
	}

	// One snapshot per attempt, never cached across attempts.
	var (
		firms   []domain.Firm
		lawyers []domain.Lawyer
		areas   []domain.LegalArea
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { var err error; firms, err = s.store.ListFirms(gctx); return err })
	g.Go(func() error { var err error; lawyers, err = s.store.ListLawyers(gctx); return err })
	g.Go(func() error { var err error; areas, err = s.store.ListLegalAreas(gctx); return err })
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("load reference data: %w", err)
	}

	batch := make([]domain.Review, 0, len(s.records))
	touched := make(map[int64]struct{})
	for i, rec := range s.records {
		if !s.results[i].Valid {
			out.Invalid++
			continue
		}
		firm, ok := matchFirm(firms, rec.FirmName)
		if !ok {
			out.MissingFirms = append(out.MissingFirms, rec.FirmName)
			if s.opts.Notify != nil {
				s.opts.Notify("law firm not found: " + rec.FirmName)
			}
			continue
		}

		rating, _ := strconv.Atoi(rec.Rating) // validated above
		rv := domain.Review{
			FirmID:      firm.ID,
			Title:       rec.Title,
			Content:     rec.Content,
			Rating:      rating,
			Initials:    rec.Initials,
			AvatarColor: avatarPalette[s.opts.Rand.Intn(len(avatarPalette))],
			ReviewDate:  rec.ReviewDate,
			ReviewTime:  rec.ReviewTime,
			Status:      domain.ReviewStatusPublished,
		}
		if rec.LawyerName != nil {
			// Lawyer must belong to the resolved firm; a miss leaves the
			// reference unset rather than failing the record.
			if lw, ok := matchLawyer(lawyers, firm.ID, *rec.LawyerName); ok {
				id := lw.ID
				rv.LawyerID = &id
			}
		}
		if rec.LegalAreaName != nil {
			if la, ok := matchArea(areas, *rec.LegalAreaName); ok {
				id := la.ID
				rv.LegalAreaID = &id
			}
		}
		batch = append(batch, rv)
		touched[firm.ID] = struct{}{}
	}

	if len(batch) == 0 {
		return out, nil
	}
	if err := s.store.InsertReviews(ctx, batch); err != nil {
		return out, err
	}
	out.Inserted = len(batch)

	if s.cache != nil {
		for id := range touched {
			invalidateFirmCaches(ctx, s.cache, id)
		}
	}

	// success: drop the preview state so a stale batch can't be re-submitted
	s.records, s.results, s.lineErrors = nil, nil, nil
	if s.opts.OnComplete != nil {
		s.opts.OnComplete()
	}
	return out, nil
}

func optField(parts []string, i int) *string {
	if i < len(parts) && parts[i] != "" {
		v := parts[i]
		return &v
	}
	return nil
}

// deriveInitials takes the first letter of each of the first two title words;
// a one-word title contributes its first two characters.
func deriveInitials(title string) string {
	words := strings.Fields(title)
	switch {
	case len(words) >= 2:
		return strings.ToUpper(firstRune(words[0]) + firstRune(words[1]))
	case len(words) == 1:
		r := []rune(words[0])
		if len(r) < 2 {
			return strings.ToUpper(string(r))
		}
		return strings.ToUpper(string(r[:2]))
	default:
		return ""
	}
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// validateRecord checks every rule; the error list is cumulative.
func validateRecord(r ParsedReview) ValidationResult {
	var errs []string
	if r.FirmName == "" {
		errs = append(errs, "Law firm name is required")
	}
	if r.Title == "" {
		errs = append(errs, "Title is required")
	}
	if r.Content == "" {
		errs = append(errs, "Content is required")
	}
	if n, err := strconv.Atoi(r.Rating); err != nil || n < 1 || n > 5 {
		errs = append(errs, "Rating must be between 1 and 5")
	}
	if r.Initials == "" {
		errs = append(errs, "Initials are required")
	}
	if r.ReviewDate != nil && !dateRe.MatchString(*r.ReviewDate) {
		errs = append(errs, "Date must be in YYYY-MM-DD format")
	}
	if r.ReviewTime != nil && !timeRe.MatchString(*r.ReviewTime) {
		errs = append(errs, "Time must be in HH:MM format")
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Name matching is case-insensitive exact, per the import contract.

func matchFirm(firms []domain.Firm, name string) (domain.Firm, bool) {
	for _, f := range firms {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return domain.Firm{}, false
}

func matchLawyer(lawyers []domain.Lawyer, firmID int64, name string) (domain.Lawyer, bool) {
	for _, l := range lawyers {
		if l.FirmID == firmID && strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return domain.Lawyer{}, false
}

func matchArea(areas []domain.LegalArea, name string) (domain.LegalArea, bool) {
	for _, a := range areas {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return domain.LegalArea{}, false
}
