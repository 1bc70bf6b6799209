package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kanzlei_check/internal/app"
	"kanzlei_check/internal/domain"
)

type fakeRepo struct {
	firms   []domain.Firm
	lawyers []domain.Lawyer
	areas   []domain.LegalArea

	inserted [][]domain.Review
	created  []domain.Review
	contacts []domain.ContactMessage
}

func (f *fakeRepo) ListFirms(ctx context.Context) ([]domain.Firm, error)      { return f.firms, nil }
func (f *fakeRepo) ListLawyers(ctx context.Context) ([]domain.Lawyer, error)  { return f.lawyers, nil }
func (f *fakeRepo) ListLegalAreas(ctx context.Context) ([]domain.LegalArea, error) {
	return f.areas, nil
}
func (f *fakeRepo) InsertReviews(ctx context.Context, rs []domain.Review) error {
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
	for _, fm := range f.firms {
		if fm.ID == id {
			return domain.FirmView{Firm: fm}, nil
		}
	}
	return domain.FirmView{}, domain.ErrNotFound
}
func (f *fakeRepo) SearchFirms(ctx context.Context, q domain.FirmsQuery) (domain.FirmsPage, error) {
	out := domain.FirmsPage{Total: len(f.firms)}
	for _, fm := range f.firms {
		out.Items = append(out.Items, domain.FirmCard{Firm: fm})
	}
	return out, nil
}
func (f *fakeRepo) ReviewRatingCounts(ctx context.Context, firmID int64) ([5]int, error) {
	return [5]int{}, nil
}
func (f *fakeRepo) ListReviews(ctx context.Context, firmID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	return domain.ReviewsPage{}, nil
}
func (f *fakeRepo) ListAllReviews(ctx context.Context, pg domain.PageQuery) (domain.ReviewsPage, error) {
	return domain.ReviewsPage{}, nil
}

type nopCache struct{}

func (nopCache) Get(ctx context.Context, key string, dst any) (bool, error) { return false, nil }
func (nopCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	return nil
}
func (nopCache) Del(ctx context.Context, key string) error { return nil }

const (
	testSecret   = "test-secret"
	testEmail    = "admin@example.com"
	testPassword = "s3cret"
)

func newTestServer(t *testing.T, repo *fakeRepo) *httptest.Server {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	cache := nopCache{}
	srv := New()
	srv.MountHandlers(&Handlers{
		Q:     app.NewQueryService(repo, cache, time.Minute),
		Admin: app.NewAdminService(repo, cache),
		NewImporter: func(opts app.ImportOptions) *app.Importer {
			opts.Rand = rand.New(rand.NewSource(1))
			return app.NewImporter(repo, cache, opts)
		},
		Auth: AuthConfig{
			JWTSecret:     testSecret,
			AdminEmail:    testEmail,
			AdminPassHash: string(hash),
			TokenTTL:      time.Hour,
		},
		SubmitRPS:   100,
		SubmitBurst: 100,
	})

	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/admin/login", "",
		map[string]string{"email": testEmail, "password": testPassword})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var out map[string]string
	decodeBody(t, resp, &out)
	if out["token"] == "" {
		t.Fatal("empty token")
	}
	return out["token"]
}

func TestGetFirmETag(t *testing.T) {
	repo := &fakeRepo{firms: []domain.Firm{{ID: 1, Name: "Acme Law"}}}
	ts := newTestServer(t, repo)

	resp := doJSON(t, http.MethodGet, ts.URL+"/v1/firms/1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/firms/1", nil)
	req.Header.Set("If-None-Match", etag)
	again, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional get: %v", err)
	}
	defer again.Body.Close()
	if again.StatusCode != http.StatusNotModified {
		t.Fatalf("conditional status = %d, want 304", again.StatusCode)
	}
}

func TestGetFirmNotFound(t *testing.T) {
	ts := newTestServer(t, &fakeRepo{})
	resp := doJSON(t, http.MethodGet, ts.URL+"/v1/firms/99", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestSubmitReviewFlow(t *testing.T) {
	repo := &fakeRepo{firms: []domain.Firm{{ID: 1, Name: "Acme Law"}}}
	ts := newTestServer(t, repo)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/firms/1/reviews", "", map[string]any{
		"title": "Great Experience", "content": "All good.", "rating": 9,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad rating status = %d, want 422", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/v1/firms/1/reviews", "", map[string]any{
		"title": "Great Experience", "content": "All good.", "rating": 5,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var out map[string]any
	decodeBody(t, resp, &out)
	if out["status"] != domain.ReviewStatusPending {
		t.Fatalf("status field = %v, want pending", out["status"])
	}
	if len(repo.created) != 1 || repo.created[0].Status != domain.ReviewStatusPending {
		t.Fatalf("stored review: %+v", repo.created)
	}
}

func TestSubmitContactReturnsReference(t *testing.T) {
	repo := &fakeRepo{firms: []domain.Firm{{ID: 1, Name: "Acme Law"}}}
	ts := newTestServer(t, repo)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/firms/1/contact", "", map[string]any{
		"name": "Max Mustermann", "email": "max@example.com", "body": "Call me back.",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var out map[string]string
	decodeBody(t, resp, &out)
	if len(out["reference"]) != 36 {
		t.Fatalf("reference = %q, want uuid", out["reference"])
	}
}

func TestAdminRequiresToken(t *testing.T) {
	ts := newTestServer(t, &fakeRepo{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/admin/firms", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/admin/firms", "garbage", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", resp.StatusCode)
	}

	viewer, err := generateToken(testEmail, "viewer", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/admin/firms", viewer, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("viewer token status = %d, want 403", resp.StatusCode)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ts := newTestServer(t, &fakeRepo{})
	resp := doJSON(t, http.MethodPost, ts.URL+"/admin/login", "",
		map[string]string{"email": testEmail, "password": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAdminCRUDWithToken(t *testing.T) {
	repo := &fakeRepo{firms: []domain.Firm{{ID: 1, Name: "Acme Law"}}}
	ts := newTestServer(t, repo)
	token := login(t, ts)

	resp := doJSON(t, http.MethodGet, ts.URL+"/admin/firms", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list firms status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/admin/firms", token,
		map[string]string{"name": "Baker & Partner"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create firm status = %d", resp.StatusCode)
	}
}

func TestImportPreviewAndCommit(t *testing.T) {
	repo := &fakeRepo{firms: []domain.Firm{{ID: 1, Name: "Acme Law"}}}
	ts := newTestServer(t, repo)
	token := login(t, ts)

	text := "Acme Law | Great | Very helpful | 5 | JD | 2024-01-15 | 14:30 | | \n" +
		"Ghost Firm | Meh | So-so | 2 | XY\n" +
		"Acme Law | Bad rating | Nope | 9 | AB"

	resp := doJSON(t, http.MethodPost, ts.URL+"/admin/reviews/import/preview", token,
		map[string]any{"text": text})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview status = %d", resp.StatusCode)
	}
	var preview struct {
		Records []struct {
			Result struct {
				Valid  bool     `json:"valid"`
				Errors []string `json:"errors"`
			} `json:"result"`
		} `json:"records"`
	}
	decodeBody(t, resp, &preview)
	if len(preview.Records) != 3 {
		t.Fatalf("preview records = %d, want 3", len(preview.Records))
	}
	if !preview.Records[0].Result.Valid || preview.Records[2].Result.Valid {
		t.Fatalf("unexpected validity: %+v", preview.Records)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("preview must not insert")
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/admin/reviews/import", token,
		map[string]any{"text": text})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d", resp.StatusCode)
	}
	var out struct {
		Inserted     int      `json:"inserted"`
		Invalid      int      `json:"invalid"`
		MissingFirms []string `json:"missing_firms"`
		Notices      []string `json:"notices"`
	}
	decodeBody(t, resp, &out)
	if out.Inserted != 1 || out.Invalid != 1 || len(out.MissingFirms) != 1 {
		t.Fatalf("import outcome = %+v", out)
	}
	if len(out.Notices) != 1 || out.Notices[0] != "law firm not found: Ghost Firm" {
		t.Fatalf("notices = %v", out.Notices)
	}
	if len(repo.inserted) != 1 || len(repo.inserted[0]) != 1 {
		t.Fatalf("stored batches: %+v", repo.inserted)
	}
}

func TestRateLimitOnSubmissions(t *testing.T) {
	repo := &fakeRepo{firms: []domain.Firm{{ID: 1, Name: "Acme Law"}}}
	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	cache := nopCache{}
	srv := New()
	srv.MountHandlers(&Handlers{
		Q:     app.NewQueryService(repo, cache, time.Minute),
		Admin: app.NewAdminService(repo, cache),
		NewImporter: func(opts app.ImportOptions) *app.Importer {
			return app.NewImporter(repo, cache, opts)
		},
		Auth:        AuthConfig{JWTSecret: testSecret, AdminEmail: testEmail, AdminPassHash: string(hash), TokenTTL: time.Hour},
		SubmitRPS:   1,
		SubmitBurst: 1,
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)

	body := map[string]any{"title": "t", "content": "c", "rating": 5}
	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/firms/1/reviews", "", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first submit status = %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, ts.URL+"/v1/firms/1/reviews", "", body)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second submit status = %d, want 429", resp.StatusCode)
	}
}
