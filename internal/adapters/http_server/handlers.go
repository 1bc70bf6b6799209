package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"kanzlei_check/internal/app"
	"kanzlei_check/internal/domain"
)

type AuthConfig struct {
	JWTSecret     string
	AdminEmail    string
	AdminPassHash string // bcrypt
	TokenTTL      time.Duration
}

type Handlers struct {
	Q     *app.QueryService
	Admin *app.AdminService
	// NewImporter builds a fresh importer per request; preview and import
	// are each a single attempt.
	NewImporter func(opts app.ImportOptions) *app.Importer
	Auth        AuthConfig
	SubmitRPS   int
	SubmitBurst int

	validate *validator.Validate
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	h.validate = validator.New()

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/firms", h.listFirms)
		r.Get("/firms/{id}", h.getFirm)
		r.Get("/firms/{id}/reviews", h.listFirmReviews)
		r.Get("/legal-areas", h.listLegalAreas)

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(h.SubmitRPS, h.SubmitBurst))
			r.Post("/firms/{id}/reviews", h.submitReview)
			r.Post("/firms/{id}/contact", h.submitContact)
		})
	})

	s.mux.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(h.Auth.JWTSecret))
			h.mountAdmin(r)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached sends v with an ETag, short-circuiting to 304 when the client
// already holds the current version.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func pageFromQuery(r *http.Request, defLimit int) (domain.PageQuery, bool) {
	pg := domain.PageQuery{Limit: defLimit}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			return pg, false
		}
		pg.Limit = l
	}
	if os := r.URL.Query().Get("offset"); os != "" {
		o, err := strconv.Atoi(os)
		if err != nil || o < 0 {
			return pg, false
		}
		pg.Offset = o
	}
	return pg, true
}

// ---- public reads ----

func (h *Handlers) listFirms(w http.ResponseWriter, r *http.Request) {
	pg, ok := pageFromQuery(r, 20)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid paging", "limit must be 1..200, offset >= 0")
		return
	}
	q := domain.FirmsQuery{Limit: pg.Limit, Offset: pg.Offset}
	if s := r.URL.Query().Get("q"); s != "" {
		q.Q = &s
	}
	if s := r.URL.Query().Get("area"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid area", "area must be a legal area id")
			return
		}
		q.AreaID = &id
	}
	out, err := h.Q.SearchFirms(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("list firms failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "listing firms failed")
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) getFirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	fv, err := h.Q.GetFirm(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "firm not found")
			return
		}
		log.Error().Err(err).Int64("id", id).Msg("get firm failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "loading firm failed")
		return
	}
	writeCached(w, r, fv)
}

func (h *Handlers) listFirmReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	pg, ok := pageFromQuery(r, 20)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid paging", "limit must be 1..200, offset >= 0")
		return
	}
	out, err := h.Q.ListReviews(r.Context(), id, pg)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("list reviews failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "listing reviews failed")
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) listLegalAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.Q.ListLegalAreas(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list legal areas failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "listing legal areas failed")
		return
	}
	writeCached(w, r, areas)
}

// ---- public submissions ----

type reviewSubmission struct {
	Title       string  `json:"title" validate:"required"`
	Content     string  `json:"content" validate:"required"`
	Rating      int     `json:"rating" validate:"required,min=1,max=5"`
	Initials    string  `json:"initials" validate:"max=4"`
	LawyerID    *int64  `json:"lawyer_id"`
	LegalAreaID *int64  `json:"legal_area_id"`
	ReviewDate  *string `json:"review_date" validate:"omitempty,datetime=2006-01-02"`
	ReviewTime  *string `json:"review_time" validate:"omitempty,datetime=15:04"`
}

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	firmID, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req reviewSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}
	id, err := h.Admin.SubmitReview(r.Context(), domain.Review{
		FirmID:      firmID,
		LawyerID:    req.LawyerID,
		LegalAreaID: req.LegalAreaID,
		Title:       req.Title,
		Content:     req.Content,
		Rating:      req.Rating,
		Initials:    req.Initials,
		ReviewDate:  req.ReviewDate,
		ReviewTime:  req.ReviewTime,
	})
	if err != nil {
		log.Error().Err(err).Int64("firm_id", firmID).Msg("submit review failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "storing review failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "status": domain.ReviewStatusPending})
}

type contactSubmission struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email"`
	Subject *string `json:"subject"`
	Body    string  `json:"body" validate:"required"`
}

func (h *Handlers) submitContact(w http.ResponseWriter, r *http.Request) {
	firmID, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req contactSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}
	ref, err := h.Admin.SubmitContact(r.Context(), domain.ContactMessage{
		FirmID:  firmID,
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		log.Error().Err(err).Int64("firm_id", firmID).Msg("submit contact failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "storing message failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"reference": ref})
}
