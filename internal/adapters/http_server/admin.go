package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"kanzlei_check/internal/adapters/observability"
	"kanzlei_check/internal/app"
	"kanzlei_check/internal/domain"
)

func (h *Handlers) mountAdmin(r chi.Router) {
	r.Get("/firms", h.adminListFirms)
	r.Post("/firms", h.createFirm)
	r.Put("/firms/{id}", h.updateFirm)
	r.Delete("/firms/{id}", h.deleteFirm)

	r.Get("/lawyers", h.adminListLawyers)
	r.Post("/lawyers", h.createLawyer)
	r.Put("/lawyers/{id}", h.updateLawyer)
	r.Delete("/lawyers/{id}", h.deleteLawyer)

	r.Get("/legal-areas", h.adminListLegalAreas)
	r.Post("/legal-areas", h.createLegalArea)
	r.Put("/legal-areas/{id}", h.updateLegalArea)
	r.Delete("/legal-areas/{id}", h.deleteLegalArea)

	r.Get("/reviews", h.adminListReviews)
	r.Post("/reviews", h.createReview)
	r.Put("/reviews/{id}", h.updateReview)
	r.Delete("/reviews/{id}", h.deleteReview)
	r.Post("/reviews/{id}/approve", h.approveReview)

	r.Post("/reviews/import/preview", h.importPreview)
	r.Post("/reviews/import", h.importReviews)
}

// ---- login ----

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	if h.Auth.JWTSecret == "" || h.Auth.AdminEmail == "" || h.Auth.AdminPassHash == "" {
		writeProblem(w, http.StatusServiceUnavailable, "Unavailable", "admin access is not configured")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}
	if req.Email != h.Auth.AdminEmail ||
		bcrypt.CompareHashAndPassword([]byte(h.Auth.AdminPassHash), []byte(req.Password)) != nil {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}
	token, err := generateToken(req.Email, roleAdmin, h.Auth.JWTSecret, h.Auth.TokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("token generation failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ---- bulk import ----

type importRequest struct {
	Text   string `json:"text" validate:"required"`
	Strict *bool  `json:"strict"`
}

type recordPreview struct {
	Record app.ParsedReview     `json:"record"`
	Result app.ValidationResult `json:"result"`
}

func (h *Handlers) newImporterFor(req importRequest, notify app.Notifier) *app.Importer {
	opts := app.ImportOptions{Notify: notify}
	if req.Strict != nil {
		opts.Strict = *req.Strict
	}
	return h.NewImporter(opts)
}

// importPreview runs parse+validate only, so the operator can inspect
// per-record pass/fail before committing anything.
func (h *Handlers) importPreview(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	imp := h.newImporterFor(req, nil)
	imp.Parse(req.Text)

	records, results := imp.Records(), imp.Results()
	previews := make([]recordPreview, len(records))
	for i := range records {
		previews[i] = recordPreview{Record: records[i], Result: results[i]}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records":     previews,
		"line_errors": imp.LineErrors(),
	})
}

func (h *Handlers) importReviews(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return
	}

	var notices []string
	imp := h.newImporterFor(req, func(msg string) { notices = append(notices, msg) })
	imp.Parse(req.Text)

	out, err := imp.Import(r.Context())
	if err != nil {
		// backend errors are surfaced verbatim; the operator retries
		writeProblem(w, http.StatusBadGateway, "Import failed", err.Error())
		return
	}
	observability.ObserveImport("inserted", out.Inserted)
	observability.ObserveImport("invalid", out.Invalid)
	observability.ObserveImport("missing_firm", len(out.MissingFirms))

	writeJSON(w, http.StatusOK, map[string]any{
		"inserted":      out.Inserted,
		"invalid":       out.Invalid,
		"missing_firms": out.MissingFirms,
		"notices":       notices,
		"line_errors":   imp.LineErrors(),
	})
}

// ---- firms ----

type firmPayload struct {
	Name        string  `json:"name" validate:"required"`
	City        *string `json:"city"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Website     *string `json:"website"`
	Description *string `json:"description"`
}

func (p firmPayload) toDomain(id int64) domain.Firm {
	return domain.Firm{
		ID: id, Name: p.Name, City: p.City, Address: p.Address,
		Phone: p.Phone, Email: p.Email, Website: p.Website, Description: p.Description,
	}
}

func (h *Handlers) adminListFirms(w http.ResponseWriter, r *http.Request) {
	firms, err := h.Admin.ListFirms(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("admin list firms failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "listing firms failed")
		return
	}
	writeJSON(w, http.StatusOK, firms)
}

func (h *Handlers) createFirm(w http.ResponseWriter, r *http.Request) {
	var p firmPayload
	if !h.decodeValid(w, r, &p) {
		return
	}
	id, err := h.Admin.CreateFirm(r.Context(), p.toDomain(0))
	if err != nil {
		log.Error().Err(err).Msg("create firm failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "creating firm failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handlers) updateFirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var p firmPayload
	if !h.decodeValid(w, r, &p) {
		return
	}
	if err := h.Admin.UpdateFirm(r.Context(), p.toDomain(id)); err != nil {
		h.writeCommandError(w, err, "updating firm failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) deleteFirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Admin.DeleteFirm(r.Context(), id); err != nil {
		h.writeCommandError(w, err, "deleting firm failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- lawyers ----

type lawyerPayload struct {
	FirmID int64   `json:"firm_id" validate:"required"`
	Name   string  `json:"name" validate:"required"`
	Title  *string `json:"title"`
}

func (h *Handlers) adminListLawyers(w http.ResponseWriter, r *http.Request) {
	lawyers, err := h.Admin.ListLawyers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("admin list lawyers failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "listing lawyers failed")
		return
	}
	writeJSON(w, http.StatusOK, lawyers)
}

func (h *Handlers) createLawyer(w http.ResponseWriter, r *http.Request) {
	var p lawyerPayload
	if !h.decodeValid(w, r, &p) {
		return
	}
	id, err := h.Admin.CreateLawyer(r.Context(), domain.Lawyer{FirmID: p.FirmID, Name: p.Name, Title: p.Title})
	if err != nil {
		log.Error().Err(err).Msg("create lawyer failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "creating lawyer failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handlers) updateLawyer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var p lawyerPayload
	if !h.decodeValid(w, r, &p) {
		return
	}
	if err := h.Admin.UpdateLawyer(r.Context(), domain.Lawyer{ID: id, FirmID: p.FirmID, Name: p.Name, Title: p.Title}); err != nil {
		h.writeCommandError(w, err, "updating lawyer failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) deleteLawyer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Admin.DeleteLawyer(r.Context(), id, queryInt64(r, "firm_id")); err != nil {
		h.writeCommandError(w, err, "deleting lawyer failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- legal areas ----

type areaPayload struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handlers) adminListLegalAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.Admin.ListLegalAreas(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("admin list legal areas failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "listing legal areas failed")
		return
	}
	writeJSON(w, http.StatusOK, areas)
}

func (h *Handlers) createLegalArea(w http.ResponseWriter, r *http.Request) {
	var p areaPayload
	if !h.decodeValid(w, r, &p) {
		return
	}
	id, err := h.Admin.CreateLegalArea(r.Context(), domain.LegalArea{Name: p.Name})
	if err != nil {
		log.Error().Err(err).Msg("create legal area failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "creating legal area failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handlers) updateLegalArea(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var p areaPayload
	if !h.decodeValid(w, r, &p) {
		return
	}
	if err := h.Admin.UpdateLegalArea(r.Context(), domain.LegalArea{ID: id, Name: p.Name}); err != nil {
		h.writeCommandError(w, err, "updating legal area failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) deleteLegalArea(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Admin.DeleteLegalArea(r.Context(), id); err != nil {
		h.writeCommandError(w, err, "deleting legal area failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- reviews ----

type reviewPayload struct {
	FirmID      int64   `json:"firm_id" validate:"required"`
	LawyerID    *int64  `json:"lawyer_id"`
	LegalAreaID *int64  `json:"legal_area_id"`
	Title       string  `json:"title" validate:"required"`
	Content     string  `json:"content" validate:"required"`
	Rating      int     `json:"rating" validate:"required,min=1,max=5"`
	Initials    string  `json:"initials" validate:"required,max=4"`
	ReviewDate  *string `json:"review_date" validate:"omitempty,datetime=2006-01-02"`
	ReviewTime  *string `json:"review_time" validate:"omitempty,datetime=15:04"`
	Status      string  `json:"status" validate:"omitempty,oneof=published pending"`
}

func (p reviewPayload) toDomain(id int64) domain.Review {
	return domain.Review{
		ID: id, FirmID: p.FirmID, LawyerID: p.LawyerID, LegalAreaID: p.LegalAreaID,
		Title: p.Title, Content: p.Content, Rating: p.Rating, Initials: p.Initials,
		ReviewDate: p.ReviewDate, ReviewTime: p.ReviewTime, Status: p.Status,
	}
}

func (h *Handlers) adminListReviews(w http.ResponseWriter, r *http.Request) {
	pg, ok := pageFromQuery(r, 50)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid paging", "limit must be 1..200, offset >= 0")
		return
	}
	out, err := h.Admin.ListAllReviews(r.Context(), pg)
	if err != nil {
		log.Error().Err(err).Msg("admin list reviews failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "listing reviews failed")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	var p reviewPayload
	if !h.decodeValid(w, r, &p) {
		return
	}
	id, err := h.Admin.CreateReview(r.Context(), p.toDomain(0))
	if err != nil {
		log.Error().Err(err).Msg("create review failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "creating review failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var p reviewPayload
	if !h.decodeValid(w, r, &p) {
		return
	}
	rv := p.toDomain(id)
	if rv.Status == "" {
		rv.Status = domain.ReviewStatusPublished
	}
	if err := h.Admin.UpdateReview(r.Context(), rv); err != nil {
		h.writeCommandError(w, err, "updating review failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Admin.DeleteReview(r.Context(), id, queryInt64(r, "firm_id")); err != nil {
		h.writeCommandError(w, err, "deleting review failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) approveReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Admin.ApproveReview(r.Context(), id, queryInt64(r, "firm_id")); err != nil {
		h.writeCommandError(w, err, "approving review failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- shared helpers ----

func (h *Handlers) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "malformed JSON")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return false
	}
	return true
}

func (h *Handlers) writeCommandError(w http.ResponseWriter, err error, detail string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no such record")
		return
	}
	log.Error().Err(err).Msg(detail)
	writeProblem(w, http.StatusInternalServerError, "Internal Error", detail)
}

// queryInt64 returns the int64 query param or 0; used for cache hints.
func queryInt64(r *http.Request, key string) int64 {
	n, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return n
}
