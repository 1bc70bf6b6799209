package mysql

import (
	"context"
	"database/sql"
	"strings"

	"kanzlei_check/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
func nullInt64(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- firms ----

func (r *Repo) CreateFirm(ctx context.Context, f domain.Firm) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertFirmSQL,
		f.Name, valStr(f.City), valStr(f.Address), valStr(f.Phone),
		valStr(f.Email), valStr(f.Website), valStr(f.Description))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateFirm(ctx context.Context, f domain.Firm) error {
	_, err := r.db.ExecContext(ctx, updateFirmSQL,
		f.Name, valStr(f.City), valStr(f.Address), valStr(f.Phone),
		valStr(f.Email), valStr(f.Website), valStr(f.Description), f.ID)
	return err
}

func (r *Repo) DeleteFirm(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteFirmSQL, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Repo) ListFirms(ctx context.Context) ([]domain.Firm, error) {
	rows, err := r.db.QueryContext(ctx, listFirmsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Firm
	for rows.Next() {
		f, err := scanFirm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) GetFirm(ctx context.Context, id int64) (domain.FirmView, error) {
	row := r.db.QueryRowContext(ctx, getFirmSQL, id)
	f, err := scanFirm(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.FirmView{}, domain.ErrNotFound
		}
		return domain.FirmView{}, err
	}

	fv := domain.FirmView{Firm: f}
	rows, err := r.db.QueryContext(ctx, firmLawyersSQL, id)
	if err != nil {
		return domain.FirmView{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.Lawyer
		var title sql.NullString
		if err := rows.Scan(&l.ID, &l.FirmID, &l.Name, &title); err != nil {
			return domain.FirmView{}, err
		}
		l.Title = nullStr(title)
		fv.Lawyers = append(fv.Lawyers, l)
	}
	return fv, rows.Err()
}

func (r *Repo) SearchFirms(ctx context.Context, q domain.FirmsQuery) (domain.FirmsPage, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if q.Q != nil && *q.Q != "" {
		where = append(where, "f.name LIKE CONCAT('%', ?, '%')")
		args = append(args, *q.Q)
	}
	if q.AreaID != nil {
		where = append(where,
			"EXISTS (SELECT 1 FROM reviews ra WHERE ra.firm_id = f.id AND ra.legal_area_id = ? AND ra.status = 'published')")
		args = append(args, *q.AreaID)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM firms f"+cond, args...).Scan(&total); err != nil {
		return domain.FirmsPage{}, err
	}

	listSQL := `
SELECT f.id, f.name, f.city, f.address, f.phone, f.email, f.website, f.description,
       COUNT(rv.id), COALESCE(AVG(rv.rating), 0)
FROM firms f
LEFT JOIN reviews rv ON rv.firm_id = f.id AND rv.status = 'published'` +
		cond + `
GROUP BY f.id
ORDER BY f.name
LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, listSQL, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return domain.FirmsPage{}, err
	}
	defer rows.Close()

	var items []domain.FirmCard
	for rows.Next() {
		var c domain.FirmCard
		var city, address, phone, email, website, desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &city, &address, &phone, &email,
			&website, &desc, &c.ReviewCount, &c.AvgRating); err != nil {
			return domain.FirmsPage{}, err
		}
		c.City = nullStr(city)
		c.Address = nullStr(address)
		c.Phone = nullStr(phone)
		c.Email = nullStr(email)
		c.Website = nullStr(website)
		c.Description = nullStr(desc)
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return domain.FirmsPage{}, err
	}
	return domain.FirmsPage{Items: items, Total: total}, nil
}

// ---- lawyers ----

func (r *Repo) CreateLawyer(ctx context.Context, l domain.Lawyer) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertLawyerSQL, l.FirmID, l.Name, valStr(l.Title))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateLawyer(ctx context.Context, l domain.Lawyer) error {
	_, err := r.db.ExecContext(ctx, updateLawyerSQL, l.FirmID, l.Name, valStr(l.Title), l.ID)
	return err
}

func (r *Repo) DeleteLawyer(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteLawyerSQL, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Repo) ListLawyers(ctx context.Context) ([]domain.Lawyer, error) {
	rows, err := r.db.QueryContext(ctx, listLawyersSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lawyer
	for rows.Next() {
		var l domain.Lawyer
		var title sql.NullString
		if err := rows.Scan(&l.ID, &l.FirmID, &l.Name, &title); err != nil {
			return nil, err
		}
		l.Title = nullStr(title)
		out = append(out, l)
	}
	return out, rows.Err()
}

// ---- legal areas ----

func (r *Repo) CreateLegalArea(ctx context.Context, a domain.LegalArea) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertLegalAreaSQL, a.Name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateLegalArea(ctx context.Context, a domain.LegalArea) error {
	_, err := r.db.ExecContext(ctx, updateLegalAreaSQL, a.Name, a.ID)
	return err
}

func (r *Repo) DeleteLegalArea(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteLegalAreaSQL, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Repo) ListLegalAreas(ctx context.Context) ([]domain.LegalArea, error) {
	rows, err := r.db.QueryContext(ctx, listLegalAreasSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LegalArea
	for rows.Next() {
		var a domain.LegalArea
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ---- reviews ----

func (r *Repo) InsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*12)
	for _, rv := range rs {
		values = append(values, insertReviewTuple)
		args = append(args,
			rv.FirmID,
			valInt64(rv.LawyerID),
			valInt64(rv.LegalAreaID),
			rv.Title,
			rv.Content,
			rv.Rating,
			rv.Initials,
			rv.AvatarColor,
			valStr(rv.ReviewDate),
			valStr(rv.ReviewTime),
			rv.Status,
			nil, // created_at param to COALESCE
		)
	}
	_, err := r.db.ExecContext(ctx, insertReviewsPrefix+strings.Join(values, ","), args...)
	return err
}

func (r *Repo) CreateReview(ctx context.Context, rv domain.Review) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertReviewsPrefix+insertReviewTuple,
		rv.FirmID, valInt64(rv.LawyerID), valInt64(rv.LegalAreaID),
		rv.Title, rv.Content, rv.Rating, rv.Initials, rv.AvatarColor,
		valStr(rv.ReviewDate), valStr(rv.ReviewTime), rv.Status, nil)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateReview(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx, updateReviewSQL,
		rv.FirmID, valInt64(rv.LawyerID), valInt64(rv.LegalAreaID),
		rv.Title, rv.Content, rv.Rating, rv.Initials,
		valStr(rv.ReviewDate), valStr(rv.ReviewTime), rv.Status, rv.ID)
	return err
}

func (r *Repo) DeleteReview(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteReviewSQL, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Repo) SetReviewStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx, setReviewStatusSQL, status, id)
	return err
}

func (r *Repo) ListReviews(ctx context.Context, firmID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, countReviewsSQL, firmID).Scan(&total); err != nil {
		return domain.ReviewsPage{}, err
	}
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, firmID, pg.Limit, pg.Offset)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	items, err := scanReviews(rows)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: items, Total: total}, nil
}

func (r *Repo) ListAllReviews(ctx context.Context, pg domain.PageQuery) (domain.ReviewsPage, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, countAllReviewsSQL).Scan(&total); err != nil {
		return domain.ReviewsPage{}, err
	}
	rows, err := r.db.QueryContext(ctx, listAllReviewsSQL, pg.Limit, pg.Offset)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	items, err := scanReviews(rows)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: items, Total: total}, nil
}

func (r *Repo) ReviewRatingCounts(ctx context.Context, firmID int64) ([5]int, error) {
	var counts [5]int
	rows, err := r.db.QueryContext(ctx, ratingCountsSQL, firmID)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return counts, err
		}
		if rating >= 1 && rating <= 5 {
			counts[rating-1] = n
		}
	}
	return counts, rows.Err()
}

// ---- contact messages ----

func (r *Repo) CreateContactMessage(ctx context.Context, m domain.ContactMessage) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertContactSQL,
		m.FirmID, m.Reference, m.Name, m.Email, valStr(m.Subject), m.Body)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ---- scan helpers ----

type rowScanner interface{ Scan(dst ...any) error }

func scanFirm(row rowScanner) (domain.Firm, error) {
	var f domain.Firm
	var city, address, phone, email, website, desc sql.NullString
	if err := row.Scan(&f.ID, &f.Name, &city, &address, &phone, &email, &website, &desc); err != nil {
		return domain.Firm{}, err
	}
	f.City = nullStr(city)
	f.Address = nullStr(address)
	f.Phone = nullStr(phone)
	f.Email = nullStr(email)
	f.Website = nullStr(website)
	f.Description = nullStr(desc)
	return f, nil
}

func scanReviews(rows *sql.Rows) ([]domain.Review, error) {
	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var lawyerID, areaID sql.NullInt64
		var date, tm sql.NullString
		if err := rows.Scan(
			&rv.ID, &rv.FirmID, &lawyerID, &areaID, &rv.Title, &rv.Content,
			&rv.Rating, &rv.Initials, &rv.AvatarColor, &date, &tm,
			&rv.Status, &rv.CreatedAt,
		); err != nil {
			return nil, err
		}
		rv.LawyerID = nullInt64(lawyerID)
		rv.LegalAreaID = nullInt64(areaID)
		rv.ReviewDate = nullStr(date)
		rv.ReviewTime = nullStr(tm)
		out = append(out, rv)
	}
	return out, rows.Err()
}

// requireRow maps a zero-row DELETE to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
