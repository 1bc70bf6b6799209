package mysql

// ---------------------------------------------------------------------------
// FIRMS
// ---------------------------------------------------------------------------

const insertFirmSQL = `
INSERT INTO firms (name, city, address, phone, email, website, description)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const updateFirmSQL = `
UPDATE firms SET
  name        = ?,
  city        = ?,
  address     = ?,
  phone       = ?,
  email       = ?,
  website     = ?,
  description = ?,
  updated_at  = CURRENT_TIMESTAMP
WHERE id = ?
`

const deleteFirmSQL = `DELETE FROM firms WHERE id = ?`

const getFirmSQL = `
SELECT id, name, city, address, phone, email, website, description
FROM firms
WHERE id = ?
`

const firmLawyersSQL = `
SELECT id, firm_id, name, title
FROM lawyers
WHERE firm_id = ?
ORDER BY name
`

// Reference snapshot for the importer: every firm, name order.
const listFirmsSQL = `
SELECT id, name, city, address, phone, email, website, description
FROM firms
ORDER BY name
`

// ---------------------------------------------------------------------------
// LAWYERS
// ---------------------------------------------------------------------------

const insertLawyerSQL = `INSERT INTO lawyers (firm_id, name, title) VALUES (?, ?, ?)`

const updateLawyerSQL = `UPDATE lawyers SET firm_id = ?, name = ?, title = ? WHERE id = ?`

const deleteLawyerSQL = `DELETE FROM lawyers WHERE id = ?`

const listLawyersSQL = `
SELECT id, firm_id, name, title
FROM lawyers
ORDER BY firm_id, name
`

// ---------------------------------------------------------------------------
// LEGAL AREAS
// ---------------------------------------------------------------------------

const insertLegalAreaSQL = `INSERT INTO legal_areas (name) VALUES (?)`

const updateLegalAreaSQL = `UPDATE legal_areas SET name = ? WHERE id = ?`

const deleteLegalAreaSQL = `DELETE FROM legal_areas WHERE id = ?`

const listLegalAreasSQL = `SELECT id, name FROM legal_areas ORDER BY name`

// ---------------------------------------------------------------------------
// REVIEWS
// ---------------------------------------------------------------------------

// Multi-row insert; value tuples are appended per record in the repo.
// created_at is COALESCE(?, CURRENT_TIMESTAMP) to allow "unknown" timestamps.
const insertReviewsPrefix = `INSERT INTO reviews
  (firm_id, lawyer_id, legal_area_id, title, content, rating, initials, avatar_color, review_date, review_time, status, created_at)
VALUES `

const insertReviewTuple = "(?,?,?,?,?,?,?,?,?,?,?,COALESCE(?, CURRENT_TIMESTAMP))"

const updateReviewSQL = `
UPDATE reviews SET
  firm_id       = ?,
  lawyer_id     = ?,
  legal_area_id = ?,
  title         = ?,
  content       = ?,
  rating        = ?,
  initials      = ?,
  review_date   = ?,
  review_time   = ?,
  status        = ?
WHERE id = ?
`

const deleteReviewSQL = `DELETE FROM reviews WHERE id = ?`

const setReviewStatusSQL = `UPDATE reviews SET status = ? WHERE id = ?`

const listReviewsSQL = `
SELECT id, firm_id, lawyer_id, legal_area_id, title, content, rating, initials,
       avatar_color, review_date, review_time, status, created_at
FROM reviews
WHERE firm_id = ? AND status = 'published'
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`

const countReviewsSQL = `
SELECT COUNT(*) FROM reviews WHERE firm_id = ? AND status = 'published'
`

const listAllReviewsSQL = `
SELECT id, firm_id, lawyer_id, legal_area_id, title, content, rating, initials,
       avatar_color, review_date, review_time, status, created_at
FROM reviews
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`

const countAllReviewsSQL = `SELECT COUNT(*) FROM reviews`

const ratingCountsSQL = `
SELECT rating, COUNT(*)
FROM reviews
WHERE firm_id = ? AND status = 'published'
GROUP BY rating
`

// ---------------------------------------------------------------------------
// CONTACT MESSAGES
// ---------------------------------------------------------------------------

const insertContactSQL = `
INSERT INTO contact_messages (firm_id, reference, name, email, subject, body)
VALUES (?, ?, ?, ?, ?, ?)
`
