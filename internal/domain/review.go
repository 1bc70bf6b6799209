package domain

import "time"

const (
	ReviewStatusPublished = "published"
	ReviewStatusPending   = "pending"
)

type Review struct {
	ID          int64     `json:"id"`
	FirmID      int64     `json:"firm_id"`
	LawyerID    *int64    `json:"lawyer_id,omitempty"`
	LegalAreaID *int64    `json:"legal_area_id,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Rating      int       `json:"rating"` // 1..5
	Initials    string    `json:"initials"`
	AvatarColor string    `json:"avatar_color"`
	ReviewDate  *string   `json:"review_date,omitempty"` // YYYY-MM-DD
	ReviewTime  *string   `json:"review_time,omitempty"` // HH:MM
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type ContactMessage struct {
	ID        int64     `json:"id"`
	FirmID    int64     `json:"firm_id"`
	Reference string    `json:"reference"` // public handle returned to the sender
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   *string   `json:"subject,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
