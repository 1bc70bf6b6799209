package domain

type Firm struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	City        *string `json:"city,omitempty"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
	Website     *string `json:"website,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Lawyer belongs to exactly one firm.
type Lawyer struct {
	ID     int64   `json:"id"`
	FirmID int64   `json:"firm_id"`
	Name   string  `json:"name"`
	Title  *string `json:"title,omitempty"`
}

// LegalArea is a practice-area tag, e.g. "Verkehrsrecht".
type LegalArea struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
