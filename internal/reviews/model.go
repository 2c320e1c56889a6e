package reviews

import "time"

type Review struct {
	ID           string    `json:"id"`
	BusinessUser string    `json:"business_user"`
	Reviewer     string    `json:"reviewer"`
	Rating       int       `json:"rating"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
