package profiles

import "time"

// Profile is a user's public profile joined with its account fields.
type Profile struct {
	UserID       string    `json:"user"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Type         string    `json:"type"`
	Location     string    `json:"location"`
	Tel          string    `json:"tel"`
	Description  string    `json:"description"`
	WorkingHours string    `json:"working_hours"`
	File         string    `json:"file,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
