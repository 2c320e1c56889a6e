package orders

import "time"

// Order is a snapshot copy of the chosen offer detail taken at creation
// time. Apart from status, no field ever changes after the insert, so later
// edits or deletion of the offer never touch existing orders.
type Order struct {
	ID                 string    `json:"id"`
	CustomerUser       string    `json:"customer_user"`
	BusinessUser       string    `json:"business_user"`
	Title              string    `json:"title"`
	Revisions          int       `json:"revisions"`
	DeliveryTimeInDays int       `json:"delivery_time_in_days"`
	Price              float64   `json:"price"`
	Features           []string  `json:"features"`
	OfferType          string    `json:"offer_type"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
