package offers

import "time"

// Offer is a published service offer with its three package tiers.
// min_price and min_delivery_time are derived from the details and
// rewritten whenever the detail set changes.
type Offer struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user"`
	Title           string        `json:"title"`
	Image           string        `json:"image,omitempty"`
	Description     string        `json:"description"`
	MinPrice        float64       `json:"min_price"`
	MinDeliveryTime int           `json:"min_delivery_time"`
	Details         []OfferDetail `json:"details"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// OfferDetail is one package tier of an offer.
type OfferDetail struct {
	ID                 string    `json:"id"`
	OfferID            string    `json:"offer"`
	Title              string    `json:"title"`
	Revisions          int       `json:"revisions"`
	Price              float64   `json:"price"`
	DeliveryTimeInDays int       `json:"delivery_time_in_days"`
	Features           []string  `json:"features"`
	OfferType          string    `json:"offer_type"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DetailInput is the payload shape for creating or replacing a detail.
type DetailInput struct {
	Title              string   `json:"title"`
	Revisions          int      `json:"revisions"`
	Price              float64  `json:"price"`
	DeliveryTimeInDays int      `json:"delivery_time_in_days"`
	Features           []string `json:"features"`
	OfferType          string   `json:"offer_type"`
}
