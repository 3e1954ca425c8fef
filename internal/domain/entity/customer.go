package entity

import "time"

// Customer is the invoice recipient (buyer party in the e-invoice XML).
type Customer struct {
	ID        string
	CompanyID string
	Name      string
	Street    string
	ZIP       string
	City      string
	CountryID string // ISO 3166-1 alpha-2
	VATID     string // optional
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
