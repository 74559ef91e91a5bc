package types

import "strings"

// DefaultCountry is applied to addresses submitted without a country.
const DefaultCountry = "US"

// Address is a postal address collected during checkout.
type Address struct {
	Name     string `json:"fullName"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

// Normalized returns a copy with whitespace trimmed and the default country applied.
func (a Address) Normalized() Address {
	out := Address{
		Name:     strings.TrimSpace(a.Name),
		Address1: strings.TrimSpace(a.Address1),
		Address2: strings.TrimSpace(a.Address2),
		City:     strings.TrimSpace(a.City),
		State:    strings.TrimSpace(a.State),
		Zip:      strings.TrimSpace(a.Zip),
		Country:  strings.ToUpper(strings.TrimSpace(a.Country)),
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}

// Contact holds the shopper's reachability details.
type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}
