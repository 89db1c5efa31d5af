package entity

import (
	"fmt"
	"strings"
)

// Address is a validated shipping destination.
type Address struct {
	Street         string `json:"street"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	PostalCode     string `json:"postalCode"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

// NewAddress trims every field and requires all but AdditionalInfo.
func NewAddress(street, city, state, country, postalCode, additionalInfo string) (Address, error) {
	a := Address{
		Street:         strings.TrimSpace(street),
		City:           strings.TrimSpace(city),
		State:          strings.TrimSpace(state),
		Country:        strings.TrimSpace(country),
		PostalCode:     strings.TrimSpace(postalCode),
		AdditionalInfo: strings.TrimSpace(additionalInfo),
	}
	if err := a.Validate(); err != nil {
		return Address{}, err
	}
	return a, nil
}

// Validate reports the first missing required field.
func (a Address) Validate() error {
	required := []struct{ name, value string }{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"country", a.Country},
		{"postalCode", a.PostalCode},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrAddressValidation, f.name)
		}
	}
	return nil
}

func (a Address) String() string {
	parts := []string{a.Street, a.City, a.State, a.PostalCode, a.Country}
	return strings.Join(parts, ", ")
}
