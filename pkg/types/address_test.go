package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressNormalized(t *testing.T) {
	addr := Address{
		Name:     "  Ada Lovelace ",
		Address1: "1 Analytical Way",
		City:     " London",
		State:    "LDN ",
		Zip:      " 12345",
		Country:  " ca",
	}

	got := addr.Normalized()
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "London", got.City)
	assert.Equal(t, "LDN", got.State)
	assert.Equal(t, "12345", got.Zip)
	assert.Equal(t, "CA", got.Country)
}

func TestAddressNormalizedDefaultsCountry(t *testing.T) {
	got := Address{Name: "Ada"}.Normalized()
	assert.Equal(t, DefaultCountry, got.Country)
}
