package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/merch-checkout/api/validators"
	cartsvc "github.com/angelmondragon/merch-checkout/internal/cart"
)

// AddItemRequest is a product added from the storefront. The id may be omitted when a
// name is given; one is derived from name and size.
type AddItemRequest struct {
	ID       string          `json:"id" validate:"omitempty,max=128"`
	Name     string          `json:"name" validate:"required_without=ID,max=200"`
	Price    decimal.Decimal `json:"price" validate:"gt=0"`
	Image    string          `json:"image" validate:"omitempty,max=512"`
	Size     string          `json:"size" validate:"omitempty,max=32"`
	Quantity int             `json:"quantity" validate:"min=0,max=999"`
}

func toItem(payload AddItemRequest) cartsvc.Item {
	name := validators.SanitizeString(payload.Name, 200)
	size := validators.SanitizeString(payload.Size, 32)
	id := validators.SanitizeString(payload.ID, 128)
	if id == "" && name != "" {
		id = cartsvc.GenerateItemID(name, size)
	}
	return cartsvc.Item{
		ID:       id,
		Name:     name,
		Price:    payload.Price,
		Image:    validators.SanitizeString(payload.Image, 512),
		Size:     size,
		Quantity: payload.Quantity,
	}
}
