package cart

import (
	"encoding/json"

	cartsvc "github.com/angelmondragon/merch-checkout/internal/cart"
)

type CartItem struct {
	Index     int         `json:"index"`
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Label     string      `json:"label"`
	Price     json.Number `json:"price"`
	Image     string      `json:"image,omitempty"`
	Size      string      `json:"size,omitempty"`
	Quantity  int         `json:"quantity"`
	LineTotal json.Number `json:"lineTotal"`
}

type CartResponse struct {
	Items     []CartItem  `json:"items"`
	ItemCount int         `json:"itemCount"`
	Subtotal  json.Number `json:"subtotal"`
}

func newCartResponse(snap cartsvc.Snapshot) CartResponse {
	items := make([]CartItem, 0, len(snap.Items))
	for i, item := range snap.Items {
		items = append(items, CartItem{
			Index:     i,
			ID:        item.ID,
			Name:      item.Name,
			Label:     item.Label(),
			Price:     json.Number(item.Price.StringFixed(2)),
			Image:     item.Image,
			Size:      item.Size,
			Quantity:  item.Quantity,
			LineTotal: json.Number(item.LineTotal().StringFixed(2)),
		})
	}
	return CartResponse{
		Items:     items,
		ItemCount: snap.ItemCount,
		Subtotal:  json.Number(snap.Subtotal.StringFixed(2)),
	}
}
