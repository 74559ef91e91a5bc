package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is one line of the shopper's cart.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Size     string          `json:"size,omitempty"`
	Quantity int             `json:"quantity"`
}

type itemKey struct {
	id   string
	size string
}

func (i Item) key() itemKey {
	return itemKey{id: i.ID, size: i.Size}
}

// LineTotal is price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Label renders the line the way the order summary shows it, e.g. "Tour Tee (M) × 2".
func (i Item) Label() string {
	if i.Size == "" {
		return fmt.Sprintf("%s × %d", i.Name, i.Quantity)
	}
	return fmt.Sprintf("%s (%s) × %d", i.Name, i.Size, i.Quantity)
}

// Snapshot is the read-only view published after every cart change.
type Snapshot struct {
	Items     []Item          `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"itemCount"`
}

func subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func itemCount(items []Item) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
