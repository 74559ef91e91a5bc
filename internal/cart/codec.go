package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// persistedItem is the stored layout. Price and quantity are plain JSON numbers.
type persistedItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image,omitempty"`
	Size     string      `json:"size,omitempty"`
	Quantity json.Number `json:"quantity"`
}

func encodeItems(items []Item) (string, error) {
	out := make([]persistedItem, len(items))
	for i, item := range items {
		out[i] = persistedItem{
			ID:       item.ID,
			Name:     item.Name,
			Price:    json.Number(item.Price.String()),
			Image:    item.Image,
			Size:     item.Size,
			Quantity: json.Number(fmt.Sprint(item.Quantity)),
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(data), nil
}

// decodeItems parses a stored cart. A malformed document returns a non-nil fatal error.
// Individual records that fail the shape check are skipped and reported in dropped.
func decodeItems(raw string) (items []Item, dropped error, fatal error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var records []json.RawMessage
	if err := dec.Decode(&records); err != nil {
		return nil, nil, fmt.Errorf("decode cart: %w", err)
	}
	if dec.More() {
		return nil, nil, fmt.Errorf("decode cart: trailing data")
	}

	items = make([]Item, 0, len(records))
	for i, raw := range records {
		item, err := itemFromRaw(raw)
		if err != nil {
			dropped = multierr.Append(dropped, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	return items, dropped, nil
}

func itemFromRaw(raw json.RawMessage) (Item, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return Item{}, fmt.Errorf("not an object")
	}

	var id string
	switch v := rec["id"].(type) {
	case string:
		id = v
	case json.Number:
		id = v.String()
	}
	if id == "" {
		return Item{}, fmt.Errorf("missing id")
	}

	priceNum, ok := rec["price"].(json.Number)
	if !ok {
		return Item{}, fmt.Errorf("price is not a number")
	}
	price, err := decimal.NewFromString(priceNum.String())
	if err != nil || !price.IsPositive() {
		return Item{}, fmt.Errorf("price %q is not positive", priceNum)
	}

	qtyNum, ok := rec["quantity"].(json.Number)
	if !ok {
		return Item{}, fmt.Errorf("quantity is not a number")
	}
	qty, err := qtyNum.Int64()
	if err != nil || qty < 1 {
		return Item{}, fmt.Errorf("quantity %q is not a positive integer", qtyNum)
	}

	name, _ := rec["name"].(string)
	image, _ := rec["image"].(string)
	size, _ := rec["size"].(string)

	return Item{
		ID:       id,
		Name:     name,
		Price:    price,
		Image:    image,
		Size:     size,
		Quantity: int(qty),
	}, nil
}
