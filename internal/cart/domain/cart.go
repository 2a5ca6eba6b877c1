package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	catalog "github.com/dwikikusuma/quickcart/internal/catalog/domain"
)

var ErrInvalidSnapshot = errors.New("invalid cart snapshot")

type CartItem struct {
	ProductID  catalog.ProductID `json:"productId"`
	Quantity   int               `json:"quantity"`
	PriceAtAdd float64           `json:"priceAtAdd"`
}

// Cart is a full snapshot as the server holds it. The client never patches
// one; it replaces it.
type Cart struct {
	ID          string     `json:"id,omitempty"`
	Items       []CartItem `json:"items"`
	TotalAmount float64    `json:"totalAmount"`
	// LastUpdated is passed through undecoded; its format depends on the
	// server's date settings.
	LastUpdated json.RawMessage `json:"lastUpdated,omitempty"`
}

func Empty() Cart {
	return Cart{Items: []CartItem{}}
}

// Validate checks the rules every line item of a snapshot must satisfy.
func (c Cart) Validate() error {
	for i, it := range c.Items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: item %d has no product id", ErrInvalidSnapshot, i)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %s has quantity %d", ErrInvalidSnapshot, it.ProductID, it.Quantity)
		}
	}
	return nil
}

func (c Cart) Item(id catalog.ProductID) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == id {
			return it, true
		}
	}
	return CartItem{}, false
}

// Clone returns a copy that shares no item storage with c.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

// AddOrIncrease applies the backend's add rule: an existing line grows by
// quantity at its recorded price, a new line is priced at catalogPrice.
func (c *Cart) AddOrIncrease(id catalog.ProductID, quantity int, catalogPrice float64) {
	for i := range c.Items {
		if c.Items[i].ProductID == id {
			c.Items[i].Quantity += quantity
			c.Recalculate()
			return
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: id, Quantity: quantity, PriceAtAdd: catalogPrice})
	c.Recalculate()
}

// DecreaseOrRemove applies the backend's remove rule. A nil or non-positive
// quantity drops the line outright; otherwise the line shrinks and is
// dropped once it reaches zero. It reports whether the line existed.
func (c *Cart) DecreaseOrRemove(id catalog.ProductID, quantity *int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID != id {
			continue
		}
		if quantity == nil || *quantity <= 0 || c.Items[i].Quantity-*quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity -= *quantity
		}
		c.Recalculate()
		return true
	}
	return false
}

// Recalculate restores TotalAmount = Σ priceAtAdd × quantity.
func (c *Cart) Recalculate() {
	var total float64
	for _, it := range c.Items {
		total += it.PriceAtAdd * float64(it.Quantity)
	}
	c.TotalAmount = total
}
