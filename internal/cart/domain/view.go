package domain

import (
	catalog "github.com/dwikikusuma/quickcart/internal/catalog/domain"
)

// View is derived from a Cart and never edited on its own.
type View struct {
	Cart       Cart
	Quantities map[catalog.ProductID]int
	ItemCount  int
	// TotalAmount is the server's figure; it is not recomputed here so a
	// catalog price change cannot make the two drift.
	TotalAmount float64
}

func NewView(c Cart) View {
	v := View{
		Cart:        c.Clone(),
		Quantities:  make(map[catalog.ProductID]int, len(c.Items)),
		TotalAmount: c.TotalAmount,
	}
	for _, it := range c.Items {
		v.Quantities[it.ProductID] += it.Quantity
		v.ItemCount += it.Quantity
	}
	return v
}

func (v View) QuantityOf(id catalog.ProductID) int {
	return v.Quantities[id]
}

func (v View) IsEmpty() bool {
	return len(v.Cart.Items) == 0
}
