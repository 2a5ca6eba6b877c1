package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dwikikusuma/quickcart/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/quickcart/internal/catalog/app"
	catalog "github.com/dwikikusuma/quickcart/internal/catalog/domain"
	session "github.com/dwikikusuma/quickcart/internal/session/domain"
)

const unknownProduct = "Unknown Product"

type productRow struct {
	ID       catalog.ProductID `json:"id"`
	Name     string            `json:"name"`
	Category string            `json:"category,omitempty"`
	Price    float64           `json:"price"`
	Stock    int               `json:"stock,omitempty"`
	InCart   int               `json:"inCart"`
}

type cartLine struct {
	ProductID  catalog.ProductID `json:"productId"`
	Name       string            `json:"name"`
	Quantity   int               `json:"quantity"`
	PriceAtAdd float64           `json:"priceAtAdd"`
	Subtotal   float64           `json:"subtotal"`
}

type cartOutput struct {
	Items       []cartLine `json:"items"`
	ItemCount   int        `json:"itemCount"`
	TotalAmount float64    `json:"totalAmount"`
}

type whoamiOutput struct {
	SessionID     string `json:"sessionId"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

type messageOutput struct {
	Message string `json:"message"`
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func productRows(products []catalog.Product, view domain.View) []productRow {
	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, productRow{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Price:    p.Price,
			Stock:    p.Stock,
			InCart:   view.QuantityOf(p.ID),
		})
	}
	return rows
}

func renderProducts(w io.Writer, rows []productRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tIN CART")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", r.ID, r.Name, r.Category, money(r.Price), r.InCart)
	}
	_ = tw.Flush()
}

func cartLines(view domain.View, products []catalog.Product) cartOutput {
	out := cartOutput{
		Items:       make([]cartLine, 0, len(view.Cart.Items)),
		ItemCount:   view.ItemCount,
		TotalAmount: view.TotalAmount,
	}
	for _, it := range view.Cart.Items {
		name := unknownProduct
		if p, err := catalogapp.Find(products, it.ProductID); err == nil {
			name = p.Name
		}
		out.Items = append(out.Items, cartLine{
			ProductID:  it.ProductID,
			Name:       name,
			Quantity:   it.Quantity,
			PriceAtAdd: it.PriceAtAdd,
			Subtotal:   it.PriceAtAdd * float64(it.Quantity),
		})
	}
	return out
}

func renderCart(w io.Writer, c cartOutput) {
	if len(c.Items) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range c.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, money(l.PriceAtAdd), money(l.Subtotal))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Items: %d  Total: %s\n", c.ItemCount, money(c.TotalAmount))
}

// renderCartSummary is the one-line form used while watching.
func renderCartSummary(w io.Writer, c cartOutput) {
	fmt.Fprintf(w, "cart: %d item(s), total %s\n", c.ItemCount, money(c.TotalAmount))
}

func whoami(st session.State) whoamiOutput {
	return whoamiOutput{SessionID: st.SessionID, Authenticated: st.Authenticated, Username: st.Username}
}

func renderWhoami(w io.Writer, o whoamiOutput) {
	if !o.Authenticated {
		fmt.Fprintf(w, "Not logged in (session %s)\n", o.SessionID)
		return
	}
	fmt.Fprintf(w, "Logged in as %s (session %s)\n", o.Username, o.SessionID)
}

func renderMessage(w io.Writer, m messageOutput) {
	fmt.Fprintln(w, m.Message)
}
