package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	catalogapp "github.com/dwikikusuma/quickcart/internal/catalog/app"
	"github.com/dwikikusuma/quickcart/internal/storefront"
)

type productsOptions struct {
	category string
}

func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &productsOptions{}
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products with the quantity already in your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, app *storefront.App, f *OutputFormatter) error {
				if err := initialize(ctx, app); err != nil {
					return err
				}
				products := catalogapp.FilterByCategory(app.Products(), opts.category)
				rows := productRows(products, app.Cart().View())
				return f.Emit(rows, func(w io.Writer) { renderProducts(w, rows) })
			})
		},
	}
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "only show this category")
	return cmd
}

// initialize loads the storefront, refusing when logged out.
func initialize(ctx context.Context, app *storefront.App) error {
	if !app.Session().Authenticated {
		return storefront.ErrNotLoggedIn
	}
	return app.Initialize(ctx)
}
