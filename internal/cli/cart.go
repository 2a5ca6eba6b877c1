package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	catalog "github.com/dwikikusuma/quickcart/internal/catalog/domain"
	"github.com/dwikikusuma/quickcart/internal/storefront"
)

func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, app *storefront.App, f *OutputFormatter) error {
				if err := initialize(ctx, app); err != nil {
					return err
				}
				return emitCart(f, app)
			})
		},
	}

	cmd.AddCommand(newCartChangeCommand(rootOpts, "add <product-id>", "Add a product, or more of it", true, (*storefront.App).AddToCart))
	cmd.AddCommand(newCartChangeCommand(rootOpts, "decrease <product-id>", "Take one of a product out", true, (*storefront.App).Decrease))
	cmd.AddCommand(newCartChangeCommand(rootOpts, "remove <product-id>", "Remove a product entirely", false, (*storefront.App).Remove))
	return cmd
}

type intentFunc func(app *storefront.App, ctx context.Context, id catalog.ProductID) error

// newCartChangeCommand sends the intent, then shows the cart as the backend
// now reports it.
func newCartChangeCommand(rootOpts *RootOptions, use, short string, repeatable bool, do intentFunc) *cobra.Command {
	qty := 1
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if qty < 1 {
				return rootOpts.formatter(cmd).Fail(NewExitError(ExitCommandError, fmt.Sprintf("--qty must be at least 1, got %d", qty)))
			}
			return rootOpts.withApp(cmd, func(ctx context.Context, app *storefront.App, f *OutputFormatter) error {
				if !app.Session().Authenticated {
					return storefront.ErrNotLoggedIn
				}
				id := catalog.ProductID(args[0])
				for i := 0; i < qty; i++ {
					if err := do(app, ctx, id); err != nil {
						return err
					}
				}
				f.VerboseLog("sent %d change(s) for product %s", qty, id)
				if err := app.Initialize(ctx); err != nil {
					return err
				}
				return emitCart(f, app)
			})
		},
	}
	if repeatable {
		cmd.Flags().IntVarP(&qty, "qty", "q", 1, "how many times to apply the change")
	}
	return cmd
}

func emitCart(f *OutputFormatter, app *storefront.App) error {
	out := cartLines(app.Cart().View(), app.Products())
	return f.Emit(out, func(w io.Writer) { renderCart(w, out) })
}
