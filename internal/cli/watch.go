package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dwikikusuma/quickcart/internal/storefront"
	"github.com/dwikikusuma/quickcart/pkg/shutdown"
)

type watchOptions struct {
	metricsAddr string
}

func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow your cart live until interrupted",
		Long: `Load the cart, open the live cart stream and print the cart every time
the backend reports a change. Stops on Ctrl-C or when the stream ends; run
it again to reconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, app *storefront.App, f *OutputFormatter) error {
				return runWatch(ctx, rootOpts, opts, app, f)
			})
		},
	}
	addr := rootOpts.Config.MetricsAddr
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", addr, "serve /metrics and /healthz on this address")
	return cmd
}

func runWatch(parent context.Context, rootOpts *RootOptions, opts *watchOptions, app *storefront.App, f *OutputFormatter) error {
	ctx, cancel := shutdown.WithSignals(parent)
	defer cancel()

	if err := initialize(ctx, app); err != nil {
		return err
	}

	var ln net.Listener
	if opts.metricsAddr != "" {
		var err error
		ln, err = net.Listen("tcp", opts.metricsAddr)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot listen on "+opts.metricsAddr, err)
		}
		f.VerboseLog("serving metrics on %s", ln.Addr())
	}

	if err := app.Connect(ctx); err != nil {
		if ln != nil {
			_ = ln.Close()
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The stream ending stops the whole command.
		defer cancel()
		return app.WaitStream(gctx)
	})
	g.Go(func() error {
		for view := range app.Cart().Watch(gctx) {
			out := cartLines(view, app.Products())
			if err := f.Emit(out, func(w io.Writer) { renderCartSummary(w, out) }); err != nil {
				return fmt.Errorf("write cart: %w", err)
			}
		}
		return nil
	})
	if ln != nil {
		g.Go(func() error {
			return serveOps(gctx, ln, opsHandler(app.Stream()), rootOpts.log)
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
