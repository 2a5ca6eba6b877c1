package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dwikikusuma/quickcart/internal/storefront"
	"github.com/dwikikusuma/quickcart/pkg/config"
	"github.com/dwikikusuma/quickcart/pkg/logger"
)

// OpenFunc builds the storefront for one command run. The returned func
// releases it.
type OpenFunc func(ctx context.Context, cfg config.Config, log *slog.Logger) (*storefront.App, func() error, error)

// RootOptions holds global flags and the shared wiring for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	Config config.Config
	Open   OpenFunc

	log *slog.Logger
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the quickcart command tree over cfg.
func NewRootCommand(cfg config.Config) *cobra.Command {
	return NewRootCommandWith(&RootOptions{Config: cfg, Open: storefront.Open})
}

func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	if opts.Open == nil {
		opts.Open = storefront.Open
	}

	cmd := &cobra.Command{
		Use:   "quickcart",
		Short: "QuickCart storefront client",
		Long:  "Browse the QuickCart catalog and keep a cart in sync with the backend.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				fmt.Fprintf(cmd.ErrOrStderr(), "Error [%s]: %s\n", ErrCodeUsage, msg)
				return NewExitError(ExitCommandError, msg)
			}
			opts.log = newLogger(opts, cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := opts.Config.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	return logger.New(logger.Options{
		Service: "quickcart",
		Env:     opts.Config.AppEnv,
		Level:   level,
		Format:  opts.Config.LogFormat,
		Output:  w,
	})
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// withApp opens the storefront, runs fn and releases it.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *storefront.App, f *OutputFormatter) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := o.formatter(cmd)

	app, closeFn, err := o.Open(ctx, o.Config, o.log)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "could not open client state", err))
	}
	defer func() {
		app.Disconnect()
		if cerr := closeFn(); cerr != nil {
			o.log.Warn("close client state", slog.Any("err", cerr))
		}
	}()

	if err := fn(ctx, app, f); err != nil {
		return f.Fail(err)
	}
	return nil
}
