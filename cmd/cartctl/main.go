// Command cartctl drives a persisted cart from the terminal: add and remove
// products, set checkout options and hand the order off to WhatsApp.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-cart/internal/config"
	"github.com/goliatone/go-cart/internal/logging"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cartctl",
		Short: "Manage a shopping cart and hand orders off to WhatsApp",
		Long: `cartctl keeps a cart and its checkout options in the configured storage
and builds the WhatsApp order message on checkout.

Storage defaults to a sqlite file (data/cart.db) so the cart survives between
commands. Set storage.driver to redis to share it, or to memory for a
throwaway cart that lives only for one invocation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging, a.verbose)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "cartctl.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newAddCmd(a),
		newRemoveCmd(a),
		newClearCmd(a),
		newShowCmd(a),
		newOptionsCmd(a),
		newCheckoutCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
