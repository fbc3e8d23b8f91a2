package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cart "github.com/goliatone/go-cart"
)

func newCheckoutCmd(a *app) *cobra.Command {
	var showMessage bool
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Build the order message and hand it off",
		Long: `Composes the order message from the cart and options, then opens the
WhatsApp link. In print mode the link is written to stdout; in browser mode it
is opened in a new Chrome tab. A successful handoff empties the cart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withSession(cmd.Context(), out, cmd.ErrOrStderr(), func(s *cart.Session) error {
				result, err := s.Dispatch(cmd.Context(), cart.CheckoutCommand{})
				if errors.Is(err, cart.ErrEmptyCart) {
					return nil
				}
				if err != nil {
					return err
				}
				if showMessage {
					fmt.Fprintln(out, result.Message)
				}
				if result.ArtifactLocation != "" {
					fmt.Fprintf(out, "capture: %s\n", result.ArtifactLocation)
				}
				a.logger.Debug("checkout finished",
					zap.String("checkout_id", result.ID),
					zap.Any("path", result.Path),
				)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showMessage, "message", false, "also print the composed order message")
	return cmd
}
