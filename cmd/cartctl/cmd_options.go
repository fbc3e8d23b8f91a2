package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cart "github.com/goliatone/go-cart"
)

func newOptionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Set checkout options",
	}
	cmd.AddCommand(
		newOptionCmd(a, "payment <method>", "Set the payment method (pix, card, cash, ...)", cart.FieldPaymentMethod, cobra.MinimumNArgs(1)),
		newOptionCmd(a, "fulfillment <pickup|delivery>", "Set the fulfillment type", cart.FieldFulfillment, cobra.MinimumNArgs(1)),
		// no words clears the address
		newOptionCmd(a, "address [text]", "Set the delivery address, or clear it", cart.FieldDeliveryAddress, cobra.ArbitraryArgs),
	)
	return cmd
}

func newOptionCmd(a *app, use, short, field string, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			value := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			return a.withSession(cmd.Context(), out, cmd.ErrOrStderr(), func(s *cart.Session) error {
				command := cart.SetOptionCommand{Field: field, Value: value}
				if _, err := s.Dispatch(cmd.Context(), command); err != nil {
					return err
				}
				current, _ := s.Options.Options().Field(field)
				fmt.Fprintf(out, "%s: %s\n", field, current)
				return nil
			})
		},
	}
}
