package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	cart "github.com/goliatone/go-cart"
)

func newAddCmd(a *app) *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "add <id> <name> <price>",
		Short: "Add one unit of a product to the cart",
		Long: `Adds one unit of the product. Adding an id already in the cart bumps its
quantity and keeps the name and price recorded the first time.

Prices accept a dot or comma decimal separator: 45.90 or 45,90.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			product, err := cart.DecodeProduct("cli", map[string]any{
				"id":    args[0],
				"name":  args[1],
				"price": args[2],
				"image": image,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return a.withSession(cmd.Context(), out, cmd.ErrOrStderr(), func(s *cart.Session) error {
				if _, err := s.Dispatch(cmd.Context(), cart.AddItemCommand{Product: product}); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s x%d\n", product.Name, s.Cart.Quantity(product.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&image, "image", "", "product image URL")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one unit of a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withSession(cmd.Context(), out, cmd.ErrOrStderr(), func(s *cart.Session) error {
				if _, err := s.Dispatch(cmd.Context(), cart.RemoveItemCommand{ID: args[0]}); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s x%d\n", args[0], s.Cart.Quantity(args[0]))
				return nil
			})
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(s *cart.Session) error {
				_, err := s.Dispatch(cmd.Context(), cart.ClearCartCommand{})
				return err
			})
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the cart, its total and the checkout options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withSession(cmd.Context(), out, cmd.ErrOrStderr(), func(s *cart.Session) error {
				printSnapshot(out, s.Snapshot(), s.Template())
				return nil
			})
		},
	}
}

func printSnapshot(out io.Writer, snapshot cart.Snapshot, tmpl cart.Template) {
	if len(snapshot.Items) == 0 {
		fmt.Fprintln(out, "cart is empty")
	}
	for _, item := range snapshot.Items {
		fmt.Fprintf(out, "%-12s %-24s x%-3d %s\n",
			item.ID, item.Name, item.Quantity, tmpl.FormatAmount(item.Subtotal()))
	}
	fmt.Fprintf(out, "items: %d\n", snapshot.Count)
	fmt.Fprintf(out, "total: %s\n", snapshot.TotalText)

	opts := snapshot.Options
	fmt.Fprintf(out, "payment: %s\n", opts.PaymentMethod)
	fmt.Fprintf(out, "fulfillment: %s\n", opts.Fulfillment)
	if snapshot.DeliveryAddressVisible {
		address := strings.TrimSpace(opts.DeliveryAddress)
		if address == "" {
			address = "-"
		}
		fmt.Fprintf(out, "address: %s\n", address)
	}
}
