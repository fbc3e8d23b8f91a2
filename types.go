package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Fulfillment values understood by CartOptions.IsDelivery.
const (
	FulfillmentPickup   = "pickup"
	FulfillmentDelivery = "delivery"

	// legacy storefront values
	fulfillmentRetirada = "retirada"
	fulfillmentEntrega  = "entrega"
)

// DefaultPaymentMethod is selected until the shopper picks another one.
const DefaultPaymentMethod = "pix"

// Option field names, matching the persisted JSON keys.
const (
	FieldPaymentMethod   = "paymentMethod"
	FieldFulfillment     = "fulfillment"
	FieldDeliveryAddress = "deliveryAddress"
)

// Product is what an "add to cart" affordance exposes.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
}

// LineItem is one product entry in the cart.
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns UnitPrice × Quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartOptions holds the shopper's checkout choices.
type CartOptions struct {
	PaymentMethod   string `json:"paymentMethod"`
	Fulfillment     string `json:"fulfillment"`
	DeliveryAddress string `json:"deliveryAddress"`
}

// DefaultOptions returns pix payment with pickup.
func DefaultOptions() CartOptions {
	return CartOptions{
		PaymentMethod: DefaultPaymentMethod,
		Fulfillment:   FulfillmentPickup,
	}
}

// IsDelivery reports whether the fulfillment value asks for delivery.
func (o CartOptions) IsDelivery() bool {
	switch strings.ToLower(strings.TrimSpace(o.Fulfillment)) {
	case FulfillmentDelivery, fulfillmentEntrega:
		return true
	default:
		return false
	}
}

// Field returns the value stored under a persisted option key.
func (o CartOptions) Field(name string) (string, bool) {
	switch name {
	case FieldPaymentMethod:
		return o.PaymentMethod, true
	case FieldFulfillment:
		return o.Fulfillment, true
	case FieldDeliveryAddress:
		return o.DeliveryAddress, true
	default:
		return "", false
	}
}

func (o CartOptions) asMap() map[string]any {
	return map[string]any{
		FieldPaymentMethod:   o.PaymentMethod,
		FieldFulfillment:     o.Fulfillment,
		FieldDeliveryAddress: o.DeliveryAddress,
	}
}

// optionsRecord is the persisted form of CartOptions. Nil fields were absent
// from storage and fall back to defaults when layered.
type optionsRecord struct {
	PaymentMethod   *string `json:"paymentMethod,omitempty"`
	Fulfillment     *string `json:"fulfillment,omitempty"`
	DeliveryAddress *string `json:"deliveryAddress,omitempty"`
}

func recordFromOptions(o CartOptions) optionsRecord {
	return optionsRecord{
		PaymentMethod:   &o.PaymentMethod,
		Fulfillment:     &o.Fulfillment,
		DeliveryAddress: &o.DeliveryAddress,
	}
}

func (r optionsRecord) options() CartOptions {
	var out CartOptions
	if r.PaymentMethod != nil {
		out.PaymentMethod = *r.PaymentMethod
	}
	if r.Fulfillment != nil {
		out.Fulfillment = *r.Fulfillment
	}
	if r.DeliveryAddress != nil {
		out.DeliveryAddress = *r.DeliveryAddress
	}
	return out
}

// Totals is the numeric summary of a cart.
type Totals struct {
	Total decimal.Decimal
	Count int
}

// SumItems totals items. The result does not depend on item order.
func SumItems(items []LineItem) Totals {
	totals := Totals{Total: decimal.Zero}
	for _, item := range items {
		totals.Total = totals.Total.Add(item.Subtotal())
		totals.Count += item.Quantity
	}
	return totals
}

// Snapshot is the read-only view handed to renderers after every mutation.
type Snapshot struct {
	Items                  []LineItem
	Total                  decimal.Decimal
	TotalText              string
	Count                  int
	Options                CartOptions
	DeliveryAddressVisible bool
}

// NewSnapshot derives a Snapshot, formatting the total with tmpl.
func NewSnapshot(items []LineItem, options CartOptions, tmpl Template) Snapshot {
	copied := append([]LineItem(nil), items...)
	totals := SumItems(copied)
	return Snapshot{
		Items:                  copied,
		Total:                  totals.Total,
		TotalText:              tmpl.FormatAmount(totals.Total),
		Count:                  totals.Count,
		Options:                options,
		DeliveryAddressVisible: options.IsDelivery(),
	}
}
