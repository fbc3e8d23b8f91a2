package cart

// Command is a typed UI event routed by Session.Dispatch.
type Command interface {
	CommandName() string
}

// AddItemCommand adds one unit of Product.
type AddItemCommand struct {
	Product Product
}

// RemoveItemCommand removes one unit of the line with ID.
type RemoveItemCommand struct {
	ID string
}

// SetOptionCommand overwrites one option field.
type SetOptionCommand struct {
	Field string
	Value string
}

// CheckoutCommand runs the checkout flow.
type CheckoutCommand struct{}

// ClearCartCommand empties the cart without a handoff.
type ClearCartCommand struct{}

func (AddItemCommand) CommandName() string    { return "cart.add" }
func (RemoveItemCommand) CommandName() string { return "cart.remove" }
func (SetOptionCommand) CommandName() string  { return "cart.option" }
func (CheckoutCommand) CommandName() string   { return "cart.checkout" }
func (ClearCartCommand) CommandName() string  { return "cart.clear" }

// SetPaymentMethod builds a SetOptionCommand for the payment method.
func SetPaymentMethod(value string) SetOptionCommand {
	return SetOptionCommand{Field: FieldPaymentMethod, Value: value}
}

// SetFulfillmentType builds a SetOptionCommand for the fulfillment type.
func SetFulfillmentType(value string) SetOptionCommand {
	return SetOptionCommand{Field: FieldFulfillment, Value: value}
}

// SetDeliveryAddress builds a SetOptionCommand for the delivery address.
func SetDeliveryAddress(value string) SetOptionCommand {
	return SetOptionCommand{Field: FieldDeliveryAddress, Value: value}
}
