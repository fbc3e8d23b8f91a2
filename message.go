package cart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Template names accepted by TemplateByName.
const (
	TemplateDefault = "default"
	TemplatePlain   = "plain"
)

// Template controls the wording of the order message and money formatting.
type Template struct {
	Name             string
	Header           string
	Bullet           string
	CurrencyPrefix   string
	DecimalSeparator string
	TotalLabel       string
	PaymentLabel     string
	DeliveryLabel    string
	PickupText       string
	MissingAddress   string
	EmptyCartWarning string
	UppercasePayment bool
	Language         language.Tag
}

// DefaultTemplate is the storefront's pt-BR message.
func DefaultTemplate() Template {
	return Template{
		Name:             TemplateDefault,
		Header:           "FAVOR ENVIAR PRINT DO PEDIDO!!!\n\nOlá, gostaria de fazer um pedido:\n\n",
		Bullet:           "• ",
		CurrencyPrefix:   "R$ ",
		DecimalSeparator: ",",
		TotalLabel:       "Total: ",
		PaymentLabel:     "Pagamento: ",
		DeliveryLabel:    "Entrega: ",
		PickupText:       "Retirada no local",
		MissingAddress:   "Não informado",
		EmptyCartWarning: "Seu carrinho está vazio!",
		UppercasePayment: true,
		Language:         language.BrazilianPortuguese,
	}
}

// PlainTemplate is a quieter English variant with the same money format.
func PlainTemplate() Template {
	return Template{
		Name:             TemplatePlain,
		Header:           "New order:\n\n",
		Bullet:           "- ",
		CurrencyPrefix:   "R$ ",
		DecimalSeparator: ",",
		TotalLabel:       "Total: ",
		PaymentLabel:     "Payment: ",
		DeliveryLabel:    "Delivery: ",
		PickupText:       "Pickup",
		MissingAddress:   "not informed",
		EmptyCartWarning: "Your cart is empty.",
		Language:         language.English,
	}
}

// TemplateByName resolves a configured template name. Empty selects the
// default.
func TemplateByName(name string) (Template, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", TemplateDefault:
		return DefaultTemplate(), nil
	case TemplatePlain:
		return PlainTemplate(), nil
	default:
		return Template{}, fmt.Errorf("cart: unknown message template %q", name)
	}
}

// FormatAmount renders d with two decimals, the template separator and
// currency prefix.
func (t Template) FormatAmount(d decimal.Decimal) string {
	text := d.StringFixed(2)
	if t.DecimalSeparator != "" && t.DecimalSeparator != "." {
		text = strings.Replace(text, ".", t.DecimalSeparator, 1)
	}
	return t.CurrencyPrefix + text
}

func (t Template) payment(value string) string {
	if !t.UppercasePayment {
		return value
	}
	return cases.Upper(t.Language).String(value)
}

// Composer builds order messages. The zero value is not usable; use
// NewComposer.
type Composer struct {
	template Template
}

// NewComposer returns a Composer bound to tmpl.
func NewComposer(tmpl Template) Composer {
	return Composer{template: tmpl}
}

// Template returns the bound template.
func (c Composer) Template() Template {
	return c.template
}

// BuildOrderMessage formats items and options into the order text. It is a
// pure function of its arguments.
func (c Composer) BuildOrderMessage(items []LineItem, options CartOptions, totalText string) string {
	t := c.template
	var b strings.Builder
	b.WriteString(t.Header)
	for _, item := range items {
		b.WriteString(t.Bullet)
		b.WriteString(item.Name)
		b.WriteString(" (x")
		b.WriteString(strconv.Itoa(item.Quantity))
		b.WriteString(") - ")
		b.WriteString(t.FormatAmount(item.Subtotal()))
		b.WriteByte('\n')
	}

	b.WriteString("\n")
	b.WriteString(t.TotalLabel)
	b.WriteString(totalText)

	b.WriteString("\n")
	b.WriteString(t.PaymentLabel)
	b.WriteString(t.payment(options.PaymentMethod))

	b.WriteString("\n")
	b.WriteString(c.fulfillmentLine(options))
	return b.String()
}

func (c Composer) fulfillmentLine(options CartOptions) string {
	t := c.template
	if !options.IsDelivery() {
		return t.PickupText
	}
	// only an empty address gets the placeholder; whitespace is kept verbatim
	address := options.DeliveryAddress
	if address == "" {
		address = t.MissingAddress
	}
	return t.DeliveryLabel + address
}
