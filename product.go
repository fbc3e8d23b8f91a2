package cart

import (
	"errors"
	"strings"

	"github.com/goliatone/go-cart/internal/hydrate"
	"github.com/shopspring/decimal"
)

type productPayload struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Image string           `json:"image"`
}

var productDecoder = hydrate.NewDecoder[productPayload](
	hydrate.WithPreHook[productPayload](hydrate.StripAttributePrefix("product")),
	hydrate.WithPreHook[productPayload](hydrate.TrimStrings),
	hydrate.WithPreHook[productPayload](normalizePrice),
	hydrate.WithPostHook[productPayload](validateProduct),
)

// DecodeProduct reads a Product from markup attributes. Keys may use the
// data-product-* form, the dataset form (productId) or plain names. Prices
// may be numbers or strings with either decimal separator.
func DecodeProduct(source string, attributes map[string]any) (Product, error) {
	payload, err := productDecoder.Decode(hydrate.Context{Source: source}, attributes)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:    payload.ID,
		Name:  payload.Name,
		Price: *payload.Price,
		Image: payload.Image,
	}, nil
}

// normalizePrice accepts "10,50" as well as "10.50".
func normalizePrice(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	text, ok := payload["price"].(string)
	if !ok {
		return payload, nil
	}
	if text == "" {
		delete(payload, "price")
		return payload, nil
	}
	if strings.Contains(text, ",") && !strings.Contains(text, ".") {
		payload["price"] = strings.Replace(text, ",", ".", 1)
	}
	return payload, nil
}

func validateProduct(_ hydrate.Context, payload *productPayload) error {
	if payload.ID == "" {
		return errors.New("product id is required")
	}
	if payload.Price == nil {
		return errors.New("product price is required")
	}
	if payload.Price.IsNegative() {
		return errors.New("product price must not be negative")
	}
	return nil
}
