package cart

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"unicode"

	"github.com/goliatone/go-cart/pkg/state"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func buildItems(cents []int64, quantities []int, names []string) []LineItem {
	n := len(cents)
	if len(quantities) < n {
		n = len(quantities)
	}
	items := make([]LineItem, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("item %d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		items = append(items, LineItem{
			ID:        fmt.Sprintf("sku-%d", i),
			Name:      name,
			UnitPrice: decimal.New(cents[i], -2),
			Quantity:  quantities[i],
		})
	}
	return items
}

func sameItems(a, b []LineItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name || a[i].Image != b[i].Image || a[i].Quantity != b[i].Quantity {
			return false
		}
		if !a[i].UnitPrice.Equal(b[i].UnitPrice) {
			return false
		}
	}
	return true
}

func TestQuantityTracksAddsMinusRemoves(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("quantity is max(0, adds - removes) at every step", prop.ForAll(
		func(ops []bool) bool {
			ctx := context.Background()
			store := NewCartStore(state.NewMemoryBackend(), cartRef)
			expected := 0
			for _, add := range ops {
				if add {
					store.AddItem(ctx, widget("A", "Widget", "10"))
					expected++
				} else {
					store.RemoveItem(ctx, "A")
					if expected > 0 {
						expected--
					}
				}
				if store.Quantity("A") != expected {
					return false
				}
				if expected == 0 && store.Len() != 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

func TestTotalsArePermutationInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("SumItems ignores item order", prop.ForAll(
		func(cents []int64, quantities []int, seed int64) bool {
			items := buildItems(cents, quantities, nil)
			shuffled := append([]LineItem(nil), items...)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			original := SumItems(items)
			permuted := SumItems(shuffled)
			return original.Total.Equal(permuted.Total) && original.Count == permuted.Count
		},
		gen.SliceOf(gen.Int64Range(0, 10_000_000)),
		gen.SliceOf(gen.IntRange(1, 99)),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestPersistedStateRoundTrips(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("load(save(items)) == items", prop.ForAll(
		func(cents []int64, quantities []int, names []string) bool {
			ctx := context.Background()
			items := buildItems(cents, quantities, names)
			store := state.NewJSONStore[[]LineItem](state.NewMemoryBackend())
			if _, err := store.Save(ctx, cartRef, items); err != nil {
				return false
			}
			loaded, _, ok, err := store.Load(ctx, cartRef)
			return err == nil && ok && sameItems(items, loaded)
		},
		gen.SliceOf(gen.Int64Range(0, 10_000_000)),
		gen.SliceOf(gen.IntRange(1, 99)),
		gen.SliceOf(gen.UnicodeString(unicode.Latin)),
	))

	properties.Property("hydrated options equal saved options", prop.ForAll(
		func(payment, fulfillment, address string) bool {
			ctx := context.Background()
			backend := state.NewMemoryBackend()
			writer := NewOptionsStore(backend, optionsRef)
			if writer.SetPaymentMethod(ctx, payment) != nil ||
				writer.SetFulfillmentType(ctx, fulfillment) != nil ||
				writer.SetDeliveryAddress(ctx, address) != nil {
				return false
			}
			reader := NewOptionsStore(backend, optionsRef)
			if err := reader.Hydrate(ctx); err != nil {
				return false
			}
			return reader.Options() == writer.Options()
		},
		gen.AlphaString(),
		gen.OneConstOf(FulfillmentPickup, FulfillmentDelivery, "retirada", "entrega"),
		gen.UnicodeString(unicode.Latin),
	))

	properties.TestingRun(t)
}

func TestCartRoundTripThroughStore(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("a reloaded cart matches the writer", prop.ForAll(
		func(ops []int) bool {
			ctx := context.Background()
			backend := state.NewMemoryBackend()
			writer := NewCartStore(backend, cartRef)
			for _, op := range ops {
				id := fmt.Sprintf("sku-%d", op%5)
				if op%3 == 0 {
					writer.RemoveItem(ctx, id)
					continue
				}
				writer.AddItem(ctx, Product{ID: id, Name: "Item " + id, Price: decimal.New(int64(op), -1)})
			}
			reader := NewCartStore(backend, cartRef)
			if err := reader.Hydrate(ctx); err != nil {
				return false
			}
			return sameItems(writer.Items(), reader.Items())
		},
		gen.SliceOf(gen.IntRange(0, 60)),
	))

	properties.TestingRun(t)
}
