package layering

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

type optionsRecord struct {
	PaymentMethod   *string           `json:"paymentMethod,omitempty"`
	Fulfillment     *string           `json:"fulfillment,omitempty"`
	DeliveryAddress *string           `json:"deliveryAddress,omitempty"`
	Extras          map[string]string `json:"extras,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
}

func strPtr(v string) *string {
	return &v
}

func TestMergeLayersCases(t *testing.T) {
	defaults := optionsRecord{
		PaymentMethod:   strPtr("pix"),
		Fulfillment:     strPtr("pickup"),
		DeliveryAddress: strPtr(""),
		Extras:          map[string]string{"channel": "whatsapp"},
		Tags:            []string{"default"},
	}

	cases := []struct {
		name      string
		persisted optionsRecord
		expect    optionsRecord
	}{
		{
			name:      "empty persisted keeps defaults",
			persisted: optionsRecord{},
			expect:    defaults,
		},
		{
			name:      "persisted keys win",
			persisted: optionsRecord{PaymentMethod: strPtr("cartao")},
			expect: optionsRecord{
				PaymentMethod:   strPtr("cartao"),
				Fulfillment:     strPtr("pickup"),
				DeliveryAddress: strPtr(""),
				Extras:          map[string]string{"channel": "whatsapp"},
				Tags:            []string{"default"},
			},
		},
		{
			name: "explicit empty string is a value",
			persisted: optionsRecord{
				Fulfillment:     strPtr("delivery"),
				DeliveryAddress: strPtr(""),
			},
			expect: optionsRecord{
				PaymentMethod:   strPtr("pix"),
				Fulfillment:     strPtr("delivery"),
				DeliveryAddress: strPtr(""),
				Extras:          map[string]string{"channel": "whatsapp"},
				Tags:            []string{"default"},
			},
		},
		{
			name: "maps merge and slices replace",
			persisted: optionsRecord{
				Extras: map[string]string{"note": "gift"},
				Tags:   []string{"persisted", "second"},
			},
			expect: optionsRecord{
				PaymentMethod:   strPtr("pix"),
				Fulfillment:     strPtr("pickup"),
				DeliveryAddress: strPtr(""),
				Extras:          map[string]string{"channel": "whatsapp", "note": "gift"},
				Tags:            []string{"persisted", "second"},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := MergeLayers(tc.persisted, defaults)
			if !reflect.DeepEqual(tc.expect, got) {
				t.Errorf("merged snapshot mismatch:\nwant: %#v\n got: %#v", tc.expect, got)
			}
		})
	}
}

func TestMergeLayersDoesNotAliasInputs(t *testing.T) {
	defaults := optionsRecord{Extras: map[string]string{"k": "v"}, PaymentMethod: strPtr("pix")}
	got := MergeLayers(optionsRecord{}, defaults)

	got.Extras["k"] = "changed"
	*got.PaymentMethod = "changed"
	if defaults.Extras["k"] != "v" || *defaults.PaymentMethod != "pix" {
		t.Fatalf("merge result must not share memory with inputs: %+v", defaults)
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	type sample struct {
		Value int
	}
	var zero sample
	if got := MergeLayers[sample](); got != zero {
		t.Fatalf("expected MergeLayers() to return zero value, got %+v", got)
	}
}

func TestMergeLayersPointerOverNilDefault(t *testing.T) {
	type address struct {
		Street *string
		City   *string
	}
	type record struct {
		Address *address
	}

	got := MergeLayers(record{Address: &address{Street: strPtr("Rua A")}}, record{})
	if got.Address == nil || got.Address.Street == nil || *got.Address.Street != "Rua A" {
		t.Fatalf("expected persisted street, got %+v", got.Address)
	}
	if got.Address.City != nil {
		t.Fatalf("expected unset city to stay nil, got %q", *got.Address.City)
	}
}

func TestCloneKeepsOpaqueStructs(t *testing.T) {
	type item struct {
		ID    string
		Price decimal.Decimal
	}
	src := []item{{ID: "A", Price: decimal.RequireFromString("10.50")}}
	got := Clone(src)
	if len(got) != 1 || !got[0].Price.Equal(src[0].Price) {
		t.Fatalf("expected decimal preserved, got %+v", got)
	}
	got[0].ID = "B"
	if src[0].ID != "A" {
		t.Fatalf("clone must be detached")
	}
}

func TestNewStackOrdersAndValidates(t *testing.T) {
	stack, err := NewStack(
		NewLayer("defaults", PriorityDefaults, optionsRecord{PaymentMethod: strPtr("pix")}, ""),
		NewLayer("persisted", PriorityPersisted, optionsRecord{PaymentMethod: strPtr("dinheiro")}, "snap-1"),
	)
	if err != nil {
		t.Fatalf("new stack: %v", err)
	}
	if names := stack.Names(); !reflect.DeepEqual(names, []string{"persisted", "defaults"}) {
		t.Fatalf("unexpected order %v", names)
	}
	merged, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if *merged.PaymentMethod != "dinheiro" {
		t.Fatalf("expected persisted layer to win, got %q", *merged.PaymentMethod)
	}

	if _, err := NewStack(NewLayer("", 1, optionsRecord{}, "")); !errors.Is(err, ErrLayerNameRequired) {
		t.Fatalf("expected ErrLayerNameRequired, got %v", err)
	}
	if _, err := NewStack(
		NewLayer("a", 1, optionsRecord{}, ""),
		NewLayer("a", 2, optionsRecord{}, ""),
	); !errors.Is(err, ErrDuplicateLayerName) {
		t.Fatalf("expected ErrDuplicateLayerName, got %v", err)
	}
	if _, err := NewStack(
		NewLayer("a", 1, optionsRecord{}, ""),
		NewLayer("b", 1, optionsRecord{}, ""),
	); !errors.Is(err, ErrPriorityOrder) {
		t.Fatalf("expected ErrPriorityOrder, got %v", err)
	}

	empty, _ := NewStack[optionsRecord]()
	if _, err := empty.Merge(); !errors.Is(err, ErrEmptyStack) {
		t.Fatalf("expected ErrEmptyStack, got %v", err)
	}
}
