package rules

import (
	"errors"
	"testing"
)

var evaluatorFactories = []struct {
	name string
	new  func(opts ...Option) Evaluator
}{
	{name: EngineExpr, new: NewExprEvaluator},
	{name: EngineCEL, new: NewCELEvaluator},
	{name: EngineJS, new: NewJSEvaluator},
}

func optionsSnapshot() map[string]any {
	return map[string]any{
		"paymentMethod":   "pix",
		"fulfillment":     "delivery",
		"deliveryAddress": "",
	}
}

func TestCheckAcrossEngines(t *testing.T) {
	cases := []struct {
		name   string
		expr   string
		field  string
		value  any
		expect bool
	}{
		{name: "allowed payment", expr: `value in ["pix", "cartao", "dinheiro"]`, field: "paymentMethod", value: "pix", expect: true},
		{name: "unknown payment", expr: `value in ["pix", "cartao", "dinheiro"]`, field: "paymentMethod", value: "bitcoin", expect: false},
		{name: "snapshot binding", expr: `fulfillment == "delivery"`, field: "deliveryAddress", value: "", expect: true},
		{name: "registry function", expr: `digits(value) == "35998493844"`, field: "phone", value: "(35) 99849-3844", expect: true},
		{name: "blank helper", expr: `blank(value)`, field: "deliveryAddress", value: "   ", expect: true},
	}

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(WithFunctionRegistry(DefaultFunctions()), WithProgramCache(NewMapCache()))
			if evaluator == nil {
				t.Skipf("%s evaluator not available in this build", factory.name)
			}
			for _, tc := range cases {
				tc := tc
				t.Run(tc.name, func(t *testing.T) {
					ctx := Context{Snapshot: optionsSnapshot(), Field: tc.field, Value: tc.value}
					got, err := Check(evaluator, ctx, tc.expr)
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					if got != tc.expect {
						t.Fatalf("expected %v, got %v", tc.expect, got)
					}
				})
			}
		})
	}
}

func TestCheckRejectsNonBoolean(t *testing.T) {
	_, err := Check(NewExprEvaluator(), Context{Field: "paymentMethod", Value: "pix"}, `value + "!"`)
	if !errors.Is(err, ErrNotBoolean) {
		t.Fatalf("expected ErrNotBoolean, got %v", err)
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Field != "paymentMethod" {
		t.Fatalf("expected EvaluationError with field metadata, got %v", err)
	}
}

func TestEvaluateEmptyExpression(t *testing.T) {
	for _, factory := range evaluatorFactories {
		evaluator := factory.new()
		if evaluator == nil {
			continue
		}
		if _, err := evaluator.Evaluate(Context{}, ""); err == nil {
			t.Fatalf("%s: expected error for empty expression", factory.name)
		}
	}
}

func TestProgramCacheReusesCompiledPrograms(t *testing.T) {
	cache := NewMapCache()
	evaluator := NewExprEvaluator(WithProgramCache(cache))
	for i := 0; i < 3; i++ {
		if _, err := evaluator.Evaluate(Context{Value: "pix"}, `value == "pix"`); err != nil {
			t.Fatalf("evaluate: %v", err)
		}
	}
	if cache.Len() != 1 {
		t.Fatalf("expected a single cached program, got %d", cache.Len())
	}
}

func TestCompiledRuleEvaluates(t *testing.T) {
	evaluator := NewExprEvaluator()
	rule, err := evaluator.Compile(`value != ""`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := rule.Evaluate(Context{Value: "Rua A"})
	if err != nil || got != true {
		t.Fatalf("expected true, got %v (%v)", got, err)
	}
}

func TestNewResolvesEngines(t *testing.T) {
	if _, err := New(""); err != nil {
		t.Fatalf("default engine: %v", err)
	}
	if _, err := New(EngineCEL); err != nil {
		t.Fatalf("cel engine: %v", err)
	}
	if _, err := New("lua"); !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}
}

func TestLoggerReceivesEvents(t *testing.T) {
	var events []LogEvent
	evaluator := NewExprEvaluator(WithLogger(LoggerFunc(func(event LogEvent) {
		events = append(events, event)
	})))
	_, _ = evaluator.Evaluate(Context{Field: "paymentMethod", Value: "pix"}, `value == "pix"`)
	_, _ = evaluator.Evaluate(Context{Field: "paymentMethod"}, `value ==`)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Engine != EngineExpr || events[0].Field != "paymentMethod" || events[0].Err != nil {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Err == nil {
		t.Fatalf("expected compile error to be logged")
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{Engine: EngineExpr, Err: base}

	err := wrapEvaluationError(EngineCEL, "rule", "paymentMethod", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != EngineExpr {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" || existing.Field != "paymentMethod" {
		t.Fatalf("metadata should be filled, got %+v", existing)
	}
}
