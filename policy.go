package cart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-cart/pkg/rules"
)

// PolicyMode decides what happens to a value that fails its rule.
type PolicyMode string

const (
	// PolicyWarn accepts the value and logs a warning.
	PolicyWarn PolicyMode = "warn"
	// PolicyReject returns an *OptionError and leaves state untouched.
	PolicyReject PolicyMode = "reject"
)

// ParsePolicyMode maps configuration strings to a PolicyMode. Empty selects
// PolicyWarn.
func ParsePolicyMode(value string) (PolicyMode, error) {
	switch PolicyMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyWarn:
		return PolicyWarn, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("cart: unknown policy mode %q", value)
	}
}

// OptionsPolicy holds one boolean rule per option field. Rules see the field
// name as `field`, the candidate as `value` and the current options under
// their JSON keys.
type OptionsPolicy struct {
	mode      PolicyMode
	evaluator rules.Evaluator
	compiled  map[string]rules.CompiledRule
	sources   map[string]string
}

// NewOptionsPolicy compiles rulesByField with the named engine. Fields with an
// empty expression are skipped.
func NewOptionsPolicy(engine string, mode PolicyMode, rulesByField map[string]string, opts ...rules.Option) (*OptionsPolicy, error) {
	if mode == "" {
		mode = PolicyWarn
	}
	if mode != PolicyWarn && mode != PolicyReject {
		return nil, fmt.Errorf("cart: unknown policy mode %q", mode)
	}
	opts = append([]rules.Option{
		rules.WithFunctionRegistry(rules.DefaultFunctions()),
		rules.WithProgramCache(rules.NewMapCache()),
	}, opts...)
	evaluator, err := rules.New(engine, opts...)
	if err != nil {
		return nil, err
	}

	policy := &OptionsPolicy{
		mode:      mode,
		evaluator: evaluator,
		compiled:  map[string]rules.CompiledRule{},
		sources:   map[string]string{},
	}
	fields := make([]string, 0, len(rulesByField))
	for field := range rulesByField {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		expr := strings.TrimSpace(rulesByField[field])
		if expr == "" {
			continue
		}
		if _, known := DefaultOptions().Field(field); !known {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOption, field)
		}
		compiled, err := evaluator.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("cart: compile rule for %s: %w", field, err)
		}
		policy.compiled[field] = compiled
		policy.sources[field] = expr
	}
	return policy, nil
}

// Mode returns the configured mode.
func (p *OptionsPolicy) Mode() PolicyMode {
	if p == nil {
		return PolicyWarn
	}
	return p.mode
}

// Check evaluates the rule for field against value. A nil policy, or a field
// without a rule, accepts everything.
func (p *OptionsPolicy) Check(field, value string, current CartOptions) error {
	if p == nil {
		return nil
	}
	compiled, ok := p.compiled[field]
	if !ok {
		return nil
	}
	snapshot := current.asMap()
	snapshot[field] = value
	ctx := rules.Context{Snapshot: snapshot, Field: field, Value: value}

	result, err := compiled.Evaluate(ctx)
	if err != nil {
		return &OptionError{Field: field, Value: value, Rule: p.sources[field], Err: err}
	}
	passed, isBool := result.(bool)
	if !isBool {
		return &OptionError{Field: field, Value: value, Rule: p.sources[field], Err: rules.ErrNotBoolean}
	}
	if !passed {
		return &OptionError{Field: field, Value: value, Rule: p.sources[field]}
	}
	return nil
}
