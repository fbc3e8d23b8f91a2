package rules

import (
	"fmt"
	"sort"
	"time"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	cfg config
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Registry
// functions are exposed as single-argument calls.
func NewCELEvaluator(opts ...Option) Evaluator {
	return &celEvaluator{cfg: applyOptions(opts)}
}

func (e *celEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	start := time.Now()
	result, err := e.evaluate(ctx, expression)
	logEvaluation(e.cfg.logger, EngineCEL, expression, ctx, start, err)
	return result, err
}

func (e *celEvaluator) evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, fmt.Errorf("expression must not be empty"))
	}
	bindings := ctx.bindings()
	program, err := e.loadOrCompile(expression, bindings)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(bindings)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, ctx.label(), err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, fmt.Errorf("expression must not be empty"))
	}
	return &celCompiledRule{evaluator: e, expression: expression}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, bindings map[string]any) (*celProgram, error) {
	cacheKey := expression + "|" + bindingSignature(bindings)
	if e.cfg.cache != nil {
		if cached, ok := e.cfg.cache.Get(cacheKey); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(bindings)
	if err != nil {
		return nil, wrapEvaluatorError(EngineCEL, err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, "", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, "", err)
	}

	bundle := &celProgram{env: env, program: prg}
	if e.cfg.cache != nil {
		e.cfg.cache.Set(cacheKey, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) buildEnv(bindings map[string]any) (*celgo.Env, error) {
	opts := make([]celgo.EnvOption, 0, len(bindings))
	for _, key := range sortedKeys(bindings) {
		if key == "now" {
			opts = append(opts, celgo.Variable(key, celgo.TimestampType))
			continue
		}
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	for _, name := range e.cfg.registry.Names() {
		opts = append(opts, celgo.Function(name,
			celgo.Overload(name+"_dyn", []*celgo.Type{celgo.DynType}, celgo.DynType,
				celgo.UnaryBinding(e.callBinding(name)),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) callBinding(name string) func(ref.Val) ref.Val {
	return func(value ref.Val) ref.Val {
		result, err := e.cfg.registry.Call(name, value.Value())
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx Context) (any, error) {
	return r.evaluator.Evaluate(ctx, r.expression)
}

func bindingSignature(bindings map[string]any) string {
	keys := sortedKeys(bindings)
	out := ""
	for _, key := range keys {
		out += key + ","
	}
	return out
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
