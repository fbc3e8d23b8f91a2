//go:build js_eval

package rules

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cfg config
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...Option) Evaluator {
	return &jsEvaluator{cfg: applyOptions(opts)}
}

func (e *jsEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	start := time.Now()
	result, err := e.evaluate(ctx, expression)
	logEvaluation(e.cfg.logger, EngineJS, expression, ctx, start, err)
	return result, err
}

func (e *jsEvaluator) evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineJS, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineJS, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &jsCompiledRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *jsEvaluator) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cfg.cache != nil {
		if cached, ok := e.cfg.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", wrapExpression(expression), false)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, "", err)
	}
	if e.cfg.cache != nil {
		e.cfg.cache.Set(expression, program)
	}
	return program, nil
}

func (e *jsEvaluator) run(ctx Context, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	for key, value := range ctx.bindings() {
		if err := vm.Set(key, value); err != nil {
			return nil, wrapEvaluationError(EngineJS, expression, ctx.label(), err)
		}
	}
	for _, name := range e.cfg.registry.Names() {
		fn := name
		if err := vm.Set(fn, func(arguments ...any) (any, error) {
			return e.cfg.registry.Call(fn, arguments...)
		}); err != nil {
			return nil, wrapEvaluationError(EngineJS, expression, ctx.label(), err)
		}
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, ctx.label(), err)
	}
	return value.Export(), nil
}

func wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx Context) (any, error) {
	start := time.Now()
	result, err := r.evaluator.run(ctx, r.expression, r.program)
	logEvaluation(r.evaluator.cfg.logger, EngineJS, r.expression, ctx, start, err)
	return result, err
}
