package rules

import (
	"fmt"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator executes rule expressions using github.com/expr-lang/expr.
type exprEvaluator struct {
	cfg config
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...Option) Evaluator {
	return &exprEvaluator{cfg: applyOptions(opts)}
}

func (e *exprEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	start := time.Now()
	result, err := e.evaluate(ctx, expression)
	logEvaluation(e.cfg.logger, EngineExpr, expression, ctx, start, err)
	return result, err
}

func (e *exprEvaluator) evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineExpr, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, e.environment(ctx))
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, ctx.label(), err)
	}
	return result, nil
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineExpr, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *exprEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cfg.cache != nil {
		if cached, ok := e.cfg.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.cfg.registry.Names() {
		options = append(options, exprlang.Function(name, e.registryFunction(name)))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, "", err)
	}
	if e.cfg.cache != nil {
		e.cfg.cache.Set(expression, program)
	}
	return program, nil
}

func (e *exprEvaluator) registryFunction(name string) func(...any) (any, error) {
	return func(arguments ...any) (any, error) {
		return e.cfg.registry.Call(name, arguments...)
	}
}

func (e *exprEvaluator) environment(ctx Context) map[string]any {
	return ctx.bindings()
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx Context) (any, error) {
	start := time.Now()
	result, err := exprlang.Run(r.program, r.evaluator.environment(ctx))
	if err != nil {
		err = wrapEvaluationError(EngineExpr, r.expression, ctx.label(), err)
	}
	logEvaluation(r.evaluator.cfg.logger, EngineExpr, r.expression, ctx, start, err)
	return result, err
}
