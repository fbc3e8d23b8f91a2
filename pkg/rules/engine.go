package rules

import (
	"fmt"
	"time"
)

// Option configures an evaluator.
type Option func(*config)

type config struct {
	cache    ProgramCache
	registry *FunctionRegistry
	logger   Logger
}

// WithProgramCache reuses compiled programs across evaluations.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes registry functions to expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

// WithLogger records every evaluation through logger.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

func applyOptions(opts []Option) config {
	cfg := config{logger: noopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// New returns the evaluator registered under engine. An empty engine selects
// expr.
func New(engine string, opts ...Option) (Evaluator, error) {
	switch engine {
	case "", EngineExpr:
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		evaluator := NewJSEvaluator(opts...)
		if evaluator == nil {
			return nil, fmt.Errorf("%w: %s", ErrEngineUnavailable, engine)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// Check evaluates expr and requires a boolean result.
func Check(evaluator Evaluator, ctx Context, expr string) (bool, error) {
	if evaluator == nil {
		return false, fmt.Errorf("rules: evaluator is required")
	}
	result, err := evaluator.Evaluate(ctx, expr)
	if err != nil {
		return false, err
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, wrapEvaluationError(engineName(evaluator), expr, ctx.Field, fmt.Errorf("%w: got %T", ErrNotBoolean, result))
	}
	return ok, nil
}

func engineName(e Evaluator) string {
	switch e.(type) {
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	default:
		return "custom"
	}
}

func logEvaluation(logger Logger, engine, expr string, ctx Context, start time.Time, err error) {
	logger.LogEvaluation(LogEvent{
		Engine:   engine,
		Expr:     expr,
		Field:    ctx.label(),
		Duration: time.Since(start),
		Err:      err,
	})
}
