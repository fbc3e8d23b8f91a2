// Package rules evaluates boolean option rules with pluggable expression
// engines: expr-lang/expr (default), cel-go, and goja behind the js_eval
// build tag.
package rules

import "time"

// Engine names accepted by New.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Context carries the inputs visible to an expression. Snapshot keys are
// exposed as top-level identifiers next to field, value and now.
type Context struct {
	Snapshot map[string]any
	Field    string
	Value    any
	Now      *time.Time
}

func (ctx Context) withDefaults() Context {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	return ctx
}

func (ctx Context) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

func (ctx Context) label() string {
	if ctx.Field == "" {
		return "unknown"
	}
	return ctx.Field
}

// bindings flattens ctx into the variable set handed to every engine.
func (ctx Context) bindings() map[string]any {
	ctx = ctx.withDefaults()
	env := make(map[string]any, len(ctx.Snapshot)+3)
	for key, value := range ctx.Snapshot {
		env[key] = value
	}
	env["now"] = ctx.timestamp()
	env["field"] = ctx.Field
	env["value"] = ctx.Value
	return env
}

// Evaluator executes expressions against a Context.
type Evaluator interface {
	Evaluate(ctx Context, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx Context) (any, error)
}

// ProgramCache stores compiled programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
