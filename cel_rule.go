package undo

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry replaces the default helper functions. CEL exposes
// each registered function as a single string argument overload.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs a RuleEvaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) RuleEvaluator {
	e := &celEvaluator{registry: DefaultFunctions()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Engine() string {
	return "cel"
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapRuleError("cel", expression, errEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &celCompiledRule{program: program, expression: expression}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, wrapRuleError("cel", expression, err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapRuleError("cel", expression, issues.Err())
	}
	if out := ast.OutputType(); out != nil && out.String() != celgo.BoolType.String() && out.String() != celgo.DynType.String() {
		return nil, wrapRuleError("cel", expression, fmt.Errorf("expression yields %s, not bool", out))
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapRuleError("cel", expression, err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("label", celgo.StringType),
		celgo.Variable("previous", celgo.StringType),
		celgo.Variable("cursor", celgo.IntType),
		celgo.Variable("length", celgo.IntType),
	}
	for _, name := range e.registry.Names() {
		opts = append(opts, celgo.Function(name,
			celgo.Overload(name+"_string",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType,
				celgo.UnaryBinding(e.callBinding(name)),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) callBinding(name string) func(ref.Val) ref.Val {
	registry := e.registry
	return func(value ref.Val) ref.Val {
		argument, ok := value.Value().(string)
		if !ok {
			return types.NewErr("undo: %s expects a string argument", name)
		}
		result, err := registry.Call(name, argument)
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
	program    celgo.Program
	expression string
}

func (r *celCompiledRule) Evaluate(ctx SquashContext) (any, error) {
	out, _, err := r.program.Eval(map[string]any{
		"label":    ctx.Label,
		"previous": ctx.Previous,
		"cursor":   int64(ctx.Cursor),
		"length":   int64(ctx.Length),
	})
	if err != nil {
		return nil, wrapRuleError("cel", r.expression, err)
	}
	return out.Value(), nil
}
