package undo

import (
	"fmt"
	"strings"
)

// RuleEvaluator compiles squash rule expressions.
type RuleEvaluator interface {
	Engine() string
	Compile(expression string) (CompiledRule, error)
}

// CompiledRule is a reusable program evaluated against a SquashContext.
type CompiledRule interface {
	Evaluate(ctx SquashContext) (any, error)
}

// ProgramCache stores compiled programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// NewSquashRule compiles expression with evaluator into a SquashRule. The
// expression sees label, previous, cursor and length, and must produce a
// bool.
func NewSquashRule(evaluator RuleEvaluator, expression string) (SquashRule, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("undo: rule evaluator is required")
	}
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, wrapRuleError(evaluator.Engine(), expression, errEmptyExpression)
	}
	compiled, err := evaluator.Compile(expression)
	if err != nil {
		return nil, wrapRuleError(evaluator.Engine(), expression, err)
	}
	return &expressionRule{
		engine:     evaluator.Engine(),
		expression: expression,
		compiled:   compiled,
	}, nil
}

// NewExprSquashRule compiles expression with expr-lang/expr.
func NewExprSquashRule(expression string, opts ...ExprEvaluatorOption) (SquashRule, error) {
	return NewSquashRule(NewExprEvaluator(opts...), expression)
}

// NewCELSquashRule compiles expression with cel-go.
func NewCELSquashRule(expression string, opts ...CELEvaluatorOption) (SquashRule, error) {
	return NewSquashRule(NewCELEvaluator(opts...), expression)
}

// NewJSSquashRule compiles expression with goja. It fails with
// ErrJSUnavailable unless the module is built with the js_eval tag.
func NewJSSquashRule(expression string, opts ...JSEvaluatorOption) (SquashRule, error) {
	evaluator := NewJSEvaluator(opts...)
	if evaluator == nil {
		return nil, ErrJSUnavailable
	}
	return NewSquashRule(evaluator, expression)
}

type expressionRule struct {
	engine     string
	expression string
	compiled   CompiledRule
}

func (r *expressionRule) ShouldSquash(ctx SquashContext) (bool, error) {
	value, err := r.compiled.Evaluate(ctx)
	if err != nil {
		return false, wrapRuleError(r.engine, r.expression, err)
	}
	match, ok := value.(bool)
	if !ok {
		return false, wrapRuleError(r.engine, r.expression, fmt.Errorf("result %T is not a bool", value))
	}
	return match, nil
}

// String returns the engine-qualified expression.
func (r *expressionRule) String() string {
	return r.engine + ":" + r.expression
}
