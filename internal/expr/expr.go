package expr

import (
	"errors"
	"fmt"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"

	"entity-manager/internal/common"
)

const (
	// MaxLength bounds the source size of a single expression.
	MaxLength = 4096
	// MaxNodes bounds the syntax tree of a single expression.
	MaxNodes = 512
)

var (
	// ErrSyntax is returned for expressions that do not compile.
	ErrSyntax = errors.New("expression syntax error")
	// ErrUndefined is returned when an expression evaluates to nothing.
	ErrUndefined = errors.New("expression is undefined")
	// ErrEval is returned for type and reference errors during evaluation.
	ErrEval = errors.New("expression evaluation failed")
)

// Func is a function callable from expressions.
type Func func(args ...any) (any, error)

// Scope is the environment an expression is evaluated in.
type Scope struct {
	// Vars are named values visible as identifiers.
	Vars map[string]any
	// Fallback is a document whose top-level fields are visible as
	// identifiers when no variable of that name exists.
	Fallback any

	env map[string]any
}

func (s *Scope) environment() map[string]any {
	if s == nil {
		return map[string]any{}
	}

	if s.env != nil {
		return s.env
	}

	doc, _ := s.Fallback.(map[string]any)

	env := make(map[string]any, len(doc)+len(s.Vars))
	for k, v := range doc {
		env[k] = v
	}

	for k, v := range s.Vars {
		env[k] = v
	}

	s.env = env

	return env
}

// Program is a compiled expression. It is safe for concurrent use.
type Program struct {
	src     string
	program *vm.Program
}

// String returns the source of the program.
func (p *Program) String() string {
	return p.src
}

type options struct {
	funcs map[string]Func
}

// Option configures Compile.
type Option func(*options)

// WithFuncs replaces DefaultFuncs as the set of callable functions.
func WithFuncs(funcs map[string]Func) Option {
	return func(o *options) {
		o.funcs = funcs
	}
}

// Compile parses src.
func Compile(src string, opts ...Option) (p *Program, err error) {
	if len(src) > MaxLength {
		return nil, fmt.Errorf("%w: expression longer than %d bytes", ErrSyntax, MaxLength)
	}

	o := options{funcs: DefaultFuncs}
	for _, opt := range opts {
		opt(&o)
	}

	guard := &callGuard{funcs: o.funcs}

	compileOpts := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
		exprlang.DisableAllBuiltins(),
		exprlang.MaxNodes(MaxNodes),
		exprlang.Patch(guard),
	}

	for _, name := range common.SortedKeys(o.funcs) {
		compileOpts = append(compileOpts, exprlang.Function(name, o.funcs[name]))
	}

	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("%w: %v", ErrSyntax, r)
		}
	}()

	program, err := exprlang.Compile(src, compileOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	if guard.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, guard.err)
	}

	return &Program{src: src, program: program}, nil
}

// callGuard rejects calls of anything but a registered function by name.
type callGuard struct {
	funcs map[string]Func
	err   error
}

func (g *callGuard) Visit(node *ast.Node) {
	call, ok := (*node).(*ast.CallNode)
	if !ok || g.err != nil {
		return
	}

	if id, ok := call.Callee.(*ast.IdentifierNode); ok {
		if _, known := g.funcs[id.Value]; !known {
			g.err = fmt.Errorf("%s is not a function", id.Value)
		}

		return
	}

	g.err = errors.New("only named functions can be called")
}

// Eval compiles src with DefaultFuncs and evaluates it in scope.
func Eval(src string, scope *Scope) (any, error) {
	p, err := Compile(src)
	if err != nil {
		return nil, err
	}

	return p.Eval(scope)
}

// Eval evaluates the program in scope.
func (p *Program) Eval(scope *Scope) (v any, err error) {
	// runtime faults the evaluator does not report itself still end up as ErrEval
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: %v", ErrEval, r)
		}
	}()

	out, err := exprlang.Run(p.program, scope.environment())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEval, err)
	}

	if out == nil {
		return nil, ErrUndefined
	}

	return normalize(out), nil
}

// normalize turns integers into float64, recursively through lists and
// objects.
func normalize(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}

		return out
	case string, bool, float64:
		return v
	}

	if f, ok := ToNumber(v); ok {
		return f
	}

	return v
}
