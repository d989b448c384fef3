// Package expr evaluates the expressions allowed in schema leaves that do
// not resolve as paths.
//
// Expressions use the expr-lang syntax with every builtin disabled. The only
// callable functions are the ones given at compile time (DefaultFuncs unless
// WithFuncs says otherwise), identifiers resolve against the Scope, and the
// program size is bounded by MaxLength and MaxNodes.
//
//	first + ' ' + last
//	object.price * 100
//	price > 10 ? 'expensive' : 'cheap'
//	upper(object['content-type'])
//	coalesce(nick, first)
//
// Numbers come out as float64, like decoded JSON. A program whose value is
// nil fails with ErrUndefined.
package expr
