// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package iet implements ExprAlgebra (spec §4.A): the intermediate
// executable expression tree that the ImpTable lowers SQL operators into,
// plus the constructors and the local-simplification optimizer pass that
// operate on it. A tree built from this package is the thing a back end
// (out of scope here, per spec §1) would eventually compile to machine
// code; ImpTable only ever builds and optimizes it.
package iet

import "github.com/relgen/rexlower/reltype"

// Expr is the tagged-variant IET node type. Every constructor in this
// package returns a concrete type implementing Expr; callers switch on
// the concrete type (as RexToLixTranslator's callers do on Expression
// subclasses) rather than on a Kind tag, which keeps each node's fields
// statically typed.
type Expr interface {
	// ExprType reports the static SQL type the node evaluates to.
	ExprType() reltype.Type

	// simplify returns a locally-simplified form of the node, or nil if
	// no local rule applies. Optimize drives this bottom-up.
	simplify() Expr
}

// Const is a compile-time constant of a given type. A nil Value with a
// nullable type represents SQL NULL.
type Const struct {
	Value interface{}
	Typ   reltype.Type
}

func (c *Const) ExprType() reltype.Type { return c.Typ }

// NULL_EXPR, FALSE_EXPR, TRUE_EXPR, BOXED_TRUE_EXPR and BOXED_FALSE_EXPR are
// the five constant forms spec §4.A requires, distinguishing a primitive
// boolean from a nullable boxed one exactly as RexImpTable's
// ConstantExpression/MemberExpression pair does.
var (
	NULL_EXPR        Expr = &Const{Value: nil, Typ: reltype.AnyT(true)}
	FALSE_EXPR       Expr = &Const{Value: false, Typ: reltype.Bool(false)}
	TRUE_EXPR        Expr = &Const{Value: true, Typ: reltype.Bool(false)}
	BOXED_FALSE_EXPR Expr = &Const{Value: false, Typ: reltype.Bool(true)}
	BOXED_TRUE_EXPR  Expr = &Const{Value: true, Typ: reltype.Bool(true)}
)

// ConstOf builds a typed constant.
func ConstOf(value interface{}, typ reltype.Type) Expr {
	return &Const{Value: value, Typ: typ}
}

// Field reads a named member off Receiver (or off the row, if Receiver is
// nil), e.g. an operand that has already been bound to a temporary.
type Field struct {
	Receiver Expr
	Name     string
	Typ      reltype.Type
}

func (f *Field) ExprType() reltype.Type { return f.Typ }

// Param is a named, typed formal parameter — e.g. the row/context argument
// threaded through generated code. SystemFunctionImplementor's execution
// root and the aggregate accumulator cells are Params, referred to by
// name rather than as a fresh Field each time.
type Param struct {
	Name string
	Typ  reltype.Type
}

func (p *Param) ExprType() reltype.Type { return p.Typ }

// BinOpKind enumerates the binary operators IET nodes can carry, mirroring
// linq4j's ExpressionType enum as RexImpTable.BinaryImplementor uses it.
type BinOpKind int

const (
	Add BinOpKind = iota
	Subtract
	Multiply
	Divide
	Modulo
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	AndAlso
	OrElse
)

func (k BinOpKind) String() string {
	switch k {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case AndAlso:
		return "&&"
	case OrElse:
		return "||"
	default:
		return "?"
	}
}

// BinOp is a binary operator application.
type BinOp struct {
	Kind  BinOpKind
	Lhs   Expr
	Rhs   Expr
	Typ   reltype.Type
}

func (b *BinOp) ExprType() reltype.Type { return b.Typ }

// NewBinOp builds a BinOp node with the result type inferred from the
// operator: comparisons and AND/OR/NOT are non-nullable BOOLEAN only when
// both operands are non-nullable, everything else takes the left
// operand's type, made nullable if either operand is nullable.
func NewBinOp(kind BinOpKind, lhs, rhs Expr) *BinOp {
	var typ reltype.Type
	switch kind {
	case LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual, AndAlso, OrElse:
		typ = reltype.Bool(lhs.ExprType().Nullable || rhs.ExprType().Nullable)
	default:
		nullable := lhs.ExprType().Nullable || rhs.ExprType().Nullable
		typ = lhs.ExprType().WithNullability(nullable)
	}
	return &BinOp{Kind: kind, Lhs: lhs, Rhs: rhs, Typ: typ}
}

// UnaryOpKind enumerates the unary operators IET nodes can carry.
type UnaryOpKind int

const (
	Negate UnaryOpKind = iota
	UnaryPlus
	LogicalNot
)

// UnaryOp is a unary operator application.
type UnaryOp struct {
	Kind    UnaryOpKind
	Operand Expr
	Typ     reltype.Type
}

func (u *UnaryOp) ExprType() reltype.Type { return u.Typ }

// NewUnaryOp builds a UnaryOp node, preserving the operand's type.
func NewUnaryOp(kind UnaryOpKind, operand Expr) *UnaryOp {
	return &UnaryOp{Kind: kind, Operand: operand, Typ: operand.ExprType()}
}

// Not is a boolean negation with three-valued-logic semantics (NULL stays
// NULL). Distinct from UnaryOp{Kind: LogicalNot} because the NullPolicy
// engine treats NOT specially (spec §4.B, NullPolicy.NOT) and benefits
// from a dedicated node the optimizer can pattern-match on
// (not(not(x)) -> x).
type Not struct {
	Operand Expr
}

func (n *Not) ExprType() reltype.Type { return n.Operand.ExprType() }

// NewNot builds a Not node.
func NewNot(operand Expr) *Not { return &Not{Operand: operand} }

// Equal and NotEqual are reference/value equality tests used internally by
// the optimizer and by the null-check trees NullPolicy builds
// (x == NULL_EXPR, etc). They are distinct from BinOp's comparison kinds
// because spec §4.A calls out Equal(l,r)/NotEqual(l,r) as dedicated
// constructors with their own optimize rule (equal(NULL,NULL) -> true).
type Equal struct{ Lhs, Rhs Expr }

func (e *Equal) ExprType() reltype.Type { return reltype.Bool(false) }

type NotEqual struct{ Lhs, Rhs Expr }

func (e *NotEqual) ExprType() reltype.Type { return reltype.Bool(false) }

// NewEqual and NewNotEqual build the corresponding node.
func NewEqual(lhs, rhs Expr) *Equal       { return &Equal{Lhs: lhs, Rhs: rhs} }
func NewNotEqual(lhs, rhs Expr) *NotEqual { return &NotEqual{Lhs: lhs, Rhs: rhs} }

// Condition is a ternary if/then/else expression.
type Condition struct {
	Test, IfTrue, IfFalse Expr
}

func (c *Condition) ExprType() reltype.Type { return c.IfTrue.ExprType() }

// FoldAnd is the n-ary AND of a list of boolean expressions, with
// tautologies dropped and singleton lists collapsed (spec §4.A).
type FoldAnd struct{ Exprs []Expr }

func (f *FoldAnd) ExprType() reltype.Type { return reltype.Bool(anyNullable(f.Exprs)) }

// FoldOr is the n-ary OR dual of FoldAnd.
type FoldOr struct{ Exprs []Expr }

func (f *FoldOr) ExprType() reltype.Type { return reltype.Bool(anyNullable(f.Exprs)) }

func anyNullable(exprs []Expr) bool {
	for _, e := range exprs {
		if e.ExprType().Nullable {
			return true
		}
	}
	return false
}

// MethodCall invokes Symbol on Target (a static call when Target is nil),
// passing Args.
type MethodCall struct {
	Target Expr
	Symbol string
	Args   []Expr
	Typ    reltype.Type
}

func (m *MethodCall) ExprType() reltype.Type { return m.Typ }

// Cast converts Operand to TargetType.
type Cast struct {
	TargetType reltype.Type
	Operand    Expr
}

func (c *Cast) ExprType() reltype.Type { return c.TargetType }

// Declare introduces a new local variable, optionally with an
// initializer.
type Declare struct {
	Var  *Param
	Init Expr
}

func (d *Declare) ExprType() reltype.Type { return reltype.Type{} }

// Assign stores Value into Var.
type Assign struct {
	Var   *Param
	Value Expr
}

func (a *Assign) ExprType() reltype.Type { return a.Value.ExprType() }

// IfThen is a statement-position conditional; ElseBlock may be nil.
type IfThen struct {
	Test      Expr
	ThenBlock *Block
	ElseBlock *Block
}

func (i *IfThen) ExprType() reltype.Type { return reltype.Type{} }

// Throw raises a runtime exception (spec §7.6, e.g. SINGLE_VALUE-more-
// than-one). It is embedded directly in the generated IET and is a
// runtime, not a code-generation, error.
type Throw struct {
	Exception string
}

func (t *Throw) ExprType() reltype.Type { return reltype.Type{} }

// Block is a sequence of statements followed by a terminal expression
// (the block's value, if used in expression position).
type Block struct {
	Stmts    []Expr
	Terminal Expr
}

func (b *Block) ExprType() reltype.Type {
	if b.Terminal != nil {
		return b.Terminal.ExprType()
	}
	return reltype.Type{}
}
