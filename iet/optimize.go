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

package iet

// IsConstantNull reports whether e is syntactically the NULL constant,
// the predicate RexImpTable.implementCall uses to short-circuit a CASE
// or CAST branch before even emitting it.
func IsConstantNull(e Expr) bool {
	c, ok := e.(*Const)
	return ok && c.Value == nil
}

// isConstantBool reports whether e is a boolean literal and, if so, its
// value.
func isConstantBool(e Expr) (value, ok bool) {
	c, isConst := e.(*Const)
	if !isConst {
		return false, false
	}
	b, isBool := c.Value.(bool)
	return b, isBool
}

// Optimize applies simplify bottom-up, walking children first so a rule
// at a parent node sees already-simplified operands — the same
// post-order strategy expr.Rewrite uses to drive Node.simplify.
func Optimize(e Expr) Expr {
	e = optimizeChildren(e)
	if s := e.simplify(); s != nil {
		return Optimize(s)
	}
	return e
}

// Optimize2 optimizes e under the extra fact that Operand is known
// non-null — the refinement RexImpTable.implementNullSemantics applies
// after it has already emitted an is-null guard for Operand, so the
// guarded branch doesn't re-derive what the caller already knows.
func Optimize2(operand Expr, e Expr) Expr {
	e = Optimize(e)
	if eq, ok := e.(*Equal); ok {
		if sameNode(eq.Lhs, operand) && IsConstantNull(eq.Rhs) {
			return FALSE_EXPR
		}
		if sameNode(eq.Rhs, operand) && IsConstantNull(eq.Lhs) {
			return FALSE_EXPR
		}
	}
	if ne, ok := e.(*NotEqual); ok {
		if (sameNode(ne.Lhs, operand) && IsConstantNull(ne.Rhs)) ||
			(sameNode(ne.Rhs, operand) && IsConstantNull(ne.Lhs)) {
			return TRUE_EXPR
		}
	}
	return e
}

// sameNode is a shallow, pointer-identity-or-field-reference equality
// test, sufficient for recognizing "this is the operand I already
// null-checked" without a full structural comparison.
func sameNode(a, b Expr) bool {
	if a == b {
		return true
	}
	fa, oka := a.(*Field)
	fb, okb := b.(*Field)
	if oka && okb {
		return fa.Name == fb.Name && sameReceiver(fa.Receiver, fb.Receiver)
	}
	return false
}

func sameReceiver(a, b Expr) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return sameNode(a, b)
}

func optimizeChildren(e Expr) Expr {
	switch n := e.(type) {
	case *BinOp:
		return &BinOp{Kind: n.Kind, Lhs: Optimize(n.Lhs), Rhs: Optimize(n.Rhs), Typ: n.Typ}
	case *UnaryOp:
		return &UnaryOp{Kind: n.Kind, Operand: Optimize(n.Operand), Typ: n.Typ}
	case *Not:
		return &Not{Operand: Optimize(n.Operand)}
	case *Equal:
		return &Equal{Lhs: Optimize(n.Lhs), Rhs: Optimize(n.Rhs)}
	case *NotEqual:
		return &NotEqual{Lhs: Optimize(n.Lhs), Rhs: Optimize(n.Rhs)}
	case *Condition:
		return &Condition{Test: Optimize(n.Test), IfTrue: Optimize(n.IfTrue), IfFalse: Optimize(n.IfFalse)}
	case *FoldAnd:
		return &FoldAnd{Exprs: optimizeAll(n.Exprs)}
	case *FoldOr:
		return &FoldOr{Exprs: optimizeAll(n.Exprs)}
	case *MethodCall:
		var target Expr
		if n.Target != nil {
			target = Optimize(n.Target)
		}
		return &MethodCall{Target: target, Symbol: n.Symbol, Args: optimizeAll(n.Args), Typ: n.Typ}
	case *Cast:
		return &Cast{TargetType: n.TargetType, Operand: Optimize(n.Operand)}
	default:
		return e
	}
}

func optimizeAll(exprs []Expr) []Expr {
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = Optimize(e)
	}
	return out
}

// ---- per-node simplify rules ----
//
// Each rule below mirrors a concrete local rewrite from
// RexImpTable/linq4j's own expression-simplification pass: constant
// folding of IS NULL-style comparisons, tautology elimination in FoldAnd/
// FoldOr, and double-negation collapse. A nil return means "no rule
// fired"; Optimize treats that as already-simplified.

func (c *Const) simplify() Expr  { return nil }
func (f *Field) simplify() Expr  { return nil }
func (p *Param) simplify() Expr  { return nil }
func (d *Declare) simplify() Expr { return nil }
func (a *Assign) simplify() Expr { return nil }
func (i *IfThen) simplify() Expr { return nil }
func (t *Throw) simplify() Expr  { return nil }
func (b *Block) simplify() Expr  { return nil }

func (n *Not) simplify() Expr {
	if inner, ok := n.Operand.(*Not); ok {
		return inner.Operand
	}
	if v, ok := isConstantBool(n.Operand); ok {
		if v {
			return FALSE_EXPR
		}
		return TRUE_EXPR
	}
	return nil
}

func (e *Equal) simplify() Expr {
	if IsConstantNull(e.Lhs) && IsConstantNull(e.Rhs) {
		return TRUE_EXPR
	}
	return nil
}

func (e *NotEqual) simplify() Expr {
	if IsConstantNull(e.Lhs) && IsConstantNull(e.Rhs) {
		return FALSE_EXPR
	}
	return nil
}

func (c *Condition) simplify() Expr {
	if v, ok := isConstantBool(c.Test); ok {
		if v {
			return c.IfTrue
		}
		return c.IfFalse
	}
	return nil
}

func (b *BinOp) simplify() Expr {
	switch b.Kind {
	case AndAlso:
		if v, ok := isConstantBool(b.Lhs); ok {
			if !v {
				return FALSE_EXPR
			}
			return b.Rhs
		}
		if v, ok := isConstantBool(b.Rhs); ok {
			if !v {
				return FALSE_EXPR
			}
			return b.Lhs
		}
	case OrElse:
		if v, ok := isConstantBool(b.Lhs); ok {
			if v {
				return TRUE_EXPR
			}
			return b.Rhs
		}
		if v, ok := isConstantBool(b.Rhs); ok {
			if v {
				return TRUE_EXPR
			}
			return b.Lhs
		}
	}
	return nil
}

func (u *UnaryOp) simplify() Expr { return nil }

func (f *FoldAnd) simplify() Expr {
	kept := make([]Expr, 0, len(f.Exprs))
	for _, e := range f.Exprs {
		if v, ok := isConstantBool(e); ok {
			if !v {
				return FALSE_EXPR
			}
			continue // drop TRUE operands
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return TRUE_EXPR
	}
	if len(kept) == 1 {
		return kept[0]
	}
	if len(kept) != len(f.Exprs) {
		return &FoldAnd{Exprs: kept}
	}
	return nil
}

func (f *FoldOr) simplify() Expr {
	kept := make([]Expr, 0, len(f.Exprs))
	for _, e := range f.Exprs {
		if v, ok := isConstantBool(e); ok {
			if v {
				return TRUE_EXPR
			}
			continue // drop FALSE operands
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return FALSE_EXPR
	}
	if len(kept) == 1 {
		return kept[0]
	}
	if len(kept) != len(f.Exprs) {
		return &FoldOr{Exprs: kept}
	}
	return nil
}

func (m *MethodCall) simplify() Expr { return nil }

func (c *Cast) simplify() Expr {
	if c.Operand.ExprType().Equal(c.TargetType) {
		return c.Operand
	}
	return nil
}
