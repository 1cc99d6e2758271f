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

// Package imptable is the SQL operator implementation table: the
// registry of per-operator implementors, wrapped in a null-handling
// strategy, that lowers relnode.Call trees into iet.Expr trees.
package imptable

import (
	"github.com/relgen/rexlower/iet"
	"github.com/relgen/rexlower/reltype"
)

// NullAs is the demand a caller places on a lowering: how the surrounding
// context wants null handled in the result (spec §3).
type NullAs int

const (
	// NullAsNull yields the value as-is, possibly null. The default.
	NullAsNull NullAs = iota
	// NullAsFalse replaces a null result with FALSE.
	NullAsFalse
	// NullAsTrue replaces a null result with TRUE.
	NullAsTrue
	// NullAsNotPossible asserts the operands are statically known
	// non-null, licensing unboxed primitive code generation.
	NullAsNotPossible
	// NullAsIsNull yields boolean `x IS NULL`.
	NullAsIsNull
	// NullAsIsNotNull yields boolean `x IS NOT NULL`.
	NullAsIsNotNull
)

func (n NullAs) String() string {
	switch n {
	case NullAsNull:
		return "NULL"
	case NullAsFalse:
		return "FALSE"
	case NullAsTrue:
		return "TRUE"
	case NullAsNotPossible:
		return "NOT_POSSIBLE"
	case NullAsIsNull:
		return "IS_NULL"
	case NullAsIsNotNull:
		return "IS_NOT_NULL"
	default:
		return "UNKNOWN"
	}
}

// Negate flips FALSE<->TRUE, the demand transformation NullPolicy.NOT
// applies before delegating (spec §4.B).
func (n NullAs) Negate() NullAs {
	switch n {
	case NullAsFalse:
		return NullAsTrue
	case NullAsTrue:
		return NullAsFalse
	default:
		return n
	}
}

// Handle applies this demand to an already-lowered expression x that may
// evaluate to SQL null, producing an expression whose value matches what
// the demand asked for. This is the direct analog of NullAs.handle
// branching on Primitive.flavor in the source material.
func (n NullAs) Handle(x iet.Expr) iet.Expr {
	switch n {
	case NullAsNull:
		return x
	case NullAsFalse:
		return handleBoolDefault(x, iet.FALSE_EXPR)
	case NullAsTrue:
		return handleBoolDefault(x, iet.TRUE_EXPR)
	case NullAsNotPossible:
		// operand is asserted non-null; no guard needed, but a primitive
		// (unboxed) type has no null representation to unwrap either way.
		if reltype.FlavorOf(x.ExprType()) == reltype.FlavorPrimitive {
			return x
		}
		return x
	case NullAsIsNull:
		return iet.NewEqual(x, iet.NULL_EXPR)
	case NullAsIsNotNull:
		return iet.NewNotEqual(x, iet.NULL_EXPR)
	default:
		return x
	}
}

// handleBoolDefault rewrites x so that a null result becomes dflt
// instead, skipping the rewrite entirely when x's type can never be null
// at the machine level (the primitive fast path NullAs.handle takes).
func handleBoolDefault(x iet.Expr, dflt iet.Expr) iet.Expr {
	if reltype.FlavorOf(x.ExprType()) == reltype.FlavorPrimitive {
		return x
	}
	return iet.NewCondition(iet.NewEqual(x, iet.NULL_EXPR), dflt, x)
}
