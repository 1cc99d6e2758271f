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

package imptable

import (
	"github.com/relgen/rexlower/iet"
	"github.com/relgen/rexlower/relnode"
	"github.com/relgen/rexlower/reltype"
)

// Translator is the capability the ImpTable consumes to recursively
// lower sub-expressions (spec §6). Implementors never construct IET
// nodes for an operand directly; they always go through a Translator so
// that nullability tracking, block-nesting, and cast insertion stay
// consistent across the whole tree.
type Translator interface {
	// Translate lowers node under the given demand.
	Translate(node relnode.Node, as NullAs) (iet.Expr, error)

	// TranslateList lowers every node in nodes under the given demand,
	// left to right (spec §5's ordering guarantee).
	TranslateList(nodes []relnode.Node, as NullAs) ([]iet.Expr, error)

	// IsNullable reports whether node's static type allows null.
	IsNullable(node relnode.Node) bool

	// SetNullable returns a derived Translator view under which node
	// (and any reference to it) is treated with the given nullability,
	// without mutating the receiver — e.g. what implementNullSemantics0
	// uses after it has already emitted a null guard for an operand.
	SetNullable(node relnode.Node, nullable bool) Translator

	// EnsureType coerces expr to targetType, inserting a CAST only if
	// needed; matchNullability additionally requires nullability to
	// agree, not just the underlying kind.
	EnsureType(targetType reltype.Type, expr iet.Expr, matchNullability bool) iet.Expr

	// NullifyType returns t with its nullability set to nullable.
	NullifyType(t reltype.Type, nullable bool) reltype.Type

	// TranslateCast lowers a CAST of source (already-translated) to
	// target.
	TranslateCast(source iet.Expr, target reltype.Type) (iet.Expr, error)

	// TranslateConstructor lowers a ROW/ARRAY/MAP constructor call over
	// the given (untranslated) operands.
	TranslateConstructor(ops []relnode.Node, kind relnode.SqlOperator) (iet.Expr, error)

	// CurrentBlock returns the statement block currently being emitted
	// into.
	CurrentBlock() *iet.Block

	// NestBlock returns a derived Translator that emits into a fresh
	// nested block, for implementors (STRICT's null-guard, CASE) that
	// need to bind temporaries before producing their result expression.
	NestBlock() Translator

	// ExitBlock closes the block opened by the most recent NestBlock and
	// returns the expression that represents its value.
	ExitBlock() iet.Expr
}
