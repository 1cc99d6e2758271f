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

import (
	"testing"

	"github.com/relgen/rexlower/reltype"
)

func mkField(name string) *Field {
	return &Field{Name: name, Typ: reltype.IntType(true)}
}

func TestOptimizeNotNot(t *testing.T) {
	f := mkField("x")
	got := Optimize(NewNot(NewNot(f)))
	if got != Expr(f) {
		t.Errorf("not(not(x)) = %v, want x", got)
	}
}

func TestOptimizeFoldAndDropsTrue(t *testing.T) {
	f := mkField("x")
	got := Optimize(NewFoldAnd(TRUE_EXPR, f, TRUE_EXPR))
	if got != Expr(f) {
		t.Errorf("and(true, x, true) = %v, want x", got)
	}
}

func TestOptimizeFoldAndShortCircuitsFalse(t *testing.T) {
	f := mkField("x")
	got := Optimize(NewFoldAnd(f, FALSE_EXPR))
	if got != FALSE_EXPR {
		t.Errorf("and(x, false) = %v, want FALSE_EXPR", got)
	}
}

func TestOptimizeFoldOrShortCircuitsTrue(t *testing.T) {
	f := mkField("x")
	got := Optimize(NewFoldOr(f, TRUE_EXPR))
	if got != TRUE_EXPR {
		t.Errorf("or(x, true) = %v, want TRUE_EXPR", got)
	}
}

func TestOptimizeEqualNullNull(t *testing.T) {
	got := Optimize(NewEqual(NULL_EXPR, NULL_EXPR))
	if got != TRUE_EXPR {
		t.Errorf("equal(NULL, NULL) = %v, want TRUE_EXPR", got)
	}
}

func TestOptimize2KnownNonNull(t *testing.T) {
	f := mkField("x")
	e := NewEqual(f, NULL_EXPR)
	got := Optimize2(f, e)
	if got != FALSE_EXPR {
		t.Errorf("Optimize2(x, equal(x, NULL)) = %v, want FALSE_EXPR (x is known non-null)", got)
	}
}

func TestOptimizeConditionConstantTest(t *testing.T) {
	f := mkField("x")
	got := Optimize(NewCondition(TRUE_EXPR, f, FALSE_EXPR))
	if got != Expr(f) {
		t.Errorf("condition(true, x, false) = %v, want x", got)
	}
}

func TestOptimizeCastNoOp(t *testing.T) {
	f := &Field{Name: "n", Typ: reltype.IntType(false)}
	got := Optimize(NewCast(f, reltype.IntType(false)))
	if got != Expr(f) {
		t.Errorf("cast(n, INT) = %v, want n unchanged (already INT)", got)
	}
}

func TestNewDeclareFreshNamesDontCollide(t *testing.T) {
	_, p1 := NewDeclare("tmp", TRUE_EXPR)
	_, p2 := NewDeclare("tmp", TRUE_EXPR)
	if p1.Name == p2.Name {
		t.Errorf("expected distinct fresh names, got %q twice", p1.Name)
	}
}
