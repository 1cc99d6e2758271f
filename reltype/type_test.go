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

package reltype

import "testing"

func TestIsPrimitive(t *testing.T) {
	cases := []struct {
		typ  Type
		want bool
	}{
		{IntType(false), true},
		{IntType(true), false},
		{VarcharT(false), false},
		{Bool(false), true},
		{DecimalT(false, 10, 2), false},
	}
	for _, c := range cases {
		if got := c.typ.IsPrimitive(); got != c.want {
			t.Errorf("%v.IsPrimitive() = %v, want %v", c.typ, got, c.want)
		}
	}
}

func TestLeastRestrictive(t *testing.T) {
	cases := []struct {
		name  string
		types []Type
		want  Type
		ok    bool
	}{
		{"same", []Type{IntType(false), IntType(false)}, Type{Kind: Int}, true},
		{"int-bigint", []Type{IntType(false), BigIntT(false)}, Type{Kind: BigInt}, true},
		{"int-double", []Type{IntType(false), DoubleT(false)}, Type{Kind: Double}, true},
		{"decimal-widen", []Type{DecimalT(false, 5, 2), DecimalT(false, 8, 1)}, Type{Kind: Decimal, Precision: 8, Scale: 2}, true},
		{"no-common", []Type{IntervalT(false), VarcharT(false)}, Type{}, false},
	}
	for _, c := range cases {
		got, ok := LeastRestrictive(c.types)
		if ok != c.ok {
			t.Fatalf("%s: ok = %v, want %v", c.name, ok, c.ok)
		}
		if ok && got != c.want {
			t.Errorf("%s: got %+v, want %+v", c.name, got, c.want)
		}
	}
}

func TestAllSame(t *testing.T) {
	if !AllSame([]Type{IntType(false), IntType(false)}) {
		t.Error("expected AllSame to be true")
	}
	if AllSame([]Type{IntType(false), IntType(true)}) {
		t.Error("expected AllSame to be false across nullability")
	}
}
