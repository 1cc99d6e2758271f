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
	"testing"

	"github.com/relgen/rexlower/iet"
	"github.com/relgen/rexlower/reltype"
)

// TestRowNumberIsOneThroughN checks spec §8.7's window positional law:
// for ROW_NUMBER in any partition of size n, the result sequence is
// 1..n.
func TestRowNumberIsOneThroughN(t *testing.T) {
	impl := NewRowNumberAgg()
	for i := int64(0); i < 5; i++ {
		ctx := &WinAggContext{
			AggContext:      AggContext{Translator: fakeTranslator{}, ResultType: reltype.BigIntT(false)},
			CurrentPosition: iet.ConstOf(i, reltype.BigIntT(false)),
			StartIndex:      iet.ConstOf(int64(0), reltype.BigIntT(false)),
		}
		resultExpr, err := impl.Result(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got := eval(resultExpr, newEnv(nil)); got != i+1 {
			t.Errorf("ROW_NUMBER at position %d = %v, want %d", i, got, i+1)
		}
	}
}

// TestRankMatchesTiesThenJumps checks spec §8.7's second window
// positional law: RANK assigns equal values to rows tied under the
// ORDER BY key, then jumps by the tie count — for sorted values
// [1,1,3,4,5] the expected ranks are [1,1,3,4,5].
func TestRankMatchesTiesThenJumps(t *testing.T) {
	sortedValues := []int64{1, 1, 3, 4, 5}
	impl := NewRankAgg()
	acc := &iet.Param{Name: "rankAcc", Typ: reltype.BigIntT(false)}
	ctx := &WinAggContext{
		AggContext: AggContext{
			Translator:   fakeTranslator{},
			Accumulators: []*iet.Param{acc},
			ResultType:   reltype.BigIntT(false),
		},
		StartIndex: iet.ConstOf(int64(0), reltype.BigIntT(false)),
		CompareRows: func(i, j iet.Expr) iet.Expr {
			en := newEnv(nil)
			iv := sortedValues[eval(i, en).(int64)]
			jv := sortedValues[eval(j, en).(int64)]
			if iv == jv {
				return iet.ConstOf(int64(0), reltype.BigIntT(false))
			}
			return iet.ConstOf(int64(1), reltype.BigIntT(false))
		},
	}
	en := newEnv(nil)
	resetStmt, err := impl.Reset(ctx)
	if err != nil {
		t.Fatal(err)
	}
	eval(resetStmt, en)

	var ranks []int64
	for i := int64(0); i < int64(len(sortedValues)); i++ {
		ctx.CurrentPosition = iet.ConstOf(i, reltype.BigIntT(false))
		addStmt, err := impl.Add(ctx)
		if err != nil {
			t.Fatal(err)
		}
		eval(addStmt, en)
		resultExpr, err := impl.Result(ctx)
		if err != nil {
			t.Fatal(err)
		}
		ranks = append(ranks, eval(resultExpr, en).(int64))
	}

	want := []int64{1, 1, 3, 4, 5}
	for i, w := range want {
		if ranks[i] != w {
			t.Errorf("RANK at position %d = %d, want %d (full sequence %v)", i, ranks[i], w, ranks)
		}
	}
}
