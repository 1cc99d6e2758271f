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
	"github.com/relgen/rexlower/reltype"
)

// WinAggContext extends AggContext with the positional information a
// window aggregate needs (spec §3): the current row's position, the
// frame's bounds within the partition, and callbacks for comparing rows
// under the ORDER BY key, testing whether an index falls within the
// partition, and binding a Translator to a specific row index so an
// argument can be evaluated there instead of at the current row.
type WinAggContext struct {
	AggContext
	CurrentPosition   iet.Expr
	StartIndex        iet.Expr
	EndIndex          iet.Expr
	FrameRowCount     iet.Expr
	PartitionRowCount iet.Expr
	CompareRows       func(i, j iet.Expr) iet.Expr
	RowInPartition    func(i iet.Expr) iet.Expr
	RowTranslator     func(i iet.Expr) Translator
}

// WinAggImplementor is the frame-aware state machine interface spec
// §4.G requires of every window aggregate.
type WinAggImplementor interface {
	StateTypes(resultType reltype.Type) []reltype.Type
	NeedCacheWhenFrameIntact() bool
	Reset(ctx *WinAggContext) (iet.Expr, error)
	Add(ctx *WinAggContext) (iet.Expr, error)
	Result(ctx *WinAggContext) (iet.Expr, error)
}

// rankAgg implements RANK (spec §4.G): state [long]; on add, if the
// current row's ORDER BY key differs from the previous row's, the
// accumulator jumps to currentPosition-startIndex; result is 1-based.
type rankAgg struct {
	denseRank bool
}

func (rankAgg) StateTypes(reltype.Type) []reltype.Type { return []reltype.Type{reltype.BigIntT(false)} }

func (rankAgg) Reset(ctx *WinAggContext) (iet.Expr, error) {
	return iet.NewAssign(ctx.Accumulators[0], iet.ConstOf(int64(0), reltype.BigIntT(false))), nil
}

func (r rankAgg) Add(ctx *WinAggContext) (iet.Expr, error) {
	acc := ctx.Accumulators[0]
	afterStart := iet.NewBinOp(iet.GreaterThan, ctx.CurrentPosition, ctx.StartIndex)
	// The previous row is only compared after the partition start; at the
	// start the row is compared with itself, so no index before
	// StartIndex ever reaches CompareRows.
	prev := iet.NewCondition(afterStart,
		iet.NewBinOp(iet.Subtract, ctx.CurrentPosition, iet.ConstOf(int64(1), reltype.BigIntT(false))),
		ctx.CurrentPosition)
	cmp := ctx.CompareRows(prev, ctx.CurrentPosition)
	differs := iet.NewNotEqual(cmp, iet.ConstOf(int64(0), reltype.BigIntT(false)))
	var newValue iet.Expr
	if r.denseRank {
		newValue = iet.NewBinOp(iet.Add, acc, iet.ConstOf(int64(1), reltype.BigIntT(false)))
	} else {
		newValue = iet.NewBinOp(iet.Subtract, ctx.CurrentPosition, ctx.StartIndex)
	}
	jump := iet.NewIfThen(iet.NewFoldAnd(afterStart, differs), iet.NewBlock(nil, iet.NewAssign(acc, newValue)), nil)
	return jump, nil
}

func (rankAgg) Result(ctx *WinAggContext) (iet.Expr, error) {
	return iet.NewBinOp(iet.Add, ctx.Accumulators[0], iet.ConstOf(int64(1), reltype.BigIntT(false))), nil
}

func (rankAgg) NeedCacheWhenFrameIntact() bool { return false }

// NewRankAgg and NewDenseRankAgg build RANK and DENSE_RANK — the same
// trigger condition, differing only in how the new value is computed
// (spec §9's "DENSE_RANK is RANK with one method overridden" composed
// as a shared helper parameterized by a flag rather than by
// inheritance).
func NewRankAgg() WinAggImplementor      { return rankAgg{denseRank: false} }
func NewDenseRankAgg() WinAggImplementor { return rankAgg{denseRank: true} }

// rowNumberAgg implements ROW_NUMBER (spec §4.G): stateless;
// result = currentPosition - startIndex + 1.
type rowNumberAgg struct{}

func (rowNumberAgg) StateTypes(reltype.Type) []reltype.Type { return nil }
func (rowNumberAgg) Reset(*WinAggContext) (iet.Expr, error)  { return iet.NewBlock(nil), nil }
func (rowNumberAgg) Add(*WinAggContext) (iet.Expr, error)    { return iet.NewBlock(nil), nil }

func (rowNumberAgg) Result(ctx *WinAggContext) (iet.Expr, error) {
	one := iet.ConstOf(int64(1), reltype.BigIntT(false))
	return iet.NewBinOp(iet.Add, iet.NewBinOp(iet.Subtract, ctx.CurrentPosition, ctx.StartIndex), one), nil
}

func (rowNumberAgg) NeedCacheWhenFrameIntact() bool { return false }

// NewRowNumberAgg builds ROW_NUMBER.
func NewRowNumberAgg() WinAggImplementor { return rowNumberAgg{} }

// Seek selects which end of the frame FIRST_VALUE/LAST_VALUE reads from
// (spec §4.G).
type Seek int

const (
	SeekStart Seek = iota
	SeekEnd
)

// firstLastValueAgg implements FIRST_VALUE/LAST_VALUE (spec §4.G):
// stateless; requires caching when the frame shape doesn't change
// across rows, since the result would otherwise be recomputed
// needlessly.
type firstLastValueAgg struct {
	seek Seek
}

func (firstLastValueAgg) StateTypes(reltype.Type) []reltype.Type { return nil }
func (firstLastValueAgg) Reset(*WinAggContext) (iet.Expr, error)  { return iet.NewBlock(nil), nil }
func (firstLastValueAgg) Add(*WinAggContext) (iet.Expr, error)    { return iet.NewBlock(nil), nil }

func (f firstLastValueAgg) Result(ctx *WinAggContext) (iet.Expr, error) {
	index := ctx.StartIndex
	if f.seek == SeekEnd {
		index = ctx.EndIndex
	}
	hasRows := iet.NewBinOp(iet.GreaterThan, ctx.FrameRowCount, iet.ConstOf(int64(0), reltype.BigIntT(false)))
	rowTr := ctx.RowTranslator(index)
	value, err := rowTr.Translate(ctx.Args[0], NullAsNull)
	if err != nil {
		return nil, err
	}
	return iet.NewCondition(hasRows, ctx.Translator.EnsureType(ctx.ResultType, value, false), defaultOf(ctx.ResultType)), nil
}

func (firstLastValueAgg) NeedCacheWhenFrameIntact() bool { return true }

// NewFirstValueAgg and NewLastValueAgg build FIRST_VALUE/LAST_VALUE.
func NewFirstValueAgg() WinAggImplementor { return firstLastValueAgg{seek: SeekStart} }
func NewLastValueAgg() WinAggImplementor  { return firstLastValueAgg{seek: SeekEnd} }

func defaultOf(t reltype.Type) iet.Expr {
	if t.Nullable {
		return iet.NULL_EXPR
	}
	return zeroOf(t)
}

// leadLagAgg implements LEAD(k, default)/LAG(k, default) (spec §4.G):
// stateless; no caching required since the target row shifts every
// step.
type leadLagAgg struct {
	lead bool
}

func (leadLagAgg) StateTypes(reltype.Type) []reltype.Type { return nil }
func (leadLagAgg) Reset(*WinAggContext) (iet.Expr, error)  { return iet.NewBlock(nil), nil }
func (leadLagAgg) Add(*WinAggContext) (iet.Expr, error)    { return iet.NewBlock(nil), nil }

func (l leadLagAgg) Result(ctx *WinAggContext) (iet.Expr, error) {
	k := iet.Expr(iet.ConstOf(int64(1), reltype.BigIntT(false)))
	if len(ctx.Args) > 1 {
		translated, err := ctx.Translator.Translate(ctx.Args[1], NullAsNotPossible)
		if err != nil {
			return nil, err
		}
		k = translated
	}
	var dst iet.Expr
	if l.lead {
		dst = iet.NewBinOp(iet.Add, ctx.CurrentPosition, k)
	} else {
		dst = iet.NewBinOp(iet.Subtract, ctx.CurrentPosition, k)
	}
	var dflt iet.Expr = defaultOf(ctx.ResultType)
	if len(ctx.Args) > 2 {
		translated, err := ctx.Translator.Translate(ctx.Args[2], NullAsNull)
		if err != nil {
			return nil, err
		}
		dflt = translated
	}
	inPartition := ctx.RowInPartition(dst)
	rowTr := ctx.RowTranslator(dst)
	value, err := rowTr.Translate(ctx.Args[0], NullAsNull)
	if err != nil {
		return nil, err
	}
	return iet.NewCondition(inPartition, ctx.Translator.EnsureType(ctx.ResultType, value, false), dflt), nil
}

func (leadLagAgg) NeedCacheWhenFrameIntact() bool { return false }

// NewLeadAgg and NewLagAgg build LEAD/LAG.
func NewLeadAgg() WinAggImplementor { return leadLagAgg{lead: true} }
func NewLagAgg() WinAggImplementor  { return leadLagAgg{lead: false} }

// ntileAgg implements NTILE(n) (spec §4.G): stateless;
// result = 1 + (n * (index - startIndex)) / partitionRowCount.
type ntileAgg struct{}

func (ntileAgg) StateTypes(reltype.Type) []reltype.Type { return nil }
func (ntileAgg) Reset(*WinAggContext) (iet.Expr, error)  { return iet.NewBlock(nil), nil }
func (ntileAgg) Add(*WinAggContext) (iet.Expr, error)    { return iet.NewBlock(nil), nil }

func (ntileAgg) Result(ctx *WinAggContext) (iet.Expr, error) {
	n, err := ctx.Translator.Translate(ctx.Args[0], NullAsNotPossible)
	if err != nil {
		return nil, err
	}
	offset := iet.NewBinOp(iet.Subtract, ctx.CurrentPosition, ctx.StartIndex)
	numerator := iet.NewBinOp(iet.Multiply, n, offset)
	div := iet.NewBinOp(iet.Divide, numerator, ctx.PartitionRowCount)
	return iet.NewBinOp(iet.Add, iet.ConstOf(int64(1), reltype.BigIntT(false)), div), nil
}

func (ntileAgg) NeedCacheWhenFrameIntact() bool { return false }

// NewNtileAgg builds NTILE.
func NewNtileAgg() WinAggImplementor { return ntileAgg{} }

// countWinAgg implements the window form of COUNT (spec §4.G): when no
// argument is nullable, the frame row count is the answer directly;
// otherwise it behaves like the regular strict COUNT, but accumulated
// over the frame rather than the whole group.
type countWinAgg struct {
	anyNullable bool
}

func (countWinAgg) StateTypes(resultType reltype.Type) []reltype.Type {
	return countAgg{}.StateTypes(resultType)
}

func (c countWinAgg) Reset(ctx *WinAggContext) (iet.Expr, error) {
	if !c.anyNullable {
		return iet.NewBlock(nil), nil
	}
	return countAgg{}.Reset(&ctx.AggContext)
}

func (c countWinAgg) Add(ctx *WinAggContext) (iet.Expr, error) {
	if !c.anyNullable {
		return iet.NewBlock(nil), nil
	}
	return Strict(countAgg{}).Add(&ctx.AggContext)
}

func (c countWinAgg) Result(ctx *WinAggContext) (iet.Expr, error) {
	if !c.anyNullable {
		return ctx.FrameRowCount, nil
	}
	return countAgg{}.Result(&ctx.AggContext)
}

func (countWinAgg) NeedCacheWhenFrameIntact() bool { return false }

// NewCountWinAgg builds the window form of COUNT; anyNullable tells it
// whether any argument is nullable, per spec §4.G's fast path.
func NewCountWinAgg(anyNullable bool) WinAggImplementor { return countWinAgg{anyNullable: anyNullable} }
