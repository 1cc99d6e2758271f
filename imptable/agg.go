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
	"github.com/shopspring/decimal"
)

// AggContext is the state an aggregate implementor's three hooks operate
// over: the call's (untranslated) arguments, the accumulator cells
// assigned to this aggregate by position, and the Translator used to
// lower the arguments. The accumulator vector itself belongs to the
// execution engine (spec §5); the ImpTable only emits code that
// addresses it by position.
type AggContext struct {
	Translator   Translator
	Args         []relnode.Node
	Accumulators []*iet.Param
	ResultType   reltype.Type
}

// AggImplementor is the three-phase state machine interface spec §4.D
// requires of every aggregate: the accumulator cell types it needs,
// and the reset/add/result hooks the execution engine drives it through.
type AggImplementor interface {
	StateTypes(resultType reltype.Type) []reltype.Type
	Reset(ctx *AggContext) (iet.Expr, error)
	Add(ctx *AggContext) (iet.Expr, error)
	Result(ctx *AggContext) (iet.Expr, error)
}

// strictAgg wraps an AggImplementor so that Add automatically skips null
// arguments, leaving the accumulator unchanged — the "Strict variant"
// spec §4.D calls for rather than duplicating the null guard in every
// family.
type strictAgg struct {
	inner AggImplementor
}

// Strict decorates impl with the automatic-null-skip behavior.
func Strict(impl AggImplementor) AggImplementor { return &strictAgg{inner: impl} }

func (s *strictAgg) StateTypes(resultType reltype.Type) []reltype.Type {
	return s.inner.StateTypes(resultType)
}

func (s *strictAgg) Reset(ctx *AggContext) (iet.Expr, error) { return s.inner.Reset(ctx) }

func (s *strictAgg) Add(ctx *AggContext) (iet.Expr, error) {
	var nullTests []iet.Expr
	for _, arg := range ctx.Args {
		if !ctx.Translator.IsNullable(arg) {
			continue
		}
		translated, err := ctx.Translator.Translate(arg, NullAsNull)
		if err != nil {
			return nil, err
		}
		nullTests = append(nullTests, iet.NewEqual(translated, iet.NULL_EXPR))
	}
	inner, err := s.inner.Add(ctx)
	if err != nil {
		return nil, err
	}
	if len(nullTests) == 0 {
		return inner, nil
	}
	guard := &iet.FoldOr{Exprs: nullTests}
	return iet.NewIfThen(iet.NewNot(guard), iet.NewBlock(nil, inner), nil), nil
}

func (s *strictAgg) Result(ctx *AggContext) (iet.Expr, error) { return s.inner.Result(ctx) }

// countAgg implements COUNT (spec §4.D): state [long]; reset -> 0;
// add (strict) -> increment; result -> the accumulator value.
type countAgg struct{}

func (countAgg) StateTypes(reltype.Type) []reltype.Type { return []reltype.Type{reltype.BigIntT(false)} }

func (countAgg) Reset(ctx *AggContext) (iet.Expr, error) {
	return iet.NewAssign(ctx.Accumulators[0], iet.ConstOf(int64(0), reltype.BigIntT(false))), nil
}

func (countAgg) Add(ctx *AggContext) (iet.Expr, error) {
	acc := ctx.Accumulators[0]
	return iet.NewAssign(acc, iet.NewBinOp(iet.Add, acc, iet.ConstOf(int64(1), reltype.BigIntT(false)))), nil
}

func (countAgg) Result(ctx *AggContext) (iet.Expr, error) { return ctx.Accumulators[0], nil }

// NewCountAgg builds the COUNT implementor, strict over its (possibly
// zero, for COUNT(*)) arguments.
func NewCountAgg() AggImplementor { return Strict(countAgg{}) }

// sumAgg implements SUM / SUM0 (spec §4.D). Both reset the accumulator
// to the zero of the result type, so an empty or all-null group yields
// zero for either; zeroOnEmpty does not change the generated code.
type sumAgg struct{ zeroOnEmpty bool }

func (sumAgg) StateTypes(resultType reltype.Type) []reltype.Type { return []reltype.Type{resultType} }

func (s sumAgg) Reset(ctx *AggContext) (iet.Expr, error) {
	zero := zeroOf(ctx.ResultType)
	return iet.NewAssign(ctx.Accumulators[0], zero), nil
}

func (s sumAgg) Add(ctx *AggContext) (iet.Expr, error) {
	acc := ctx.Accumulators[0]
	arg, err := ctx.Translator.Translate(ctx.Args[0], NullAsNotPossible)
	if err != nil {
		return nil, err
	}
	casted := ctx.Translator.EnsureType(ctx.ResultType, arg, false)
	if ctx.ResultType.Kind == reltype.Decimal {
		return iet.NewAssign(acc, iet.NewMethodCall(acc, "Add", ctx.ResultType, casted)), nil
	}
	return iet.NewAssign(acc, iet.NewBinOp(iet.Add, acc, casted)), nil
}

func (s sumAgg) Result(ctx *AggContext) (iet.Expr, error) { return ctx.Accumulators[0], nil }

func zeroOf(t reltype.Type) iet.Expr {
	switch t.Kind {
	case reltype.Decimal:
		return iet.ConstOf(decimal.Zero, t)
	case reltype.Double:
		return iet.ConstOf(float64(0), t)
	default:
		return iet.ConstOf(int64(0), t)
	}
}

// NewSumAgg builds SUM, strict over its single argument.
func NewSumAgg() AggImplementor { return Strict(sumAgg{}) }

// NewSum0Agg builds SUM0, which has a non-null empty-group result — the
// strict decorator already leaves the zeroed accumulator untouched on an
// all-null group, so SUM0 needs no extra wrapping beyond what SUM has
// and generates the same code as SUM (spec §4.D).
func NewSum0Agg() AggImplementor { return Strict(sumAgg{zeroOnEmpty: true}) }

// minMaxAgg implements MIN/MAX (spec §4.D): reset to the type's extreme
// value (or null for reference types); add folds the running value
// against the new argument with lesser/greater.
type minMaxAgg struct{ max bool }

func (m minMaxAgg) StateTypes(resultType reltype.Type) []reltype.Type { return []reltype.Type{resultType} }

func (m minMaxAgg) Reset(ctx *AggContext) (iet.Expr, error) {
	return iet.NewAssign(ctx.Accumulators[0], extremeOf(ctx.ResultType, m.max)), nil
}

func (m minMaxAgg) Add(ctx *AggContext) (iet.Expr, error) {
	acc := ctx.Accumulators[0]
	arg, err := ctx.Translator.Translate(ctx.Args[0], NullAsNotPossible)
	if err != nil {
		return nil, err
	}
	symbol := "SqlFunctions.Lesser"
	if m.max {
		symbol = "SqlFunctions.Greater"
	}
	return iet.NewAssign(acc, iet.NewMethodCall(nil, symbol, ctx.ResultType, acc, arg)), nil
}

func (m minMaxAgg) Result(ctx *AggContext) (iet.Expr, error) { return ctx.Accumulators[0], nil }

func extremeOf(t reltype.Type, max bool) iet.Expr {
	if !t.IsPrimitive() {
		return iet.NULL_EXPR
	}
	switch t.Kind {
	case reltype.Double:
		if max {
			return iet.ConstOf(negInf(), t)
		}
		return iet.ConstOf(posInf(), t)
	default:
		if max {
			return iet.ConstOf(minInt64(), t)
		}
		return iet.ConstOf(maxInt64(), t)
	}
}

func negInf() float64  { return -1.0 / zeroFloat() }
func posInf() float64  { return 1.0 / zeroFloat() }
func zeroFloat() float64 { return 0.0 }
func minInt64() int64  { return -1 << 63 }
func maxInt64() int64  { return 1<<63 - 1 }

// NewMinAgg and NewMaxAgg build MIN/MAX, strict over their single
// argument.
func NewMinAgg() AggImplementor { return Strict(minMaxAgg{max: false}) }
func NewMaxAgg() AggImplementor { return Strict(minMaxAgg{max: true}) }

// singleValueAgg implements SINGLE_VALUE (spec §4.D): state [bool seen,
// value]; a second add raises the SINGLE_VALUE-more-than-one runtime
// error (spec §7.6), preserved verbatim as an embedded Throw in the IET
// rather than a code-generation error.
type singleValueAgg struct{}

func (singleValueAgg) StateTypes(resultType reltype.Type) []reltype.Type {
	return []reltype.Type{reltype.Bool(false), resultType}
}

func (singleValueAgg) Reset(ctx *AggContext) (iet.Expr, error) {
	return iet.NewBlock(nil,
		iet.NewAssign(ctx.Accumulators[0], iet.FALSE_EXPR),
		iet.NewAssign(ctx.Accumulators[1], zeroOf(ctx.ResultType)),
	), nil
}

func (singleValueAgg) Add(ctx *AggContext) (iet.Expr, error) {
	seen, value := ctx.Accumulators[0], ctx.Accumulators[1]
	arg, err := ctx.Translator.Translate(ctx.Args[0], NullAsNull)
	if err != nil {
		return nil, err
	}
	then := iet.NewBlock(nil, iet.NewThrow("java.lang.IllegalStateException: more than one value in agg SINGLE_VALUE"))
	els := iet.NewBlock(nil, iet.NewAssign(seen, iet.TRUE_EXPR), iet.NewAssign(value, arg))
	return iet.NewIfThen(seen, then, els), nil
}

func (singleValueAgg) Result(ctx *AggContext) (iet.Expr, error) {
	return ctx.Translator.EnsureType(ctx.ResultType, ctx.Accumulators[1], false), nil
}

// NewSingleValueAgg builds SINGLE_VALUE. It is deliberately not strict:
// a null input is itself "the one value", so it must reach Add rather
// than being filtered out.
func NewSingleValueAgg() AggImplementor { return singleValueAgg{} }

// ReflectiveAccumulator is the capability a user-defined aggregate's
// accumulator type exposes — the re-architected replacement (spec §9)
// for reflective zero-arg-constructor lookup: a registry of factory
// closures keyed by aggregation symbol, rather than runtime reflection
// over a Java class.
type ReflectiveAccumulator interface {
	Init() iet.Expr
	AddExpr(accumulator *iet.Param, args []iet.Expr) iet.Expr
	ResultExpr(accumulator *iet.Param) iet.Expr
	StateType() reltype.Type
}

// userDefinedAgg implements a reflective user-defined aggregate built
// from an accumulator factory (spec §4.D, "UserDefined (reflective)").
type userDefinedAgg struct {
	newAccumulator func() (ReflectiveAccumulator, error)
}

// NewUserDefinedAgg builds a user-defined aggregate implementor from an
// accumulator factory, surfacing ConstructionFailure through the
// factory's own error return rather than through reflective exception
// interception (spec §9).
func NewUserDefinedAgg(newAccumulator func() (ReflectiveAccumulator, error)) AggImplementor {
	return &userDefinedAgg{newAccumulator: newAccumulator}
}

func (u *userDefinedAgg) accumulator() (ReflectiveAccumulator, error) { return u.newAccumulator() }

func (u *userDefinedAgg) StateTypes(resultType reltype.Type) []reltype.Type {
	acc, err := u.accumulator()
	if err != nil {
		return nil
	}
	return []reltype.Type{acc.StateType()}
}

func (u *userDefinedAgg) Reset(ctx *AggContext) (iet.Expr, error) {
	acc, err := u.accumulator()
	if err != nil {
		return nil, errConstructionFailure(relnode.AggUserDefined, err)
	}
	return iet.NewAssign(ctx.Accumulators[0], acc.Init()), nil
}

func (u *userDefinedAgg) Add(ctx *AggContext) (iet.Expr, error) {
	acc, err := u.accumulator()
	if err != nil {
		return nil, errConstructionFailure(relnode.AggUserDefined, err)
	}
	args, err := ctx.Translator.TranslateList(ctx.Args, NullAsNotPossible)
	if err != nil {
		return nil, err
	}
	return acc.AddExpr(ctx.Accumulators[0], args), nil
}

func (u *userDefinedAgg) Result(ctx *AggContext) (iet.Expr, error) {
	acc, err := u.accumulator()
	if err != nil {
		return nil, errConstructionFailure(relnode.AggUserDefined, err)
	}
	return acc.ResultExpr(ctx.Accumulators[0]), nil
}
