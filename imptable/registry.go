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
)

// Implementable is the capability a user-defined scalar function must
// expose to participate in dispatch (spec §4.E, §7.2): it supplies its
// own CallImplementor rather than relying on a registry entry.
type Implementable interface {
	Implementor() CallImplementor
}

// ImplementableAgg is the aggregate analog of Implementable. WindowImpl
// may be nil, in which case a window context falls back to the regular
// aggregate implementor (spec §4.E: "regular aggregates are usable in
// window context").
type ImplementableAgg interface {
	AggImplementor() AggImplementor
	WindowImplementor() WinAggImplementor
}

// ImpTable is a self-contained, immutable-after-construction registry
// of scalar and aggregate implementors (spec §3's two registries, plus
// spec §9's "allow construction of a separate ImpTable instance with a
// custom registry" for testability). The package-level Default is the
// process-global instance built once at init time; Get/GetAgg delegate
// to it.
type ImpTable struct {
	scalars map[relnode.SqlOperator]CallImplementor
	aggs    map[relnode.Aggregation]AggImplementor
	winAggs map[relnode.Aggregation]WinAggImplementor
}

// New builds an empty ImpTable; callers populate it with Register*
// before using it.
func New() *ImpTable {
	return &ImpTable{
		scalars: make(map[relnode.SqlOperator]CallImplementor),
		aggs:    make(map[relnode.Aggregation]AggImplementor),
		winAggs: make(map[relnode.Aggregation]WinAggImplementor),
	}
}

// RegisterScalar installs impl for op.
func (t *ImpTable) RegisterScalar(op relnode.SqlOperator, impl CallImplementor) {
	t.scalars[op] = impl
}

// RegisterAgg installs impl as the plain-aggregate implementor for agg.
func (t *ImpTable) RegisterAgg(agg relnode.Aggregation, impl AggImplementor) {
	t.aggs[agg] = impl
}

// RegisterWindowAgg installs impl as the window-specialized implementor
// for agg.
func (t *ImpTable) RegisterWindowAgg(agg relnode.Aggregation, impl WinAggImplementor) {
	t.winAggs[agg] = impl
}

// Get looks up the CallImplementor for op (spec §4.E). udf, if non-nil,
// is consulted when op has no registry entry: op is assumed to be a
// user-defined function in that case, and udf must supply a non-nil
// implementor or InvalidUDFError is returned. With no registry entry and
// a nil udf, LookupMissError is returned.
func (t *ImpTable) Get(op relnode.SqlOperator, udf Implementable) (CallImplementor, error) {
	if impl, ok := t.scalars[op]; ok {
		return impl, nil
	}
	if udf != nil {
		impl := udf.Implementor()
		if impl == nil {
			return nil, errInvalidUDF(op.String())
		}
		return impl, nil
	}
	return nil, &LookupMissError{Op: op}
}

// GetAgg looks up the AggImplementor/WinAggImplementor for agg (spec
// §4.E). When forWindow is true and a window-specialized variant is
// registered, it is preferred; otherwise the plain AggImplementor is
// returned as is (with a nil WinAggImplementor), since a regular
// aggregate is always usable in window context. udfAgg is consulted,
// requiring the ImplementableAgg capability, when agg has no registry
// entry at all; with no entry and a nil udfAgg, InvalidUDFError is
// returned.
func (t *ImpTable) GetAgg(agg relnode.Aggregation, forWindow bool, udfAgg ImplementableAgg) (AggImplementor, WinAggImplementor, error) {
	if forWindow {
		if w, ok := t.winAggs[agg]; ok {
			return nil, w, nil
		}
	}
	if a, ok := t.aggs[agg]; ok {
		return a, nil, nil
	}
	if udfAgg != nil {
		if forWindow {
			if w := udfAgg.WindowImplementor(); w != nil {
				return nil, w, nil
			}
		}
		return udfAgg.AggImplementor(), nil, nil
	}
	return nil, nil, errInvalidUDF(agg.String())
}

// Default is the process-global registry, populated once at package
// init (spec §3: "Lifetime: initialized once at startup; immutable
// thereafter").
var Default = buildDefaultImpTable()

// Get and GetAgg are package-level convenience wrappers over Default.
func Get(op relnode.SqlOperator, udf Implementable) (CallImplementor, error) {
	return Default.Get(op, udf)
}

func GetAgg(agg relnode.Aggregation, forWindow bool, udfAgg ImplementableAgg) (AggImplementor, WinAggImplementor, error) {
	return Default.GetAgg(agg, forWindow, udfAgg)
}

func buildDefaultImpTable() *ImpTable {
	t := New()

	// comparisons
	for op, kind := range map[relnode.SqlOperator]iet.BinOpKind{
		relnode.OpLessThan:           iet.LessThan,
		relnode.OpLessThanOrEqual:    iet.LessThanOrEqual,
		relnode.OpGreaterThan:        iet.GreaterThan,
		relnode.OpGreaterThanOrEqual: iet.GreaterThanOrEqual,
	} {
		t.RegisterScalar(op, NewNullPolicyImplementor(BinaryImplementor(kind, "Compare"), PolicyStrict, true))
	}
	t.RegisterScalar(relnode.OpEquals, NewNullPolicyImplementor(EqualityImplementor(false, "Eq"), PolicyStrict, true))
	t.RegisterScalar(relnode.OpNotEquals, NewNullPolicyImplementor(EqualityImplementor(true, "Ne"), PolicyStrict, true))

	// three-valued logic
	t.RegisterScalar(relnode.OpAnd, NewNullPolicyImplementor(nil, PolicyAnd, false))
	t.RegisterScalar(relnode.OpOr, NewNullPolicyImplementor(nil, PolicyOr, false))
	t.RegisterScalar(relnode.OpNot, NewNullPolicyImplementor(UnaryImplementor(iet.LogicalNot), PolicyNot, false))
	isTrue, isFalse := true, false
	t.RegisterScalar(relnode.OpIsTrue, IsXxxImplementor(&isTrue, false))
	t.RegisterScalar(relnode.OpIsFalse, IsXxxImplementor(&isFalse, false))
	t.RegisterScalar(relnode.OpIsNull, IsXxxImplementor(nil, false))
	t.RegisterScalar(relnode.OpIsNotNull, IsXxxImplementor(nil, true))
	t.RegisterScalar(relnode.OpCase, CaseImplementor)

	// arithmetic
	t.RegisterScalar(relnode.OpPlus, NewNullPolicyImplementor(BinaryImplementor(iet.Add, ""), PolicyStrict, true))
	t.RegisterScalar(relnode.OpMinus, NewNullPolicyImplementor(BinaryImplementor(iet.Subtract, ""), PolicyStrict, true))
	t.RegisterScalar(relnode.OpTimes, NewNullPolicyImplementor(BinaryImplementor(iet.Multiply, ""), PolicyStrict, true))
	t.RegisterScalar(relnode.OpDivide, NewNullPolicyImplementor(BinaryImplementor(iet.Divide, ""), PolicyStrict, true))
	t.RegisterScalar(relnode.OpMod, NewNullPolicyImplementor(BinaryImplementor(iet.Modulo, ""), PolicyStrict, true))
	t.RegisterScalar(relnode.OpUnaryMinus, NewNullPolicyImplementor(UnaryImplementor(iet.Negate), PolicyStrict, false))
	t.RegisterScalar(relnode.OpUnaryPlus, NewNullPolicyImplementor(UnaryImplementor(iet.UnaryPlus), PolicyStrict, false))

	// strings
	t.RegisterScalar(relnode.OpUpper, NewNullPolicyImplementor(MethodNameImplementor("Upper"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpLower, NewNullPolicyImplementor(MethodNameImplementor("Lower"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpTrim, NewNullPolicyImplementor(TrimImplementor(), PolicyStrict, false))
	t.RegisterScalar(relnode.OpLike, NewNullPolicyImplementor(MethodNameImplementor("Like"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpNotLike, NewNullPolicyImplementor(NotImplementor(MethodNameImplementor("Like")), PolicyStrict, false))
	t.RegisterScalar(relnode.OpSimilarTo, NewNullPolicyImplementor(MethodNameImplementor("SimilarTo"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpNotSimilarTo, NewNullPolicyImplementor(NotImplementor(MethodNameImplementor("SimilarTo")), PolicyStrict, false))
	t.RegisterScalar(relnode.OpConcat, NewNullPolicyImplementor(MethodNameImplementor("Concat"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpCharLength, NewNullPolicyImplementor(MethodNameImplementor("CharLength"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpSubstring, NewNullPolicyImplementor(MethodNameImplementor("Substring"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpPosition, NewNullPolicyImplementor(MethodNameImplementor("Position"), PolicyStrict, false))

	// numeric functions
	t.RegisterScalar(relnode.OpAbs, NewNullPolicyImplementor(MethodNameImplementor("Abs"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpExp, NewNullPolicyImplementor(MethodNameImplementor("Exp"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpPower, NewNullPolicyImplementor(MethodNameImplementor("Power"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpLn, NewNullPolicyImplementor(MethodNameImplementor("Ln"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpLog10, NewNullPolicyImplementor(MethodNameImplementor("Log10"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpCeil, NewNullPolicyImplementor(MethodNameImplementor("Ceil"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpFloor, NewNullPolicyImplementor(MethodNameImplementor("Floor"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpMod2, NewNullPolicyImplementor(MethodNameImplementor("Mod"), PolicyStrict, false))

	// collections
	t.RegisterScalar(relnode.OpCardinality, NewNullPolicyImplementor(MethodNameImplementor("Cardinality"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpSlice, NewNullPolicyImplementor(MethodNameImplementor("Slice"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpElement, NewNullPolicyImplementor(MethodNameImplementor("Element"), PolicyStrict, false))
	t.RegisterScalar(relnode.OpArrayItem, ItemImplementor())
	t.RegisterScalar(relnode.OpMapItem, ItemImplementor())
	t.RegisterScalar(relnode.OpAnyItem, ItemImplementor())

	// constructors
	t.RegisterScalar(relnode.OpRow, ValueConstructorImplementor(relnode.OpRow))
	t.RegisterScalar(relnode.OpArrayValueConstructor, ValueConstructorImplementor(relnode.OpArrayValueConstructor))
	t.RegisterScalar(relnode.OpMapValueConstructor, ValueConstructorImplementor(relnode.OpMapValueConstructor))

	// cast family
	t.RegisterScalar(relnode.OpCast, CastOptimizedImplementor())
	t.RegisterScalar(relnode.OpCastOptimized, CastOptimizedImplementor())
	t.RegisterScalar(relnode.OpReinterpret, NewNullPolicyImplementor(ReinterpretImplementor(), PolicyStrict, false))

	// datetime arithmetic
	t.RegisterScalar(relnode.OpDatetimePlusInterval, NewNullPolicyImplementor(DatetimeArithmeticImplementor(false), PolicyStrict, false))
	t.RegisterScalar(relnode.OpDatetimeMinusInterval, NewNullPolicyImplementor(DatetimeArithmeticImplementor(true), PolicyStrict, false))
	t.RegisterScalar(relnode.OpDatetimeMinusDatetime, NewNullPolicyImplementor(DatetimeArithmeticImplementor(true), PolicyStrict, false))

	// system functions
	for _, op := range []relnode.SqlOperator{
		relnode.OpCurrentUser, relnode.OpSystemUser, relnode.OpCurrentPath, relnode.OpCurrentRole,
		relnode.OpCurrentCatalog, relnode.OpLocalTime, relnode.OpLocalTimestamp,
		relnode.OpCurrentTime, relnode.OpCurrentTimestamp, relnode.OpCurrentDate,
	} {
		t.RegisterScalar(op, SystemFunctionImplementor())
	}

	// aggregates
	t.RegisterAgg(relnode.AggCount, NewCountAgg())
	t.RegisterAgg(relnode.AggSum, NewSumAgg())
	t.RegisterAgg(relnode.AggSum0, NewSum0Agg())
	t.RegisterAgg(relnode.AggMin, NewMinAgg())
	t.RegisterAgg(relnode.AggMax, NewMaxAgg())
	t.RegisterAgg(relnode.AggSingleValue, NewSingleValueAgg())

	// window aggregates
	t.RegisterWindowAgg(relnode.AggRank, NewRankAgg())
	t.RegisterWindowAgg(relnode.AggDenseRank, NewDenseRankAgg())
	t.RegisterWindowAgg(relnode.AggRowNumber, NewRowNumberAgg())
	t.RegisterWindowAgg(relnode.AggFirstValue, NewFirstValueAgg())
	t.RegisterWindowAgg(relnode.AggLastValue, NewLastValueAgg())
	t.RegisterWindowAgg(relnode.AggLead, NewLeadAgg())
	t.RegisterWindowAgg(relnode.AggLag, NewLagAgg())
	t.RegisterWindowAgg(relnode.AggNtile, NewNtileAgg())

	return t
}
