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

// Package reltype describes the SQL type system that flows through the
// ImpTable: the type kinds, their nullability, and the least-restrictive
// promotion order used to harmonize operands before lowering.
package reltype

import "fmt"

// Kind enumerates the SQL type kinds the ImpTable understands.
type Kind uint8

const (
	Unknown Kind = iota
	Boolean
	Int
	BigInt
	Decimal
	Double
	Varchar
	Date
	Time
	Timestamp
	Interval
	Array
	Map
	Any
)

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "BOOLEAN"
	case Int:
		return "INT"
	case BigInt:
		return "BIGINT"
	case Decimal:
		return "DECIMAL"
	case Double:
		return "DOUBLE"
	case Varchar:
		return "VARCHAR"
	case Date:
		return "DATE"
	case Time:
		return "TIME"
	case Timestamp:
		return "TIMESTAMP"
	case Interval:
		return "INTERVAL"
	case Array:
		return "ARRAY"
	case Map:
		return "MAP"
	case Any:
		return "ANY"
	default:
		return "UNKNOWN"
	}
}

// precedence gives the least-restrictive promotion order within a family.
// A higher number promotes over a lower one. Kinds absent from the table
// (ARRAY, MAP, INTERVAL, VARCHAR, BOOLEAN, ANY) only unify with themselves.
var precedence = map[Kind]int{
	Int:       0,
	BigInt:    1,
	Decimal:   2,
	Double:    3,
}

// Type is a nameable SQL type: a Kind, its nullability, and (for DECIMAL)
// precision/scale.
type Type struct {
	Kind      Kind
	Nullable  bool
	Precision int
	Scale     int
}

func (t Type) String() string {
	if t.Kind == Decimal && (t.Precision != 0 || t.Scale != 0) {
		return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
	}
	return t.Kind.String()
}

// WithNullability returns a copy of t with the given nullability.
func (t Type) WithNullability(nullable bool) Type {
	t.Nullable = nullable
	return t
}

// Equal reports whether two types are identical, including nullability.
// This is the "full equality" test CastOptimizedImplementor (spec §4.C)
// uses to short-circuit a CAST that changes nothing.
func (t Type) Equal(o Type) bool {
	return t == o
}

// SameKind reports whether two types share a Kind, ignoring nullability
// and precision/scale.
func (t Type) SameKind(o Type) bool {
	return t.Kind == o.Kind
}

// IsPrimitive reports whether values of this type can never be null at
// the machine level — i.e. whether NullAs.handle can skip a runtime null
// check and emit unboxed code for it. Only non-nullable scalar kinds
// qualify; ARRAY, MAP and VARCHAR are always reference-like even when
// declared NOT NULL, matching the Java source's Primitive.is(Class<?>)
// which only recognizes Java's eight primitive types.
func (t Type) IsPrimitive() bool {
	if t.Nullable {
		return false
	}
	switch t.Kind {
	case Boolean, Int, BigInt, Double:
		return true
	default:
		return false
	}
}

// Flavor classifies a type for NullAs.handle's primitive/boxed/object
// three-way branch (spec Design Notes, "Boxed-vs-primitive dichotomy").
type Flavor int

const (
	FlavorPrimitive Flavor = iota
	FlavorBox
	FlavorObject
)

// FlavorOf returns how a value of type t is represented at runtime.
func FlavorOf(t Type) Flavor {
	if t.IsPrimitive() {
		return FlavorPrimitive
	}
	switch t.Kind {
	case Boolean, Int, BigInt, Double:
		// nullable scalar: represented as a boxed value in the IET
		return FlavorBox
	default:
		return FlavorObject
	}
}

// Bool, IntType, BigIntT, and the rest are convenience constructors
// mirroring expr.BooleanType/IntType/... in the teacher package.
func Bool(nullable bool) Type      { return Type{Kind: Boolean, Nullable: nullable} }
func IntType(nullable bool) Type   { return Type{Kind: Int, Nullable: nullable} }
func BigIntT(nullable bool) Type   { return Type{Kind: BigInt, Nullable: nullable} }
func DecimalT(nullable bool, precision, scale int) Type {
	return Type{Kind: Decimal, Nullable: nullable, Precision: precision, Scale: scale}
}
func DoubleT(nullable bool) Type    { return Type{Kind: Double, Nullable: nullable} }
func VarcharT(nullable bool) Type   { return Type{Kind: Varchar, Nullable: nullable} }
func DateT(nullable bool) Type      { return Type{Kind: Date, Nullable: nullable} }
func TimeT(nullable bool) Type      { return Type{Kind: Time, Nullable: nullable} }
func TimestampT(nullable bool) Type { return Type{Kind: Timestamp, Nullable: nullable} }
func IntervalT(nullable bool) Type  { return Type{Kind: Interval, Nullable: nullable} }
func AnyT(nullable bool) Type       { return Type{Kind: Any, Nullable: nullable} }
