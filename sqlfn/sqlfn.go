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

// Package sqlfn is the SqlFunctions runtime library that the calls
// MethodImplementor/MethodNameImplementor emit resolve to at run time
// (spec §1's "external collaborator", given a concrete body here so the
// generated IET is actually checkable end to end). Each exported
// function here is named and typed the way its corresponding per-type
// builtin in a vectorized engine would be, but operates on a single
// scalar value at a time since the ImpTable lowers row-at-a-time
// expressions rather than vectorized batches.
package sqlfn

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Upper and Lower implement the SQL UPPER/LOWER string functions.
func Upper(s string) string { return strings.ToUpper(s) }
func Lower(s string) string { return strings.ToLower(s) }

// TrimSpec selects which side(s) of the trim character set TRIM removes,
// mirroring the LEADING/TRAILING/BOTH flag of the SQL TRIM(flag char FROM
// string) syntax. TrimImplementor encodes the same choice as two
// booleans (leading, trailing) rather than passing the flag through.
type TrimSpec int

const (
	TrimBoth TrimSpec = iota
	TrimLeading
	TrimTrailing
)

// Trim removes cutset characters from s per spec, replicating
// RexImpTable.TrimImplementor's method dispatch
// (BuiltInMethod.TRIM/LTRIM/RTRIM) without needing three separate Go
// functions for it.
func Trim(spec TrimSpec, cutset, s string) string {
	switch spec {
	case TrimLeading:
		return strings.TrimLeft(s, cutset)
	case TrimTrailing:
		return strings.TrimRight(s, cutset)
	default:
		return strings.Trim(s, cutset)
	}
}

// Like implements SQL LIKE, where '%' matches any run of characters and
// '_' matches exactly one.
func Like(s, pattern string) bool {
	return likeMatch(s, pattern)
}

func likeMatch(s, pattern string) bool {
	// classic recursive backtracking matcher; SQL LIKE patterns are
	// short and this is only ever evaluated per row, not per byte of a
	// large corpus, so there's no need for a compiled automaton here.
	if pattern == "" {
		return s == ""
	}
	switch pattern[0] {
	case '%':
		for i := 0; i <= len(s); i++ {
			if likeMatch(s[i:], pattern[1:]) {
				return true
			}
		}
		return false
	case '_':
		return len(s) > 0 && likeMatch(s[1:], pattern[1:])
	default:
		return len(s) > 0 && s[0] == pattern[0] && likeMatch(s[1:], pattern[1:])
	}
}

// SimilarTo implements SQL SIMILAR TO, which uses POSIX-regex-style
// pattern syntax rather than LIKE's two wildcards; callers compile
// pattern through the regexp package themselves (mirroring
// TrimImplementor's "translate SQL syntax, then delegate" structure) and
// pass the compiled matcher in.
func SimilarTo(s string, re interface{ MatchString(string) bool }) bool {
	return re.MatchString(s)
}

// CharLength returns the number of runes in s, matching SQL
// CHAR_LENGTH's character (not byte) count.
func CharLength(s string) int64 { return int64(len([]rune(s))) }

// Substring extracts the substring of s starting at the 1-based position
// start, for length runes (or to the end of s if length is negative,
// mirroring SQL's optional-length SUBSTRING form).
func Substring(s string, start int64, length int64) string {
	runes := []rune(s)
	if start < 1 {
		start = 1
	}
	from := int(start - 1)
	if from > len(runes) {
		return ""
	}
	to := len(runes)
	if length >= 0 {
		to = from + int(length)
		if to > len(runes) {
			to = len(runes)
		}
	}
	if to < from {
		return ""
	}
	return string(runes[from:to])
}

// Position returns the 1-based rune position of the first occurrence of
// needle in haystack, or 0 if absent, matching SQL POSITION.
func Position(needle, haystack string) int64 {
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return 0
	}
	return int64(len([]rune(haystack[:idx]))) + 1
}

// Concat implements the SQL || operator over any number of strings.
func Concat(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
	}
	return b.String()
}

// Mod implements the two-argument MOD(x, y) builtin over decimals,
// delegating the actual number crunching to a decimal library rather
// than hand-rolling fixed-point math.
func Mod(x, y decimal.Decimal) decimal.Decimal {
	return x.Mod(y)
}

// Abs, Ceil and Floor implement the corresponding SQL numeric functions
// over DECIMAL operands.
func Abs(x decimal.Decimal) decimal.Decimal   { return x.Abs() }
func Ceil(x decimal.Decimal) decimal.Decimal  { return x.Ceil() }
func Floor(x decimal.Decimal) decimal.Decimal { return x.Floor() }

// Exp, Power, Ln and Log10 implement the EXP/POWER/LN/LOG10 numeric
// builtins. Unlike Mod/Abs/Ceil/Floor these are transcendental functions
// no decimal library computes exactly, so the actual crunching goes
// through math's float64 routines and the result is converted back to
// decimal.Decimal, keeping the same DECIMAL-in/DECIMAL-out shape the rest
// of this package's numeric functions use.
func Exp(x decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(math.Exp(toFloat64(x)))
}

func Power(x, y decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(math.Pow(toFloat64(x), toFloat64(y)))
}

func Ln(x decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(math.Log(toFloat64(x)))
}

func Log10(x decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(math.Log10(toFloat64(x)))
}

func toFloat64(x decimal.Decimal) float64 {
	f, _ := x.Float64()
	return f
}

// Lesser and Greater implement the two-argument LEAST/GREATEST-style
// helpers the MIN/MAX aggregates' SqlFunctions.Lesser/Greater calls
// resolve to. They operate on plain decimal.Decimal values and have no
// NULL handling of their own; ties return the first argument.
func Lesser(a, b decimal.Decimal) decimal.Decimal {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func Greater(a, b decimal.Decimal) decimal.Decimal {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Cardinality, Slice and Element implement the CARDINALITY/SLICE/ELEMENT
// collection operators, which the registry lowers through
// MethodNameImplementor (spec §11 supplement).
func Cardinality(items []interface{}) int64 { return int64(len(items)) }

func Slice(items []interface{}, from, to int64) []interface{} {
	if from < 0 {
		from = 0
	}
	if to > int64(len(items)) {
		to = int64(len(items))
	}
	if to < from {
		return nil
	}
	return items[from:to]
}

// Element returns items[0] if items has exactly one element, matching
// SQL's ELEMENT(<array>) which errors on any other cardinality.
func Element(items []interface{}) (interface{}, error) {
	if len(items) != 1 {
		return nil, fmt.Errorf("sqlfn: ELEMENT() requires exactly one element, got %d", len(items))
	}
	return items[0], nil
}

// ArrayItem and MapItem implement 1-based array indexing and key lookup
// respectively; both return (nil, false) rather than erroring on a
// missing index/key, matching SQL's ARRAY_ITEM/MAP_ITEM "out of range
// evaluates to NULL" semantics rather than raising an exception.
func ArrayItem(items []interface{}, index int64) (interface{}, bool) {
	if index < 1 || index > int64(len(items)) {
		return nil, false
	}
	return items[index-1], true
}

func MapItem(m map[string]interface{}, key string) (interface{}, bool) {
	v, ok := m[key]
	return v, ok
}
