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

import "golang.org/x/exp/slices"

// LeastRestrictive returns the smallest type that every type in types can
// be promoted to without loss, or (Type{}, false) if no such type exists
// (e.g. mixing INTERVAL with VARCHAR). This mirrors
// RelDataTypeFactory.leastRestrictive as RexImpTable.harmonize calls it.
func LeastRestrictive(types []Type) (Type, bool) {
	if len(types) == 0 {
		return Type{}, false
	}
	best := types[0]
	for _, t := range types[1:] {
		merged, ok := leastRestrictive2(best, t)
		if !ok {
			return Type{}, false
		}
		best = merged
	}
	return best, true
}

func leastRestrictive2(a, b Type) (Type, bool) {
	if a.Kind == b.Kind {
		if a.Kind == Decimal {
			return Type{Kind: Decimal, Precision: max(a.Precision, b.Precision), Scale: max(a.Scale, b.Scale)}, true
		}
		return Type{Kind: a.Kind}, true
	}
	pa, oka := precedence[a.Kind]
	pb, okb := precedence[b.Kind]
	if !oka || !okb {
		return Type{}, false
	}
	if pa >= pb {
		return Type{Kind: a.Kind, Precision: a.Precision, Scale: a.Scale}, true
	}
	return Type{Kind: b.Kind, Precision: b.Precision, Scale: b.Scale}, true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// AllSame reports whether every type in types is identical, the
// fast path RexImpTable.harmonize uses to avoid rebuilding operands that
// are already uniform (spec §4.B, "harmonization is a fixed point").
func AllSame(types []Type) bool {
	if len(types) == 0 {
		return true
	}
	first := types[0]
	return slices.IndexFunc(types, func(t Type) bool { return t != first }) == -1
}
