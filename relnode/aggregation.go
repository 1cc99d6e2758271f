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

package relnode

import "github.com/relgen/rexlower/reltype"

// Aggregation enumerates the aggregate and window functions the
// ImpTable's aggs/winAggs registries hold implementors for.
type Aggregation int

const (
	AggUnknown Aggregation = iota
	AggCount
	AggSum
	AggSum0
	AggMin
	AggMax
	AggSingleValue
	AggUserDefined

	// window-only
	AggRank
	AggDenseRank
	AggRowNumber
	AggFirstValue
	AggLastValue
	AggLead
	AggLag
	AggNtile
	AggCountWin
)

var aggregationNames = map[Aggregation]string{
	AggCount:       "COUNT",
	AggSum:         "SUM",
	AggSum0:        "SUM0",
	AggMin:         "MIN",
	AggMax:         "MAX",
	AggSingleValue: "SINGLE_VALUE",
	AggUserDefined: "USER_DEFINED",
	AggRank:        "RANK",
	AggDenseRank:   "DENSE_RANK",
	AggRowNumber:   "ROW_NUMBER",
	AggFirstValue:  "FIRST_VALUE",
	AggLastValue:   "LAST_VALUE",
	AggLead:        "LEAD",
	AggLag:         "LAG",
	AggNtile:       "NTILE",
	AggCountWin:    "COUNT",
}

func (a Aggregation) String() string {
	if s, ok := aggregationNames[a]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsWindowOnly reports whether a only has meaning inside an OVER clause
// (spec §5.B) and has no plain-aggregate implementor in aggs.
func (a Aggregation) IsWindowOnly() bool {
	switch a {
	case AggRank, AggDenseRank, AggRowNumber, AggFirstValue, AggLastValue, AggLead, AggLag, AggNtile:
		return true
	default:
		return false
	}
}

// AggCall is an aggregate-function application: the aggregation, its
// argument Nodes, the result type, and whether it is DISTINCT.
type AggCall struct {
	Agg        Aggregation
	Args       []Node
	ResultType reltype.Type
	Distinct   bool
}

// Window carries the OVER-clause context a window-aggregate implementor
// needs beyond AggCall: the partitioning/ordering that defines row order
// within the partition, and the frame bounds.
type Window struct {
	PartitionBy []Node
	OrderBy     []OrderKey
	Frame       Frame
}

// OrderKey is one ORDER BY key within a window partition.
type OrderKey struct {
	Expr Node
	Desc bool
}

// FrameKind enumerates the window-frame shapes spec §5.B's
// needCacheWhenFrameIntact distinguishes.
type FrameKind int

const (
	FrameUnboundedPreceding FrameKind = iota
	FrameRowsBetween
	FrameRangeBetween
)

// Frame describes the window frame's bounds, relative to the current
// row: negative Start/End values count backward (LAG-style), positive
// values forward (LEAD-style), and a nil bound means unbounded.
type Frame struct {
	Kind  FrameKind
	Start *int
	End   *int
}

// Intact reports whether the frame is the same for every row in the
// partition (e.g. the default RANGE UNBOUNDED PRECEDING), which lets a
// window implementor cache its result across rows instead of
// recomputing per row — the optimization spec §5.B's
// needCacheWhenFrameIntact names.
func (f Frame) Intact() bool {
	return f.Kind == FrameUnboundedPreceding
}
