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

import (
	"testing"

	"github.com/relgen/rexlower/reltype"
)

func TestOperatorFlip(t *testing.T) {
	cases := []struct {
		op   SqlOperator
		want SqlOperator
	}{
		{OpLessThan, OpGreaterThan},
		{OpLessThanOrEqual, OpGreaterThanOrEqual},
		{OpGreaterThan, OpLessThan},
		{OpEquals, OpEquals},
	}
	for _, c := range cases {
		if got := c.op.Flip(); got != c.want {
			t.Errorf("%v.Flip() = %v, want %v", c.op, got, c.want)
		}
	}
}

func TestOperatorNegateRoundTrips(t *testing.T) {
	for _, op := range []SqlOperator{OpEquals, OpNotEquals, OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual} {
		if got := op.Negate().Negate(); got != op {
			t.Errorf("%v.Negate().Negate() = %v, want %v", op, got, op)
		}
	}
}

func TestAggregationIsWindowOnly(t *testing.T) {
	if !AggRank.IsWindowOnly() {
		t.Error("RANK should be window-only")
	}
	if AggSum.IsWindowOnly() {
		t.Error("SUM is a plain aggregate, not window-only")
	}
}

func TestFrameIntact(t *testing.T) {
	if !(Frame{Kind: FrameUnboundedPreceding}).Intact() {
		t.Error("unbounded-preceding frame should be intact")
	}
	start := -1
	if (Frame{Kind: FrameRowsBetween, Start: &start}).Intact() {
		t.Error("a bounded frame should not be intact")
	}
}

func TestCallNodeType(t *testing.T) {
	c := &Call{Op: OpUpper, Operands: []Node{&Field{Ordinal: 0, Typ: reltype.VarcharT(true)}}, ResultType: reltype.VarcharT(true)}
	if c.NodeType() != reltype.VarcharT(true) {
		t.Errorf("Call.NodeType() = %v, want %v", c.NodeType(), reltype.VarcharT(true))
	}
}
