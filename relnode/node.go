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

// Package relnode describes the relational-call side of the ImpTable: the
// Call tuple (op, operands, resultType) that a scalar operator or
// aggregate application is expressed as (spec §3), and the catalogues of
// operators and aggregations the lowering engine in imptable dispatches
// on.
package relnode

import "github.com/relgen/rexlower/reltype"

// Node is an operand to a Call: a Field reference into the input row, a
// literal Const (the two leaf kinds, mirroring RexInputRef and
// RexLiteral), or a nested Call.
type Node interface {
	NodeType() reltype.Type
}

// Field references column Ordinal of the input row.
type Field struct {
	Ordinal int
	Name    string
	Typ     reltype.Type
}

func (f *Field) NodeType() reltype.Type { return f.Typ }

// Const is a literal operand.
type Const struct {
	Value interface{}
	Typ   reltype.Type
}

func (c *Const) NodeType() reltype.Type { return c.Typ }

// Call is the tuple (op, operands, resultType) spec §3 defines: a scalar
// operator or aggregation applied to a fixed operand list, with its
// result type already computed by the type-inference pass that ran
// before lowering.
type Call struct {
	Op         SqlOperator
	Operands   []Node
	ResultType reltype.Type
}

// NodeType lets a Call stand in as a Node operand to an enclosing Call —
// nested scalar expressions (UPPER(TRIM(x))) are Calls all the way down.
func (c *Call) NodeType() reltype.Type { return c.ResultType }
