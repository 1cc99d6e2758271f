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
	"github.com/relgen/rexlower/relnode"
	"github.com/relgen/rexlower/reltype"
)

// defaultHarmonizeCall rewrites call's operands to their least-
// restrictive common type, preserving per-operand nullability and then
// intersecting the promoted type's nullability with whether any operand
// was originally nullable (spec §4.B). If no common type exists, or all
// operand types already agree, call is returned unchanged — the fixed-
// point invariant spec §8.4 requires.
func defaultHarmonizeCall(tr Translator, call *relnode.Call) *relnode.Call {
	types := make([]reltype.Type, len(call.Operands))
	anyNullable := false
	for i, op := range call.Operands {
		types[i] = op.NodeType()
		if types[i].Nullable {
			anyNullable = true
		}
	}
	if reltype.AllSame(types) {
		return call
	}
	common, ok := reltype.LeastRestrictive(types)
	if !ok {
		return call
	}
	newOperands := make([]relnode.Node, len(call.Operands))
	changed := false
	for i, op := range call.Operands {
		target := common.WithNullability(common.Nullable && anyNullable || types[i].Nullable)
		if target == types[i] {
			newOperands[i] = op
			continue
		}
		changed = true
		newOperands[i] = harmonizeOperand(op, target)
	}
	if !changed {
		return call
	}
	return &relnode.Call{Op: call.Op, Operands: newOperands, ResultType: call.ResultType}
}

// harmonizeOperand wraps op in a CAST-shaped Call to target, unless op
// is already a literal in which case its declared type is simply
// widened in place (a literal has no runtime representation to cast).
func harmonizeOperand(op relnode.Node, target reltype.Type) relnode.Node {
	switch n := op.(type) {
	case *relnode.Const:
		return &relnode.Const{Value: n.Value, Typ: target}
	default:
		return &relnode.Call{Op: relnode.OpCast, Operands: []relnode.Node{op}, ResultType: target}
	}
}
