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

package iet

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/relgen/rexlower/reltype"
)

// NewCondition builds a Condition (ternary if/then/else) node.
func NewCondition(test, ifTrue, ifFalse Expr) *Condition {
	return &Condition{Test: test, IfTrue: ifTrue, IfFalse: ifFalse}
}

// NewFoldAnd builds the n-ary AND of exprs.
func NewFoldAnd(exprs ...Expr) *FoldAnd { return &FoldAnd{Exprs: exprs} }

// NewFoldOr builds the n-ary OR of exprs.
func NewFoldOr(exprs ...Expr) *FoldOr { return &FoldOr{Exprs: exprs} }

// NewMethodCall builds a call to symbol on target (nil for a static call)
// with the given result type.
func NewMethodCall(target Expr, symbol string, typ reltype.Type, args ...Expr) *MethodCall {
	return &MethodCall{Target: target, Symbol: symbol, Args: args, Typ: typ}
}

// NewCast builds a CAST node.
func NewCast(operand Expr, target reltype.Type) *Cast {
	return &Cast{TargetType: target, Operand: operand}
}

// NewBlock builds a statement block terminating in terminal (nil for a
// statement-only block with no value).
func NewBlock(terminal Expr, stmts ...Expr) *Block {
	return &Block{Stmts: stmts, Terminal: terminal}
}

// NewDeclare introduces a fresh local bound to init and returns both the
// Declare statement and the Param future references should read from —
// mirroring BlockBuilder.append's (Expression) return in the teacher
// source, which hands the caller back a reference usable in later
// statements rather than forcing it to re-name the temporary itself.
func NewDeclare(hint string, init Expr) (*Declare, *Param) {
	v := &Param{Name: freshName(hint), Typ: init.ExprType()}
	return &Declare{Var: v, Init: init}, v
}

// NewAssign builds an assignment statement.
func NewAssign(v *Param, value Expr) *Assign { return &Assign{Var: v, Value: value} }

// NewIfThen builds a statement-position conditional.
func NewIfThen(test Expr, then *Block, els *Block) *IfThen {
	return &IfThen{Test: test, ThenBlock: then, ElseBlock: els}
}

// NewThrow builds a runtime-exception statement.
func NewThrow(exception string) *Throw { return &Throw{Exception: exception} }

// freshName mints a temporary-variable name that cannot collide with a
// user-visible identifier or with another temporary generated elsewhere
// in the same build, using a random UUID suffix rather than a counter —
// the ImpTable has no central BlockBuilder instance to thread a counter
// through, so collision-freedom has to come from the name itself.
func freshName(hint string) string {
	return fmt.Sprintf("_%s_%s", hint, uuid.New().String()[:8])
}
