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
	"fmt"
	"os/user"

	"github.com/relgen/rexlower/iet"
	"github.com/relgen/rexlower/relnode"
	"github.com/relgen/rexlower/reltype"
)

// MethodImplementor lowers a call to a MethodCall(receiver?, symbol,
// args), where whether the call is static (no receiver) or an instance
// method on the first operand is a compile-time property of the
// operator (spec §4.C).
func MethodImplementor(symbol string, static bool) NotNullImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
		args, err := tr.TranslateList(call.Operands, NullAsNotPossible)
		if err != nil {
			return notNullResult{}, err
		}
		if static || len(args) == 0 {
			return exprResult(iet.NewMethodCall(nil, symbol, call.ResultType, args...)), nil
		}
		return exprResult(iet.NewMethodCall(args[0], symbol, call.ResultType, args[1:]...)), nil
	}
}

// MethodNameImplementor lowers a call to SqlFunctions.<name>(args) — a
// call on the runtime helper module rather than on one of the operands
// (spec §4.C).
func MethodNameImplementor(name string) NotNullImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
		args, err := tr.TranslateList(call.Operands, NullAsNotPossible)
		if err != nil {
			return notNullResult{}, err
		}
		return exprResult(iet.NewMethodCall(nil, "SqlFunctions."+name, call.ResultType, args...)), nil
	}
}

// NotImplementor decorates a NotNullImplementor that computes some boolean
// predicate, producing its logical negation — "composition over
// inheritance" (spec §9 Design Notes): NOT LIKE and NOT SIMILAR TO reuse
// LIKE/SIMILAR TO's own MethodNameImplementor body rather than duplicating
// it, the same way the Java source pairs LIKE/NOT_LIKE and
// SIMILAR_TO/NOT_SIMILAR_TO. The wrapped demand is negated before
// delegating so a FALSE/TRUE NullAs collapse still happens against the
// inner predicate rather than its negation.
func NotImplementor(inner NotNullImplementor) NotNullImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
		res, err := inner(tr, call, nullAs.Negate())
		if err != nil {
			return notNullResult{}, err
		}
		if res.isAlwaysNull() {
			return res, nil
		}
		return exprResult(iet.NewNot(res.expr)), nil
	}
}

// comparablePrimitives is the set of primitive kinds BinaryImplementor
// can compare with a native operator rather than a backup method call
// (spec §4.C: "the comparable-primitive set {byte,char,short,int,long,
// float,double}").
var comparablePrimitives = map[reltype.Kind]bool{
	reltype.Int:    true,
	reltype.BigInt: true,
	reltype.Double: true,
}

// BinaryImplementor lowers a call to BinOp(kind, a, b). When backupMethod
// is non-empty it falls back to SqlFunctions.<backup>(a,b) if either
// operand is non-primitive, or the operator is a comparison outside the
// comparable-primitive set (spec §4.C); with an empty backupMethod it
// always emits the BinOp.
func BinaryImplementor(kind iet.BinOpKind, backupMethod string) NotNullImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
		args, err := tr.TranslateList(call.Operands, NullAsNotPossible)
		if err != nil {
			return notNullResult{}, err
		}
		if len(args) != 2 {
			return notNullResult{}, fmt.Errorf("imptable: BinaryImplementor requires exactly two operands, got %d", len(args))
		}
		a, b := args[0], args[1]
		needsBackup := backupMethod != "" && (!a.ExprType().IsPrimitive() || !b.ExprType().IsPrimitive() ||
			(call.Op.IsComparison() && (!comparablePrimitives[a.ExprType().Kind] || !comparablePrimitives[b.ExprType().Kind])))
		if needsBackup {
			return exprResult(iet.NewMethodCall(nil, "SqlFunctions."+backupMethod, call.ResultType, a, b)), nil
		}
		return exprResult(iet.NewBinOp(kind, a, b)), nil
	}
}

// EqualityImplementor lowers = and <> to the dedicated iet.Equal/
// NotEqual nodes (rather than BinOp, which has no equality-comparison
// kind of its own), falling back to a backup method the same way
// BinaryImplementor does when an operand isn't a comparable primitive.
func EqualityImplementor(negate bool, backupMethod string) NotNullImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
		args, err := tr.TranslateList(call.Operands, NullAsNotPossible)
		if err != nil {
			return notNullResult{}, err
		}
		if len(args) != 2 {
			return notNullResult{}, fmt.Errorf("imptable: EqualityImplementor requires exactly two operands, got %d", len(args))
		}
		a, b := args[0], args[1]
		if !a.ExprType().IsPrimitive() || !b.ExprType().IsPrimitive() {
			return exprResult(iet.NewMethodCall(nil, "SqlFunctions."+backupMethod, call.ResultType, a, b)), nil
		}
		if negate {
			return exprResult(iet.NewNotEqual(a, b)), nil
		}
		return exprResult(iet.NewEqual(a, b)), nil
	}
}

// UnaryImplementor lowers a call to UnaryOp(kind, operand).
func UnaryImplementor(kind iet.UnaryOpKind) NotNullImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
		args, err := tr.TranslateList(call.Operands, NullAsNotPossible)
		if err != nil {
			return notNullResult{}, err
		}
		return exprResult(iet.NewUnaryOp(kind, args[0])), nil
	}
}

// CastOptimizedImplementor short-circuits a CAST that changes nothing,
// otherwise delegates to CastImplementor wrapped in STRICT (spec §4.C).
func CastOptimizedImplementor() CallImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (iet.Expr, error) {
		operand := call.Operands[0]
		if call.ResultType.Equal(operand.NodeType()) {
			return tr.Translate(operand, nullAs)
		}
		return NewNullPolicyImplementor(castNotNullImplementor, PolicyStrict, false)(tr, call, nullAs)
	}
}

func castNotNullImplementor(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
	operand := call.Operands[0]
	source, err := tr.Translate(operand, NullAsNotPossible)
	if err != nil {
		return notNullResult{}, err
	}
	targetNullable := call.ResultType.Nullable && operand.NodeType().Nullable && !operand.NodeType().IsPrimitive()
	target := call.ResultType.WithNullability(targetNullable)
	casted, err := tr.TranslateCast(source, target)
	if err != nil {
		return notNullResult{}, err
	}
	return exprResult(casted), nil
}

// CaseImplementor lowers `CASE WHEN c1 THEN v1 WHEN c2 THEN v2 ... ELSE
// ve END`, recursing pairwise over the (test, then) operand list and
// building a Condition chain (spec §4.C).
func CaseImplementor(tr Translator, call *relnode.Call, nullAs NullAs) (iet.Expr, error) {
	return implementCaseRecurse(tr, call.Operands, call.ResultType, nullAs, 0)
}

func implementCaseRecurse(tr Translator, ops []relnode.Node, resultType reltype.Type, nullAs NullAs, i int) (iet.Expr, error) {
	if i == len(ops)-1 {
		translated, err := tr.Translate(ops[i], nullAs)
		if err != nil {
			return nil, err
		}
		return tr.EnsureType(resultType, translated, false), nil
	}
	ifTrue, err := tr.Translate(ops[i+1], nullAs)
	if err != nil {
		return nil, err
	}
	ifFalse, err := implementCaseRecurse(tr, ops, resultType, nullAs, i+2)
	if err != nil {
		return nil, err
	}
	test, err := tr.Translate(ops[i], NullAsFalse)
	if err != nil {
		return nil, err
	}
	return iet.NewCondition(test, ifTrue, ifFalse), nil
}

// IsXxxImplementor implements IS NULL / IS NOT NULL / IS [NOT] TRUE /
// IS [NOT] FALSE uniformly (spec §4.C). seek is nil for the null-test
// forms; otherwise it names which boolean value the predicate is
// checking for.
func IsXxxImplementor(seek *bool, negate bool) CallImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (iet.Expr, error) {
		operand := call.Operands[0]
		if seek == nil {
			demand := NullAsIsNull
			if negate {
				demand = NullAsIsNotNull
			}
			return tr.Translate(operand, demand)
		}
		demand := NullAsFalse
		if *seek {
			demand = NullAsFalse
		} else {
			demand = NullAsTrue
		}
		translated, err := tr.Translate(operand, demand)
		if err != nil {
			return nil, err
		}
		if negate == *seek {
			return iet.NewNot(translated), nil
		}
		return translated, nil
	}
}

// ValueConstructorImplementor delegates ROW/ARRAY/MAP construction to
// the translator (spec §4.C).
func ValueConstructorImplementor(kind relnode.SqlOperator) CallImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (iet.Expr, error) {
		return tr.TranslateConstructor(call.Operands, kind)
	}
}

// ItemImplementor chooses among ARRAY_ITEM/MAP_ITEM/ANY_ITEM by the
// collection operand's SQL type kind, then applies STRICT null
// semantics (spec §4.C).
func ItemImplementor() CallImplementor {
	notNull := func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
		args, err := tr.TranslateList(call.Operands, NullAsNotPossible)
		if err != nil {
			return notNullResult{}, err
		}
		var symbol string
		switch call.Operands[0].NodeType().Kind {
		case reltype.Array:
			symbol = "SqlFunctions.ArrayItem"
		case reltype.Map:
			symbol = "SqlFunctions.MapItem"
		default:
			symbol = "SqlFunctions.AnyItem"
		}
		return exprResult(iet.NewMethodCall(nil, symbol, call.ResultType, args...)), nil
	}
	return NewNullPolicyImplementor(notNull, PolicyStrict, false)
}

// TrimImplementor lowers TRIM(flag chars FROM string), where the first
// operand is a compile-time constant flag, to
// SqlFunctions.TRIM(leading, trailing, string, chars) (spec §4.C).
func TrimImplementor() NotNullImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
		flagNode, ok := call.Operands[0].(*relnode.Const)
		if !ok {
			return notNullResult{}, fmt.Errorf("imptable: TRIM's flag operand must be a constant")
		}
		leading, trailing := trimFlagBits(flagNode.Value)
		rest, err := tr.TranslateList(call.Operands[1:], NullAsNotPossible)
		if err != nil {
			return notNullResult{}, err
		}
		args := append([]iet.Expr{iet.ConstOf(leading, reltype.Bool(false)), iet.ConstOf(trailing, reltype.Bool(false))}, rest...)
		return exprResult(iet.NewMethodCall(nil, "SqlFunctions.TRIM", call.ResultType, args...)), nil
	}
}

func trimFlagBits(flag interface{}) (leading, trailing bool) {
	switch flag {
	case "LEADING":
		return true, false
	case "TRAILING":
		return false, true
	default: // BOTH
		return true, true
	}
}

// SystemFunctionImplementor implements CURRENT_USER and its relatives
// (spec §4.C). For IS_NULL/IS_NOT_NULL demand it short-circuits without
// even looking at the operator, since system functions are never null.
func SystemFunctionImplementor() CallImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (iet.Expr, error) {
		if nullAs == NullAsIsNull {
			return iet.FALSE_EXPR, nil
		}
		if nullAs == NullAsIsNotNull {
			return iet.TRUE_EXPR, nil
		}
		switch call.Op {
		case relnode.OpCurrentUser, relnode.OpSystemUser:
			if call.Op == relnode.OpSystemUser {
				u, err := user.Current()
				name := "sa"
				if err == nil {
					name = u.Username
				}
				return iet.ConstOf(name, call.ResultType), nil
			}
			return iet.ConstOf("sa", call.ResultType), nil
		case relnode.OpCurrentPath, relnode.OpCurrentRole, relnode.OpCurrentCatalog:
			return iet.ConstOf("", call.ResultType), nil
		case relnode.OpCurrentTime, relnode.OpCurrentTimestamp, relnode.OpCurrentDate,
			relnode.OpLocalTime, relnode.OpLocalTimestamp:
			return iet.NewMethodCall(nil, "SqlFunctions."+call.Op.String(), call.ResultType, executionRootParam()), nil
		default:
			return nil, fmt.Errorf("imptable: SystemFunctionImplementor has no case for %v", call.Op)
		}
	}
}

func executionRootParam() iet.Expr {
	return &iet.Param{Name: "root", Typ: reltype.AnyT(false)}
}

// millisPerDay is the divisor DatetimeArithmeticImplementor applies to a
// millisecond-valued INTERVAL before adding it to a DATE (spec §4.C).
const millisPerDay = 86400000

// DatetimeArithmeticImplementor lowers DATE/TIME +/- INTERVAL, scaling
// the interval operand to the target unit's granularity before emitting
// an Add (spec §4.C).
func DatetimeArithmeticImplementor(subtract bool) NotNullImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
		args, err := tr.TranslateList(call.Operands, NullAsNotPossible)
		if err != nil {
			return notNullResult{}, err
		}
		lhs, rhs := args[0], args[1]
		var scaled iet.Expr
		switch call.ResultType.Kind {
		case reltype.Date:
			days := iet.NewBinOp(iet.Divide, rhs, iet.ConstOf(int64(millisPerDay), reltype.BigIntT(false)))
			scaled = iet.NewMethodCall(nil, "SqlFunctions.Truncate", reltype.BigIntT(false), days)
		case reltype.Time:
			scaled = iet.NewMethodCall(nil, "SqlFunctions.Truncate", reltype.BigIntT(false), rhs)
		default:
			scaled = rhs
		}
		kind := iet.Add
		if subtract {
			kind = iet.Subtract
		}
		return exprResult(iet.NewBinOp(kind, lhs, scaled)), nil
	}
}

// ReinterpretImplementor passes its single operand through unchanged
// (spec §4.C).
func ReinterpretImplementor() NotNullImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error) {
		if len(call.Operands) != 1 {
			return notNullResult{}, fmt.Errorf("imptable: REINTERPRET requires exactly one operand, got %d", len(call.Operands))
		}
		translated, err := tr.Translate(call.Operands[0], nullAs)
		if err != nil {
			return notNullResult{}, err
		}
		return exprResult(translated), nil
	}
}
