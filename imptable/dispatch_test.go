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
	"testing"

	"github.com/shopspring/decimal"

	"github.com/relgen/rexlower/iet"
	"github.com/relgen/rexlower/relnode"
	"github.com/relgen/rexlower/reltype"
	"github.com/relgen/rexlower/sqlfn"
)

// fakeTranslator is a minimal Translator over constant- and field-valued
// relnode trees, sufficient to drive the end-to-end scenarios spec §8
// describes without needing a real code-generation back end (explicitly
// out of scope per spec §1).
type fakeTranslator struct{}

func (fakeTranslator) Translate(node relnode.Node, as NullAs) (iet.Expr, error) {
	switch n := node.(type) {
	case *relnode.Const:
		return as.Handle(iet.ConstOf(n.Value, n.Typ)), nil
	case *relnode.Field:
		return as.Handle(&iet.Field{Name: n.Name, Typ: n.Typ}), nil
	case *relnode.Call:
		impl, err := Get(n.Op, nil)
		if err != nil {
			return nil, err
		}
		return impl(fakeTranslator{}, n, as)
	default:
		return nil, fmt.Errorf("fakeTranslator: unsupported node %T", node)
	}
}

func (tr fakeTranslator) TranslateList(nodes []relnode.Node, as NullAs) ([]iet.Expr, error) {
	out := make([]iet.Expr, len(nodes))
	for i, n := range nodes {
		e, err := tr.Translate(n, as)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (fakeTranslator) IsNullable(node relnode.Node) bool { return node.NodeType().Nullable }
func (tr fakeTranslator) SetNullable(relnode.Node, bool) Translator { return tr }
func (fakeTranslator) EnsureType(_ reltype.Type, expr iet.Expr, _ bool) iet.Expr { return expr }
func (fakeTranslator) NullifyType(t reltype.Type, nullable bool) reltype.Type {
	return t.WithNullability(nullable)
}
func (fakeTranslator) TranslateCast(source iet.Expr, target reltype.Type) (iet.Expr, error) {
	return iet.NewCast(source, target), nil
}
func (fakeTranslator) TranslateConstructor([]relnode.Node, relnode.SqlOperator) (iet.Expr, error) {
	return nil, fmt.Errorf("fakeTranslator: constructors not supported")
}
func (fakeTranslator) CurrentBlock() *iet.Block { return nil }
func (tr fakeTranslator) NestBlock() Translator { return tr }
func (fakeTranslator) ExitBlock() iet.Expr      { return nil }

// env threads accumulator bindings (*iet.Param -> value) and the
// current row (field name -> value) through eval, the small reference
// interpreter these tests use to check a generated IET's runtime value
// without a real execution engine.
type env struct {
	vars map[*iet.Param]interface{}
	row  map[string]interface{}
}

func newEnv(row map[string]interface{}) *env {
	return &env{vars: make(map[*iet.Param]interface{}), row: row}
}

// singleValueViolation mirrors the SINGLE_VALUE-more-than-one runtime
// error (spec §7.6): eval panics with it so a test can recover and
// assert the aggregate misbehaved exactly where expected.
type singleValueViolation struct{ msg string }

func eval(e iet.Expr, en *env) interface{} {
	switch n := e.(type) {
	case *iet.Const:
		return n.Value
	case *iet.Field:
		return en.row[n.Name]
	case *iet.Param:
		return en.vars[n]
	case *iet.Equal:
		return eval(n.Lhs, en) == eval(n.Rhs, en)
	case *iet.NotEqual:
		return eval(n.Lhs, en) != eval(n.Rhs, en)
	case *iet.Not:
		return !eval(n.Operand, en).(bool)
	case *iet.Condition:
		if eval(n.Test, en).(bool) {
			return eval(n.IfTrue, en)
		}
		return eval(n.IfFalse, en)
	case *iet.FoldAnd:
		for _, x := range n.Exprs {
			if !eval(x, en).(bool) {
				return false
			}
		}
		return true
	case *iet.FoldOr:
		for _, x := range n.Exprs {
			if eval(x, en).(bool) {
				return true
			}
		}
		return false
	case *iet.BinOp:
		return evalBinOp(n, en)
	case *iet.MethodCall:
		return evalMethodCall(n, en)
	case *iet.Block:
		for _, s := range n.Stmts {
			eval(s, en)
		}
		if n.Terminal != nil {
			return eval(n.Terminal, en)
		}
		return nil
	case *iet.IfThen:
		if eval(n.Test, en).(bool) {
			if n.ThenBlock != nil {
				eval(n.ThenBlock, en)
			}
		} else if n.ElseBlock != nil {
			eval(n.ElseBlock, en)
		}
		return nil
	case *iet.Assign:
		en.vars[n.Var] = eval(n.Value, en)
		return nil
	case *iet.Throw:
		panic(singleValueViolation{msg: n.Exception})
	default:
		panic(fmt.Sprintf("eval: unsupported node %T", e))
	}
}

func evalBinOp(n *iet.BinOp, en *env) interface{} {
	l, r := eval(n.Lhs, en), eval(n.Rhs, en)
	li, liok := toInt64(l)
	ri, riok := toInt64(r)
	switch n.Kind {
	case iet.Add:
		if liok && riok {
			return li + ri
		}
	case iet.Subtract:
		if liok && riok {
			return li - ri
		}
	case iet.GreaterThan:
		return liok && riok && li > ri
	case iet.LessThan:
		return liok && riok && li < ri
	}
	panic(fmt.Sprintf("evalBinOp: unsupported case %v(%v,%v)", n.Kind, l, r))
}

func toInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	default:
		return 0, false
	}
}

func evalMethodCall(n *iet.MethodCall, en *env) interface{} {
	args := make([]interface{}, len(n.Args))
	for i, a := range n.Args {
		args[i] = eval(a, en)
	}
	switch n.Symbol {
	case "SqlFunctions.Upper":
		return upperOf(args[0])
	case "SqlFunctions.Like":
		if args[0] == nil || args[1] == nil {
			return nil
		}
		return sqlfn.Like(args[0].(string), args[1].(string))
	case "SqlFunctions.Exp", "SqlFunctions.Power", "SqlFunctions.Ln", "SqlFunctions.Log10":
		return evalMathCall(n.Symbol, args)
	default:
		panic(fmt.Sprintf("evalMethodCall: unsupported symbol %q", n.Symbol))
	}
}

func evalMathCall(symbol string, args []interface{}) interface{} {
	toDecimal := func(v interface{}) decimal.Decimal {
		switch x := v.(type) {
		case int64:
			return decimal.NewFromInt(x)
		case float64:
			return decimal.NewFromFloat(x)
		default:
			panic(fmt.Sprintf("evalMathCall: unsupported operand %v (%T)", v, v))
		}
	}
	switch symbol {
	case "SqlFunctions.Exp":
		return sqlfn.Exp(toDecimal(args[0]))
	case "SqlFunctions.Power":
		return sqlfn.Power(toDecimal(args[0]), toDecimal(args[1]))
	case "SqlFunctions.Ln":
		return sqlfn.Ln(toDecimal(args[0]))
	case "SqlFunctions.Log10":
		return sqlfn.Log10(toDecimal(args[0]))
	default:
		panic(fmt.Sprintf("evalMathCall: unsupported symbol %q", symbol))
	}
}

func upperOf(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	s := v.(string)
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func TestUpperScenarios(t *testing.T) {
	upperCall := func(value interface{}, nullable bool) *relnode.Call {
		return &relnode.Call{
			Op:         relnode.OpUpper,
			Operands:   []relnode.Node{&relnode.Const{Value: value, Typ: reltype.VarcharT(nullable)}},
			ResultType: reltype.VarcharT(nullable),
		}
	}
	impl, err := Get(relnode.OpUpper, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := impl(fakeTranslator{}, upperCall("abc", false), NullAsNull)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(iet.Optimize(got), newEnv(nil)); v != "ABC" {
		t.Errorf("UPPER('abc') = %v, want ABC", v)
	}

	got, err = impl(fakeTranslator{}, upperCall(nil, true), NullAsNull)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(iet.Optimize(got), newEnv(nil)); v != nil {
		t.Errorf("UPPER(NULL) = %v, want nil", v)
	}
}

func TestPlusNullScenarios(t *testing.T) {
	impl, err := Get(relnode.OpPlus, nil)
	if err != nil {
		t.Fatal(err)
	}
	plusCall := &relnode.Call{
		Op: relnode.OpPlus,
		Operands: []relnode.Node{
			&relnode.Const{Value: int64(1), Typ: reltype.IntType(false)},
			&relnode.Const{Value: nil, Typ: reltype.IntType(true)},
		},
		ResultType: reltype.IntType(true),
	}
	got, err := impl(fakeTranslator{}, plusCall, NullAsNull)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(iet.Optimize(got), newEnv(nil)); v != nil {
		t.Errorf("1 + NULL = %v, want nil", v)
	}

	notPossibleCall := &relnode.Call{
		Op: relnode.OpPlus,
		Operands: []relnode.Node{
			&relnode.Const{Value: int64(1), Typ: reltype.IntType(false)},
			&relnode.Const{Value: int64(2), Typ: reltype.IntType(false)},
		},
		ResultType: reltype.IntType(false),
	}
	got, err = impl(fakeTranslator{}, notPossibleCall, NullAsNotPossible)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(iet.Optimize(got), newEnv(nil)); v != int64(3) {
		t.Errorf("1 + 2 (NOT_POSSIBLE) = %v, want 3", v)
	}
}

func TestCaseScenario(t *testing.T) {
	varchar := reltype.VarcharT(false)
	call := &relnode.Call{
		Op: relnode.OpCase,
		Operands: []relnode.Node{
			&relnode.Const{Value: nil, Typ: reltype.Bool(true)},
			&relnode.Const{Value: "x", Typ: varchar},
			&relnode.Const{Value: true, Typ: reltype.Bool(false)},
			&relnode.Const{Value: "y", Typ: varchar},
			&relnode.Const{Value: "z", Typ: varchar},
		},
		ResultType: varchar,
	}
	got, err := CaseImplementor(fakeTranslator{}, call, NullAsNull)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(got, newEnv(nil)); v != "y" {
		t.Errorf("CASE WHEN NULL THEN 'x' WHEN TRUE THEN 'y' ELSE 'z' END = %v, want y", v)
	}
}

func TestIsNullOfUpperNull(t *testing.T) {
	inner := &relnode.Call{
		Op:         relnode.OpUpper,
		Operands:   []relnode.Node{&relnode.Const{Value: nil, Typ: reltype.VarcharT(true)}},
		ResultType: reltype.VarcharT(true),
	}
	isNullCall := &relnode.Call{Op: relnode.OpIsNull, Operands: []relnode.Node{inner}, ResultType: reltype.Bool(false)}
	isNotNullCall := &relnode.Call{Op: relnode.OpIsNotNull, Operands: []relnode.Node{inner}, ResultType: reltype.Bool(false)}

	impl := IsXxxImplementor(nil, false)
	got, err := impl(fakeTranslator{}, isNullCall, NullAsNull)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(got, newEnv(nil)); v != true {
		t.Errorf("IS NULL(UPPER(NULL)) = %v, want true", v)
	}

	impl = IsXxxImplementor(nil, true)
	got, err = impl(fakeTranslator{}, isNotNullCall, NullAsNull)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(got, newEnv(nil)); v != false {
		t.Errorf("IS NOT NULL(UPPER(NULL)) = %v, want false", v)
	}
}

// runAgg drives impl's reset/add/result over rows the way an execution
// engine would, using the x column values given.
func runAgg(impl AggImplementor, resultType reltype.Type, rowValues []interface{}) (result interface{}, err error) {
	acc := make([]*iet.Param, len(impl.StateTypes(resultType)))
	for i, t := range impl.StateTypes(resultType) {
		acc[i] = &iet.Param{Name: fmt.Sprintf("acc%d", i), Typ: t}
	}
	ctx := &AggContext{
		Translator:   fakeTranslator{},
		Args:         []relnode.Node{&relnode.Field{Name: "x", Typ: reltype.IntType(true)}},
		Accumulators: acc,
		ResultType:   resultType,
	}
	en := newEnv(nil)
	resetStmt, rErr := impl.Reset(ctx)
	if rErr != nil {
		return nil, rErr
	}
	eval(resetStmt, en)
	for _, v := range rowValues {
		en.row = map[string]interface{}{"x": v}
		addStmt, aErr := impl.Add(ctx)
		if aErr != nil {
			return nil, aErr
		}
		eval(addStmt, en)
	}
	resultExpr, reErr := impl.Result(ctx)
	if reErr != nil {
		return nil, reErr
	}
	return eval(resultExpr, en), nil
}

func TestSumCountSingleValueScenario(t *testing.T) {
	rows := []interface{}{int64(1), nil, int64(2), int64(3)}

	sumResult, err := runAgg(NewSumAgg(), reltype.IntType(false), rows)
	if err != nil {
		t.Fatal(err)
	}
	if sumResult != int64(6) {
		t.Errorf("SUM(x) = %v, want 6", sumResult)
	}

	countResult, err := runAgg(NewCountAgg(), reltype.BigIntT(false), rows)
	if err != nil {
		t.Fatal(err)
	}
	if countResult != int64(3) {
		t.Errorf("COUNT(x) = %v, want 3", countResult)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("SINGLE_VALUE(x) over more than one row should panic")
		}
		if _, ok := r.(singleValueViolation); !ok {
			t.Fatalf("SINGLE_VALUE(x) panicked with %v, want singleValueViolation", r)
		}
	}()
	runAgg(NewSingleValueAgg(), reltype.IntType(false), rows)
}

// TestNotLikeScenario checks that NOT LIKE shares LIKE's own match logic
// through NotImplementor rather than a separate implementation, and that
// the STRICT null policy still applies to the negated call.
func TestNotLikeScenario(t *testing.T) {
	varchar := reltype.VarcharT(false)
	notLikeCall := func(value string) *relnode.Call {
		return &relnode.Call{
			Op: relnode.OpNotLike,
			Operands: []relnode.Node{
				&relnode.Const{Value: value, Typ: varchar},
				&relnode.Const{Value: "a%", Typ: varchar},
			},
			ResultType: reltype.Bool(false),
		}
	}
	impl, err := Get(relnode.OpNotLike, nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := impl(fakeTranslator{}, notLikeCall("abc"), NullAsNull)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(iet.Optimize(got), newEnv(nil)); v != false {
		t.Errorf("'abc' NOT LIKE 'a%%' = %v, want false", v)
	}

	got, err = impl(fakeTranslator{}, notLikeCall("xyz"), NullAsNull)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(iet.Optimize(got), newEnv(nil)); v != true {
		t.Errorf("'xyz' NOT LIKE 'a%%' = %v, want true", v)
	}

	nullCall := &relnode.Call{
		Op: relnode.OpNotLike,
		Operands: []relnode.Node{
			&relnode.Const{Value: nil, Typ: reltype.VarcharT(true)},
			&relnode.Const{Value: "a%", Typ: varchar},
		},
		ResultType: reltype.Bool(true),
	}
	got, err = impl(fakeTranslator{}, nullCall, NullAsNull)
	if err != nil {
		t.Fatal(err)
	}
	if v := eval(iet.Optimize(got), newEnv(nil)); v != nil {
		t.Errorf("NULL NOT LIKE 'a%%' = %v, want nil", v)
	}
}

// TestExpLnLog10PowerScenarios exercises the four numeric MethodName
// implementors that lower to sqlfn's transcendental functions.
func TestExpLnLog10PowerScenarios(t *testing.T) {
	decimalT := reltype.DecimalT(false, 18, 6)
	near := func(got interface{}, want float64) bool {
		d, ok := got.(decimal.Decimal)
		if !ok {
			return false
		}
		f, _ := d.Float64()
		diff := f - want
		if diff < 0 {
			diff = -diff
		}
		return diff < 1e-9
	}

	cases := []struct {
		op   relnode.SqlOperator
		args []interface{}
		want float64
	}{
		{relnode.OpExp, []interface{}{0.0}, 1.0},
		{relnode.OpLn, []interface{}{1.0}, 0.0},
		{relnode.OpLog10, []interface{}{100.0}, 2.0},
		{relnode.OpPower, []interface{}{2.0, 10.0}, 1024.0},
	}
	for _, c := range cases {
		operands := make([]relnode.Node, len(c.args))
		for i, a := range c.args {
			operands[i] = &relnode.Const{Value: a, Typ: decimalT}
		}
		call := &relnode.Call{Op: c.op, Operands: operands, ResultType: decimalT}
		impl, err := Get(c.op, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := impl(fakeTranslator{}, call, NullAsNull)
		if err != nil {
			t.Fatal(err)
		}
		v := eval(iet.Optimize(got), newEnv(nil))
		if !near(v, c.want) {
			t.Errorf("%v%v = %v, want %v", c.op, c.args, v, c.want)
		}
	}
}
