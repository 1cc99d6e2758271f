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
	"github.com/relgen/rexlower/iet"
	"github.com/relgen/rexlower/relnode"
)

// NullPolicy is the per-operator null-handling strategy a not-null
// implementor is wrapped in (spec §3, §4.B).
type NullPolicy int

const (
	PolicyAny NullPolicy = iota
	PolicyStrict
	PolicyAnd
	PolicyOr
	PolicyNot
	PolicyNone
)

func (p NullPolicy) String() string {
	switch p {
	case PolicyAny:
		return "ANY"
	case PolicyStrict:
		return "STRICT"
	case PolicyAnd:
		return "AND"
	case PolicyOr:
		return "OR"
	case PolicyNot:
		return "NOT"
	case PolicyNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// CallImplementor lowers a Call into an IET expression under a given
// NullAs demand.
type CallImplementor func(tr Translator, call *relnode.Call, nullAs NullAs) (iet.Expr, error)

// notNullResult is the Result<Expr, AlwaysNull> the design notes call
// for: a not-null implementor either produces an expression or signals
// that, given its operands, the call is always null — without using an
// error or an exception for ordinary control flow.
type notNullResult struct {
	expr       iet.Expr
	alwaysNull bool
}

func exprResult(e iet.Expr) notNullResult    { return notNullResult{expr: e} }
func alwaysNullResult() notNullResult        { return notNullResult{alwaysNull: true} }
func (r notNullResult) isAlwaysNull() bool   { return r.alwaysNull }

// NotNullImplementor lowers a Call whose operands are already known (or
// assumed) non-null, returning notNullResult's AlwaysNull variant if the
// call is unconditionally null regardless of that assumption (e.g. an
// empty aggregate window).
type NotNullImplementor func(tr Translator, call *relnode.Call, nullAs NullAs) (notNullResult, error)

// NewNullPolicyImplementor builds a CallImplementor that wraps notNull in
// policy's null-handling strategy, optionally harmonizing operand types
// first — the re-architected replacement (per spec §9) for a closure
// capturing (notNullImplementor, nullPolicy, harmonize): a single
// dispatch function switching on an explicit policy value rather than a
// family of anonymous inner classes.
func NewNullPolicyImplementor(notNull NotNullImplementor, policy NullPolicy, harmonize bool) CallImplementor {
	return func(tr Translator, call *relnode.Call, nullAs NullAs) (iet.Expr, error) {
		if harmonize {
			call = harmonizeCall(tr, call)
		}
		switch policy {
		case PolicyAny, PolicyStrict:
			return implementNullSemantics0(tr, call, notNull, policy, nullAs)
		case PolicyAnd:
			return implementAnd(tr, call, nullAs)
		case PolicyOr:
			return implementOr(tr, call, nullAs)
		case PolicyNot:
			return implementNullSemantics0(tr, call, notNull, policy, nullAs.Negate())
		case PolicyNone:
			return implementNone(tr, call, notNull, nullAs)
		default:
			return nil, errUnreachableNullPolicy(policy)
		}
	}
}

// implementNone translates operands without harmonizing, invokes the
// not-null implementor directly (it owns null handling itself), and
// post-applies the caller's demand.
func implementNone(tr Translator, call *relnode.Call, notNull NotNullImplementor, nullAs NullAs) (iet.Expr, error) {
	res, err := notNull(tr, call, nullAs)
	if err != nil {
		return nil, err
	}
	if res.isAlwaysNull() {
		return collapseAlwaysNull(nullAs)
	}
	return nullAs.Handle(res.expr), nil
}

func implementAnd(tr Translator, call *relnode.Call, nullAs NullAs) (iet.Expr, error) {
	if nullAs == NullAsNotPossible || nullAs == NullAsTrue {
		translated, err := tr.TranslateList(call.Operands, nullAs)
		if err != nil {
			return nil, err
		}
		return &iet.FoldAnd{Exprs: translated}, nil
	}
	nullAsPrime := nullAs
	if nullAs == NullAsTrue {
		nullAsPrime = NullAsNull
	}
	translated, err := tr.TranslateList(call.Operands, nullAsPrime)
	if err != nil {
		return nil, err
	}
	handled := make([]iet.Expr, len(translated))
	for i, e := range translated {
		handled[i] = nullAsPrime.Handle(e)
	}
	return &iet.FoldAnd{Exprs: handled}, nil
}

func implementOr(tr Translator, call *relnode.Call, nullAs NullAs) (iet.Expr, error) {
	if nullAs == NullAsNull && len(call.Operands) == 2 &&
		tr.IsNullable(call.Operands[0]) && tr.IsNullable(call.Operands[1]) {
		t0, err := tr.Translate(call.Operands[0], NullAsNull)
		if err != nil {
			return nil, err
		}
		t1, err := tr.Translate(call.Operands[1], NullAsNull)
		if err != nil {
			return nil, err
		}
		// t0==null ? (t1==null||!t1 ? null : TRUE) : (!t0 ? t1 : TRUE)
		tree := iet.NewCondition(
			iet.NewEqual(t0, iet.NULL_EXPR),
			iet.NewCondition(
				iet.NewFoldOr(iet.NewEqual(t1, iet.NULL_EXPR), iet.NewNot(t1)),
				iet.NULL_EXPR,
				iet.TRUE_EXPR,
			),
			iet.NewCondition(iet.NewNot(t0), t1, iet.TRUE_EXPR),
		)
		return iet.Optimize(tree), nil
	}
	if nullAs == NullAsNotPossible || nullAs == NullAsFalse {
		translated, err := tr.TranslateList(call.Operands, nullAs)
		if err != nil {
			return nil, err
		}
		return &iet.FoldOr{Exprs: translated}, nil
	}
	nullAsPrime := nullAs
	if nullAs == NullAsFalse {
		nullAsPrime = NullAsNull
	}
	translated, err := tr.TranslateList(call.Operands, nullAsPrime)
	if err != nil {
		return nil, err
	}
	handled := make([]iet.Expr, len(translated))
	for i, e := range translated {
		handled[i] = nullAsPrime.Handle(e)
	}
	return &iet.FoldOr{Exprs: handled}, nil
}

// harmonizeCall rewrites call's operands to their least-restrictive
// common type (spec §4.B). Left to the scalar-registry layer (see
// harmonize.go) because it needs reltype.LeastRestrictive and
// relnode.Node construction that don't belong in the policy dispatcher
// itself.
var harmonizeCall = defaultHarmonizeCall
