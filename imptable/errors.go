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

	"github.com/relgen/rexlower/relnode"
)

// InvalidUDFError reports a user-defined function or aggregate that does
// not expose the capability interface (Implementable / ImplementableAgg)
// the dispatch API requires of it (spec §4.E, §7.2). It is fatal and
// bubbles up unchanged.
type InvalidUDFError struct {
	Name string
}

func (e *InvalidUDFError) Error() string {
	return fmt.Sprintf("imptable: user-defined function %q has no implementor", e.Name)
}

func errInvalidUDF(name string) error { return &InvalidUDFError{Name: name} }

// ConstructionFailureError reports that a declared aggregate implementor
// factory could not produce an instance (spec §7.3) — the re-architected
// replacement for a reflective zero-arg-constructor lookup failing.
type ConstructionFailureError struct {
	Agg relnode.Aggregation
	Err error
}

func (e *ConstructionFailureError) Error() string {
	return fmt.Sprintf("imptable: constructing implementor for %v: %v", e.Agg, e.Err)
}

func (e *ConstructionFailureError) Unwrap() error { return e.Err }

func errConstructionFailure(agg relnode.Aggregation, cause error) error {
	return &ConstructionFailureError{Agg: agg, Err: cause}
}

// UnreachableNullPolicyError is the sentinel-default-case assertion
// failure for NullPolicy dispatch (spec §7.5): every NullPolicy value
// has an explicit branch in NewNullPolicyImplementor, so reaching this means a
// new NullPolicy constant was added without updating the dispatch.
type UnreachableNullPolicyError struct {
	Policy NullPolicy
}

func (e *UnreachableNullPolicyError) Error() string {
	return fmt.Sprintf("imptable: unreachable NullPolicy %v", e.Policy)
}

func errUnreachableNullPolicy(p NullPolicy) error {
	return &UnreachableNullPolicyError{Policy: p}
}

// LookupMissError signals that no implementor is registered for a given
// scalar operator. Per spec §7.1 this is not fatal — callers decide what
// to do — so Get returns it alongside a nil implementor rather than
// wrapping every call site in error
// propagation for a case that is often expected (a constant-folding pass
// probing "is this a known builtin"). GetAgg does not return it: an
// aggregation with no registry entry and no ImplementableAgg is reported
// as InvalidUDFError.
type LookupMissError struct {
	Op relnode.SqlOperator
}

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("imptable: no implementor registered for operator %v", e.Op)
}
