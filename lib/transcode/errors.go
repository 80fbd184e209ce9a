// Copyright 2026 The Tsnctl Authors
// SPDX-License-Identifier: Apache-2.0

package transcode

import (
	"fmt"

	"github.com/tsn-tools/tsnctl/lib/schema"
)

// EnumError reports a value outside an enumeration's bijection, in
// either direction.
type EnumError struct {
	Path  string
	Value any
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("%s: %v is not a member of the enumeration", e.Path, e.Value)
}

// IdentityError reports an identity name or SID with no entry in the
// identity bijection.
type IdentityError struct {
	Path  string
	Value any
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("%s: unknown identity %v", e.Path, e.Value)
}

// DeltaError reports a CBOR map key that resolves neither as a
// Delta-SID against its parent nor as an absolute SID.
type DeltaError struct {
	Key    int64
	Parent schema.SID
}

func (e *DeltaError) Error() string {
	return fmt.Sprintf("key %d under parent SID %d matches no schema node", e.Key, e.Parent)
}

// ValueError reports a scalar that cannot be encoded or decoded under
// its YANG type.
type ValueError struct {
	Path   string
	Value  any
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: cannot represent %v: %s", e.Path, e.Value, e.Reason)
}
