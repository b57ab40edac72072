// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package llmq implements deterministic quorum member selection under
// quarter-rotation, the snapshot encoding that makes past rotations
// reproducible from chain state, and the rotation-info assembly used by
// light clients to catch up.
package llmq

import "fmt"

// Type identifies a quorum configuration (analogous to Consensus::LLMQType).
type Type uint8

// Params are the read-only, per-type quorum parameters.
type Params struct {
	Type Type
	Name string

	// Size is the total member count of a rotated quorum. Must be
	// divisible by 4.
	Size int

	// DKGInterval is the number of blocks between cycle base blocks,
	// i.e. the rotation period C.
	DKGInterval int

	// SigningActiveQuorumCount is the number of concurrent active
	// quorums seeded per cycle.
	SigningActiveQuorumCount int

	// Rotated indicates whether this type uses quarter-rotation. When
	// false, member selection falls back to a single CalculateQuorum
	// call over the full list (see Manager.Members).
	Rotated bool
}

// QuarterSize is Size/4, the number of members contributed by each of the
// four quarters making up a rotated quorum.
func (p Params) QuarterSize() int {
	return p.Size / 4
}

// Validate reports whether p describes a well-formed quorum configuration.
// Violations are bugs, not operator input: callers that construct a
// Registry from trusted consensus parameters should panic on error, per
// the fatal-assertion contract in the rotation spec.
func (p Params) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("llmq: %s: size must be positive, got %d", p.Name, p.Size)
	}
	if p.Size%4 != 0 {
		return fmt.Errorf("llmq: %s: size %d is not divisible by 4", p.Name, p.Size)
	}
	if p.Rotated {
		if p.DKGInterval <= 0 {
			return fmt.Errorf("llmq: %s: dkgInterval must be positive for a rotated type", p.Name)
		}
		if p.SigningActiveQuorumCount <= 0 {
			return fmt.Errorf("llmq: %s: signingActiveQuorumCount must be positive for a rotated type", p.Name)
		}
	}
	return nil
}

// Registry is the consensus-wide map of quorum type to its parameters,
// analogous to Consensus::Params.llmqs, plus the two scalar fields (§6)
// that gate whether the rotating path applies at all: the activation
// height of quarter-rotation itself, and the type reserved for
// InstantSend-style quorums (which never rotates, regardless of its own
// Params.Rotated flag, matching the source's separate carve-out).
type Registry struct {
	byType map[Type]Params

	// RotationActivationHeight is the height at and after which rotated
	// types use quarter-rotation (Consensus::Params.DIP0024Height).
	// Heights below it always fall back to the non-rotated primitive,
	// even for a Rotated=true type, modeling the pre-activation window.
	RotationActivationHeight int

	// InstantSendType is the quorum type Consensus::Params.llmqTypeInstantSend
	// names; it is excluded from rotation unconditionally.
	InstantSendType Type
}

// NewRegistry builds a Registry from a set of params, panicking if any
// entry fails Params.Validate — a malformed registry is a programming
// error, not a runtime condition callers can recover from.
func NewRegistry(params ...Params) *Registry {
	r := &Registry{byType: make(map[Type]Params, len(params))}
	for _, p := range params {
		if err := p.Validate(); err != nil {
			panic(err)
		}
		r.byType[p.Type] = p
	}
	return r
}

// Get returns the params for t, or an *Error of kind UnknownType if t is
// not registered.
func (r *Registry) Get(t Type) (Params, error) {
	p, ok := r.byType[t]
	if !ok {
		return Params{}, newErr(UnknownType, "llmq: unknown quorum type %d", t)
	}
	return p, nil
}

// RotationActive reports whether type t rotates at height h: it must be
// configured Rotated, sit at or past RotationActivationHeight, and not be
// the InstantSend type (§4.6 final paragraph: "pre-activation or types
// excluded by consensus" fall back to the non-rotated primitive).
func (r *Registry) RotationActive(p Params, h int) bool {
	return p.Rotated && h >= r.RotationActivationHeight && p.Type != r.InstantSendType
}
