// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import "fmt"

// Kind classifies a consumer-visible error (see §7 of the rotation spec).
type Kind int

const (
	// BadRequest marks malformed counts, too many base hashes, or
	// inconsistent request sizes.
	BadRequest Kind = iota
	// NotFound marks a block hash absent from the index, or not on the
	// active chain.
	NotFound
	// NoQuorum marks fewer than four mined commitments of the required
	// type preceding the request block.
	NoQuorum
	// NoSnapshot marks a required prior snapshot missing from the store.
	NoSnapshot
	// Malformed marks a snapshot that failed to decode.
	Malformed
	// UnknownType marks a quorum type absent from the consensus registry.
	UnknownType
)

func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "BADREQUEST"
	case NotFound:
		return "NOTFOUND"
	case NoQuorum:
		return "NOQUORUM"
	case NoSnapshot:
		return "NOSNAPSHOT"
	case Malformed:
		return "MALFORMED"
	case UnknownType:
		return "UNKNOWNTYPE"
	default:
		return "UNKNOWN"
	}
}

// Error is the typed, consumer-visible error returned by this package. All
// errors surfaced to callers carry a Kind and a human-readable reason; the
// core never retries internally.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Reason
}

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Reason: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind of err, if err (or something it wraps) is a
// *Error produced by this package.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return 0, false
	}
	return e.Kind, true
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}
