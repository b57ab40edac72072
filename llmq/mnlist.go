// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import "github.com/quorumchain/llmq-rotation/thor"

// ProTxHash identifies a masternode registration. It has a total order
// (lexicographic over its bytes), which is all the selection algorithms
// in this package rely on for tie-breaking.
type ProTxHash = thor.Bytes32

// MN is an immutable masternode record. MNs never mutate after
// registration; callers may freely share them by value since ProTxHash
// is the only field the selection algorithms inspect.
type MN struct {
	ProTxHash  ProTxHash
	PoSeBanned bool
}

// MNList is the read-only view of DeterministicMNList this package
// consumes (see §6). Implementations are expected to be side-effect
// free and to iterate in a stable, content-determined order so that
// positional indices are reproducible across nodes.
type MNList interface {
	// Count returns the number of entries ForEach would visit with
	// includeBanned set to true.
	Count() int

	// ForEach visits every MN in the list's natural (stable) order. If
	// includeBanned is false, PoSe-banned MNs are skipped. §4.4 and §4.5
	// always call this with includeBanned=true per the spec's fixed
	// decision on the source's inconsistent call sites.
	ForEach(includeBanned bool, fn func(i int, mn MN))

	// Contains reports whether proTxHash is a member of the list.
	Contains(proTxHash ProTxHash) bool

	// CalculateQuorum sorts the list by hash(modifier ‖ proTxHash)
	// ascending and returns the first k entries. It must be
	// deterministic and side-effect free.
	CalculateQuorum(k int, modifier thor.Bytes32) []MN

	// SimplifiedDiff computes the simplified masternode-list diff
	// between the lists rooted at fromHash and toHash. The diff format
	// itself is out of scope for this package (§6); it is opaque here.
	SimplifiedDiff(fromHash, toHash thor.Bytes32) (SimplifiedMNListDiff, error)
}

// SimplifiedMNListDiff is an opaque external artifact (§6); this
// package never inspects its contents, only plumbs it through the
// rotation-info response.
type SimplifiedMNListDiff interface{}

// Slice is a simple in-memory MNList, mainly useful for the quarter
// selection algorithms operating on a snapshot already loaded by the
// caller, and for tests.
type Slice []MN

var _ MNList = Slice(nil)

func (s Slice) Count() int { return len(s) }

func (s Slice) ForEach(includeBanned bool, fn func(i int, mn MN)) {
	i := 0
	for _, mn := range s {
		if !includeBanned && mn.PoSeBanned {
			continue
		}
		fn(i, mn)
		i++
	}
}

func (s Slice) Contains(proTxHash ProTxHash) bool {
	for _, mn := range s {
		if mn.ProTxHash == proTxHash {
			return true
		}
	}
	return false
}

func (s Slice) CalculateQuorum(k int, modifier thor.Bytes32) []MN {
	return CalculateQuorum(s, k, modifier)
}

func (s Slice) SimplifiedDiff(_, _ thor.Bytes32) (SimplifiedMNListDiff, error) {
	return nil, nil
}
