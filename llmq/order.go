// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import (
	"bytes"
	"slices"

	"github.com/quorumchain/llmq-rotation/thor"
)

// Modifier computes the 256-bit seed hash(type ‖ blockHash) used as the
// sort key for every deterministic ordering in this package (§4.3). It
// is the only source of randomness in member selection, so it must stay
// a cryptographic hash — an adversary who could predict it could grind
// for favorable membership.
func Modifier(t Type, blockHash thor.Bytes32) thor.Bytes32 {
	return thor.Blake2b([]byte{byte(t)}, blockHash.Bytes())
}

type scored struct {
	mn    MN
	score thor.Bytes32
}

// orderBy produces a stable ascending sort of mns by hash(modifier ‖
// proTxHash), matching the ordering contract DeterministicMNList.
// calculate_quorum relies on (§4.3).
func orderBy(mns []MN, modifier thor.Bytes32) []MN {
	scoredList := make([]scored, len(mns))
	for i, mn := range mns {
		scoredList[i] = scored{
			mn:    mn,
			score: thor.Blake2b(modifier.Bytes(), mn.ProTxHash.Bytes()),
		}
	}
	slices.SortStableFunc(scoredList, func(a, b scored) int {
		return bytes.Compare(a.score.Bytes(), b.score.Bytes())
	})
	out := make([]MN, len(scoredList))
	for i, s := range scoredList {
		out[i] = s.mn
	}
	return out
}

// CalculateQuorum is the non-rotated member-selection primitive: it
// sorts mnList by hash(modifier ‖ proTxHash) ascending and returns the
// first k entries. The rotating path uses it both directly (the
// fallback in §4.6) and as the ordering primitive within each sub-list
// in §4.4/§4.5.
func CalculateQuorum(mnList MNList, k int, modifier thor.Bytes32) []MN {
	all := make([]MN, 0, mnList.Count())
	mnList.ForEach(true, func(_ int, mn MN) {
		all = append(all, mn)
	})
	ordered := orderBy(all, modifier)
	if k > len(ordered) {
		k = len(ordered)
	}
	return ordered[:k]
}
