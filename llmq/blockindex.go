// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import "github.com/quorumchain/llmq-rotation/thor"

// BlockIndex is the collaborator interface consumed for chain
// navigation (§6). The core never mutates or constructs one; it is
// handed block indexes resolved by the caller's chain implementation.
type BlockIndex interface {
	Height() int
	Prev() (BlockIndex, bool)
	Ancestor(height int) (BlockIndex, bool)
	BlockHash() thor.Bytes32
}

// BlockSource resolves block indexes, mirroring the lookup surface of
// §6's BlockIndex collaborator (tip, genesis, hash lookup, active-chain
// membership).
type BlockSource interface {
	Tip() BlockIndex
	Genesis() BlockIndex
	Lookup(hash thor.Bytes32) (BlockIndex, bool)
	Contains(index BlockIndex) bool
}

// Commitment is a mined-commitment artifact (§6's CommitmentIndex):
// enough for the rotation-info builder to anchor H, H-C, H-2C, H-3C.
// BLS/DKG message content is out of scope for this package.
type Commitment struct {
	QuorumHash thor.Bytes32
	Height     int
}

// CommitmentIndex reports, for a given block, the mined commitments of
// each quorum type known up to and including that block, newest first.
type CommitmentIndex interface {
	MinedCommitmentsUntil(block BlockIndex) map[Type][]Commitment
}

// MNListSource resolves the masternode list valid at a given block, the
// collaborator the spec calls mn_list_at(pIndex).
type MNListSource interface {
	MNListAt(index BlockIndex) (MNList, error)
}
