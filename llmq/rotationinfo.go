// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import (
	"sort"

	"github.com/quorumchain/llmq-rotation/thor"
)

const maxBaseBlockHashes = 4

// RotationRequest is the light-client catch-up request of §4.7 and §6's
// wire format.
type RotationRequest struct {
	BaseBlockHashesNb int
	BaseBlockHashes   []thor.Bytes32
	BlockRequestHash  thor.Bytes32
}

// RotationInfo is the assembled response of §4.7: snapshots at H-C,
// H-2C, H-3C plus the simplified MN-list diffs that let a light client
// catch up with minimal bytes on the wire.
type RotationInfo struct {
	CreationHeight int32

	SnapshotAtHMinusC  *CycleQuorumSnapshot
	SnapshotAtHMinus2C *CycleQuorumSnapshot
	SnapshotAtHMinus3C *CycleQuorumSnapshot

	MNListDiffTip        SimplifiedMNListDiff
	MNListDiffAtHMinusC  SimplifiedMNListDiff
	MNListDiffAtHMinus2C SimplifiedMNListDiff
	MNListDiffAtHMinus3C SimplifiedMNListDiff
}

// BuildRotationInfo implements §4.7: it validates the request,
// resolves H, H-C, H-2C, H-3C from the rotating type's four most
// recent mined commitments, and assembles the response.
func (m *Manager) BuildRotationInfo(t Type, req RotationRequest) (*RotationInfo, error) {
	if req.BaseBlockHashesNb != len(req.BaseBlockHashes) || req.BaseBlockHashesNb > maxBaseBlockHashes {
		return nil, newErr(BadRequest, "llmq: baseBlockHashesNb inconsistent with provided hashes or exceeds 4")
	}

	if _, err := m.registry.Get(t); err != nil {
		return nil, err
	}

	baseIndexes, err := m.resolveBaseBlocks(req)
	if err != nil {
		return nil, err
	}

	pH, ok := m.blocks.Lookup(req.BlockRequestHash)
	if !ok || !m.blocks.Contains(pH) {
		return nil, newErr(NotFound, "llmq: blockRequestHash not on active chain")
	}

	commitments := m.commitments.MinedCommitmentsUntil(pH)[t]
	if len(commitments) < 4 {
		return nil, newErr(NoQuorum, "llmq: fewer than four mined commitments precede the requested block")
	}
	// newest first: [H, H-C, H-2C, H-3C]
	anchorH := commitments[0]
	anchorHMinusC := commitments[1]
	anchorHMinus2C := commitments[2]
	anchorHMinus3C := commitments[3]

	tip := m.blocks.Tip()
	mnListAtTip, err := m.mnLists.MNListAt(tip)
	if err != nil {
		return nil, err
	}

	var highestBase thor.Bytes32
	if len(baseIndexes) > 0 {
		highestBase = baseIndexes[len(baseIndexes)-1].BlockHash()
	}
	diffTip, err := mnListAtTip.SimplifiedDiff(highestBase, tip.BlockHash())
	if err != nil {
		return nil, err
	}

	info := &RotationInfo{
		// Height of commitment anchor H, not the request block pH, matching
		// llmq/snapshot.cpp's response.creationHeight = hBlockIndex->nHeight.
		CreationHeight: int32(anchorH.Height),
		MNListDiffTip:  diffTip,
	}

	for _, anchor := range []struct {
		commitment Commitment
		snapOut    **CycleQuorumSnapshot
		diffOut    *SimplifiedMNListDiff
	}{
		{anchorHMinusC, &info.SnapshotAtHMinusC, &info.MNListDiffAtHMinusC},
		{anchorHMinus2C, &info.SnapshotAtHMinus2C, &info.MNListDiffAtHMinus2C},
		{anchorHMinus3C, &info.SnapshotAtHMinus3C, &info.MNListDiffAtHMinus3C},
	} {
		pX, ok := m.blocks.Lookup(anchor.commitment.QuorumHash)
		if !ok {
			return nil, newErr(NotFound, "llmq: anchor block for mined commitment not on active chain")
		}

		baseForX := lastBaseBlockHash(baseIndexes, pX.Height())

		mnListAtX, err := m.mnLists.MNListAt(pX)
		if err != nil {
			return nil, err
		}
		diff, err := mnListAtX.SimplifiedDiff(baseForX, pX.BlockHash())
		if err != nil {
			return nil, err
		}
		*anchor.diffOut = diff

		snap, err := m.store.Get(t, pX.BlockHash())
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return nil, newErr(NoSnapshot, "llmq: snapshot missing for required prior anchor block")
		}
		*anchor.snapOut = snap
	}

	return info, nil
}

// resolveBaseBlocks validates and sorts the request's base block
// hashes by height ascending, substituting genesis when none are
// given (§4.7 step 1).
func (m *Manager) resolveBaseBlocks(req RotationRequest) ([]BlockIndex, error) {
	if req.BaseBlockHashesNb == 0 {
		return []BlockIndex{m.blocks.Genesis()}, nil
	}

	out := make([]BlockIndex, 0, len(req.BaseBlockHashes))
	for _, h := range req.BaseBlockHashes {
		idx, ok := m.blocks.Lookup(h)
		if !ok || !m.blocks.Contains(idx) {
			return nil, newErr(NotFound, "llmq: base block hash not on active chain")
		}
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height() < out[j].Height() })
	return out, nil
}

// lastBaseBlockHash returns the hash of the greatest sorted base block
// whose height is at most height, or the zero hash if none qualify
// (§4.7 step 5, GetLastBaseBlockHash).
func lastBaseBlockHash(sortedBases []BlockIndex, height int) thor.Bytes32 {
	var best thor.Bytes32
	for _, b := range sortedBases {
		if b.Height() <= height {
			best = b.BlockHash()
		} else {
			break
		}
	}
	return best
}
