// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import "github.com/quorumchain/llmq-rotation/thor"

// Quarters holds one quarter (quarterSize members, or empty under mode
// 3) for each of the nQuorums quorums active in a cycle, indexed by
// quorum index i.
type Quarters [][]MN

// PrevQuarters carries the three previous cycles' quarters that feed
// into building or replaying the current cycle's selection (§4.4/§4.5).
type PrevQuarters struct {
	HMinusC  Quarters
	HMinus2C Quarters
	HMinus3C Quarters
}

func (p PrevQuarters) usedSet() map[ProTxHash]bool {
	used := make(map[ProTxHash]bool)
	for _, qs := range []Quarters{p.HMinusC, p.HMinus2C, p.HMinus3C} {
		for _, quarter := range qs {
			for _, mn := range quarter {
				used[mn.ProTxHash] = true
			}
		}
	}
	return used
}

// partitionByUsage splits allList (in its natural order) into the
// unused and used sub-lists, preserving relative order within each
// (§4.4 step 3 / §4.5 step 2).
func partitionByUsage(allList []MN, isUsed func(MN) bool) (unused, used []MN) {
	for _, mn := range allList {
		if isUsed(mn) {
			used = append(used, mn)
		} else {
			unused = append(unused, mn)
		}
	}
	return
}

func naturalList(mnList MNList) []MN {
	out := make([]MN, 0, mnList.Count())
	mnList.ForEach(true, func(_ int, mn MN) {
		out = append(out, mn)
	})
	return out
}

// selectSkipMode implements §4.4 step 6's mode decision.
func selectSkipMode(usedCount, candidateCount int) SkipMode {
	if usedCount == 0 {
		return NoSkipping
	}
	if usedCount < candidateCount/2 {
		return SkippingEntries
	}
	return NoSkippingEntries
}

// BuildNewQuarter is the new-quarter builder of §4.4: given the three
// previous cycles' quarters and the MN list at the anchor block, it
// computes the fresh quarters for every active quorum this cycle and
// the snapshot that makes the selection reproducible.
func BuildNewQuarter(params Params, blockHash thor.Bytes32, allMns MNList, prev PrevQuarters) (Quarters, *CycleQuorumSnapshot, error) {
	nQuorums := params.SigningActiveQuorumCount
	quarterSize := params.QuarterSize()

	modifier := Modifier(params.Type, blockHash)
	natural := naturalList(allMns)
	used := prev.usedSet()

	unusedList, usedList := partitionByUsage(natural, func(mn MN) bool { return used[mn.ProTxHash] })
	orderedUnused := orderBy(unusedList, modifier)
	orderedUsed := orderBy(usedList, modifier)
	candidateCount := len(orderedUnused) + len(orderedUsed)

	mode := selectSkipMode(len(usedList), candidateCount)

	nNeeded := nQuorums * quarterSize
	if len(orderedUnused) < nNeeded {
		mode = AllSkipped
	}

	activeQuorumMembers := make([]bool, len(natural))
	for i, mn := range natural {
		activeQuorumMembers[i] = used[mn.ProTxHash]
	}

	if mode == AllSkipped {
		snap := &CycleQuorumSnapshot{
			ActiveQuorumMembers: activeQuorumMembers,
			MNSkipListMode:      AllSkipped,
			MNSkipList:          nil,
		}
		return make(Quarters, nQuorums), snap, nil
	}

	fresh := make(Quarters, nQuorums)
	for i := 0; i < nQuorums; i++ {
		fresh[i] = append([]MN(nil), orderedUnused[i*quarterSize:(i+1)*quarterSize]...)
	}

	var skipPositions []int32
	switch mode {
	case SkippingEntries:
		// The used block occupies the contiguous tail of candidates;
		// those are the positions recorded as skipped.
		for i := len(orderedUnused); i < candidateCount; i++ {
			skipPositions = append(skipPositions, int32(i))
		}
	case NoSkippingEntries:
		// Used is the majority; it is cheaper to record the retained
		// (unused) positions instead, which occupy the contiguous front.
		for i := 0; i < len(orderedUnused); i++ {
			skipPositions = append(skipPositions, int32(i))
		}
	}

	snap := &CycleQuorumSnapshot{
		ActiveQuorumMembers: activeQuorumMembers,
		MNSkipListMode:      mode,
		MNSkipList:          DifferentialSkipIndices(skipPositions),
	}
	return fresh, snap, nil
}

// SelectQuarters is the quarter selector of §4.5: given a previously
// persisted snapshot and the MN list at that same anchor block, it
// reproduces the quarters that BuildNewQuarter selected when the
// snapshot was written.
func SelectQuarters(params Params, blockHash thor.Bytes32, allMns MNList, snap *CycleQuorumSnapshot) (Quarters, error) {
	nQuorums := params.SigningActiveQuorumCount
	quarterSize := params.QuarterSize()

	if snap.MNSkipListMode == AllSkipped {
		return make(Quarters, nQuorums), nil
	}

	natural := naturalList(allMns)
	if len(natural) != len(snap.ActiveQuorumMembers) {
		return nil, newErr(Malformed, "llmq: snapshot active-quorum-members length does not match MN list")
	}

	modifier := Modifier(params.Type, blockHash)

	// Partition by position, since the snapshot's bit vector is indexed
	// by position in the natural MN order, not by identity.
	var unused, used []MN
	for i, mn := range natural {
		if snap.ActiveQuorumMembers[i] {
			used = append(used, mn)
		} else {
			unused = append(unused, mn)
		}
	}

	orderedUnused := orderBy(unused, modifier)
	orderedUsed := orderBy(used, modifier)
	candidates := append(append([]MN(nil), orderedUnused...), orderedUsed...)

	switch snap.MNSkipListMode {
	case NoSkipping:
		// nothing to partition; candidates is already unused-only-ish.
	case SkippingEntries:
		abs := AbsoluteSkipIndices(snap.MNSkipList)
		candidates = stablePartition(candidates, abs, false)
	case NoSkippingEntries:
		abs := AbsoluteSkipIndices(snap.MNSkipList)
		candidates = stablePartition(candidates, abs, true)
	default:
		return nil, newErr(Malformed, "llmq: unexpected skip mode during replay")
	}

	nNeeded := nQuorums * quarterSize
	if len(candidates) < nNeeded {
		return nil, newErr(Malformed, "llmq: insufficient candidates to replay snapshot")
	}

	quarters := make(Quarters, nQuorums)
	for i := 0; i < nQuorums; i++ {
		quarters[i] = append([]MN(nil), candidates[i*quarterSize:(i+1)*quarterSize]...)
	}
	return quarters, nil
}

// stablePartition reorders candidates so that the entries at the
// positions named by selected form one contiguous block and the rest
// form the other, with relative order preserved within each block
// (the load-bearing property noted in §9). If selectedFirst is true
// the selected block comes first; otherwise it comes last.
func stablePartition(candidates []MN, selected []int32, selectedFirst bool) []MN {
	isSelected := make(map[int]bool, len(selected))
	for _, idx := range selected {
		isSelected[int(idx)] = true
	}

	var a, b []MN
	for i, mn := range candidates {
		if isSelected[i] {
			a = append(a, mn)
		} else {
			b = append(b, mn)
		}
	}
	if selectedFirst {
		return append(a, b...)
	}
	return append(b, a...)
}
