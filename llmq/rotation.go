// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import (
	"sync"

	"github.com/quorumchain/llmq-rotation/cache"
	"github.com/quorumchain/llmq-rotation/log"
	"github.com/quorumchain/llmq-rotation/thor"
)

var rotationLogger = log.WithContext("pkg", "llmq", "component", "rotation")

type cycleKey struct {
	cycleBaseHash thor.Bytes32
	quorumIndex   int
}

// Manager is the rotation orchestrator of §4.6: for a requested height
// and quorum type it composes four quarters into every active quorum
// of the cycle, caching per block hash and per (cycleBaseHash,
// quorumIndex). All dependencies are injected at construction; there is
// no hidden global state (§9).
type Manager struct {
	registry    *Registry
	blocks      BlockSource
	mnLists     MNListSource
	commitments CommitmentIndex
	store       *SnapshotStore

	mu          sync.Mutex
	byBlockHash map[Type]*cache.LRU
	byCycle     map[Type]*cache.LRU

	memberStats cache.Stats
}

// NewManager wires a Manager to its collaborators, mirroring the
// process-wide quorumSnapshotManager singleton's init() contract (§9).
func NewManager(registry *Registry, blocks BlockSource, mnLists MNListSource, commitments CommitmentIndex, store *SnapshotStore) *Manager {
	return &Manager{
		registry:    registry,
		blocks:      blocks,
		mnLists:     mnLists,
		commitments: commitments,
		store:       store,
		byBlockHash: make(map[Type]*cache.LRU),
		byCycle:     make(map[Type]*cache.LRU),
	}
}

// Stats reports cumulative member-cache hit/miss counts across all
// quorum types served by this Manager.
func (m *Manager) Stats() (changed bool, hit, miss int64) {
	return m.memberStats.Stats()
}

func (m *Manager) cachesFor(t Type, params Params) (*cache.LRU, *cache.LRU) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := params.SigningActiveQuorumCount + 1
	if size < 1 {
		size = 1
	}

	bb, ok := m.byBlockHash[t]
	if !ok {
		bb, _ = cache.NewLRU(size)
		m.byBlockHash[t] = bb
	}
	cy, ok := m.byCycle[t]
	if !ok {
		cy, _ = cache.NewLRU(size)
		m.byCycle[t] = cy
	}
	return bb, cy
}

// Members returns the quorum of type t anchored at h, computing and
// caching the owning cycle's quarters if necessary. When rotation is not
// active for t at h — pre-activation, or a type consensus excludes from
// rotation — it falls back to a single CalculateQuorum call over the
// full MN list at h (§4.6 final paragraph).
func (m *Manager) Members(t Type, h BlockIndex) ([]MN, error) {
	params, err := m.registry.Get(t)
	if err != nil {
		return nil, err
	}

	if !m.registry.RotationActive(params, h.Height()) {
		mnList, err := m.mnLists.MNListAt(h)
		if err != nil {
			return nil, err
		}
		return CalculateQuorum(mnList, params.Size, Modifier(t, h.BlockHash())), nil
	}

	bb, cy := m.cachesFor(t, params)

	if v, ok := bb.Get(h.BlockHash()); ok {
		m.memberStats.Hit()
		return v.([]MN), nil
	}
	m.memberStats.Miss()

	height := h.Height()
	c := params.DKGInterval
	cycleBaseHeight := height - (height % c)
	quorumIndex := height - cycleBaseHeight

	cycleBase := h
	if cycleBaseHeight != height {
		ancestor, ok := h.Ancestor(cycleBaseHeight)
		if !ok {
			return nil, newErr(NotFound, "llmq: cycle base block not on active chain")
		}
		cycleBase = ancestor
	}

	ck := cycleKey{cycleBase.BlockHash(), quorumIndex}
	if v, ok := cy.Get(ck); ok {
		members := v.([]MN)
		bb.Add(h.BlockHash(), members)
		return members, nil
	}

	rotationLogger.Debug("computing cycle", "type", t, "cycleBaseHeight", cycleBaseHeight, "cycleBaseHash", cycleBase.BlockHash())
	cycle, err := m.computeCycle(t, params, cycleBase)
	if err != nil {
		rotationLogger.Warn("cycle computation failed", "type", t, "cycleBaseHash", cycleBase.BlockHash(), "err", err)
		return nil, err
	}
	for i, members := range cycle {
		cy.Add(cycleKey{cycleBase.BlockHash(), i}, members)
	}
	bb.Add(h.BlockHash(), cycle[quorumIndex])
	return cycle[quorumIndex], nil
}

// computeCycle builds every active quorum's members for the cycle
// seeded at cycleBase (§4.6 step 4): it replays the three prior
// quarters, builds the fresh quarter, persists the new snapshot, and
// concatenates H-3C ‖ H-2C ‖ H-C ‖ fresh per quorum index.
func (m *Manager) computeCycle(t Type, params Params, cycleBase BlockIndex) ([][]MN, error) {
	nQuorums := params.SigningActiveQuorumCount
	c := params.DKGInterval

	hMinusC, err := m.replayAt(t, params, cycleBase, c)
	if err != nil {
		return nil, err
	}
	hMinus2C, err := m.replayAt(t, params, cycleBase, 2*c)
	if err != nil {
		return nil, err
	}
	hMinus3C, err := m.replayAt(t, params, cycleBase, 3*c)
	if err != nil {
		return nil, err
	}

	mnList, err := m.mnLists.MNListAt(cycleBase)
	if err != nil {
		return nil, err
	}

	prev := PrevQuarters{HMinusC: hMinusC, HMinus2C: hMinus2C, HMinus3C: hMinus3C}
	fresh, snap, err := BuildNewQuarter(params, cycleBase.BlockHash(), mnList, prev)
	if err != nil {
		return nil, err
	}
	if err := m.store.Put(t, cycleBase.BlockHash(), snap); err != nil {
		return nil, err
	}

	result := make([][]MN, nQuorums)
	for i := 0; i < nQuorums; i++ {
		quorum := make([]MN, 0, params.Size)
		quorum = append(quorum, hMinus3C[i]...)
		quorum = append(quorum, hMinus2C[i]...)
		quorum = append(quorum, hMinusC[i]...)
		quorum = append(quorum, fresh[i]...)
		result[i] = quorum
	}
	return result, nil
}

// replayAt resolves the anchor `back` blocks before cycleBase and
// replays its stored quarters. A missing ancestor (bootstrap, not
// enough chain history) or a missing snapshot both yield empty
// quarters rather than an error, per §4.6 step 4's bootstrap note.
func (m *Manager) replayAt(t Type, params Params, cycleBase BlockIndex, back int) (Quarters, error) {
	empty := make(Quarters, params.SigningActiveQuorumCount)

	height := cycleBase.Height() - back
	if height < 0 {
		return empty, nil
	}
	anchor, ok := cycleBase.Ancestor(height)
	if !ok {
		return empty, nil
	}

	snap, err := m.store.Get(t, anchor.BlockHash())
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return empty, nil
	}

	mnList, err := m.mnLists.MNListAt(anchor)
	if err != nil {
		return nil, err
	}
	return SelectQuarters(params, anchor.BlockHash(), mnList, snap)
}
