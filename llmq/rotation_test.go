// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumchain/llmq-rotation/kv"
	"github.com/quorumchain/llmq-rotation/thor"
)

type fakeChain struct {
	n int
}

func (c *fakeChain) hashOf(h int) thor.Bytes32 {
	return thor.BytesToBytes32([]byte{0xCC, byte(h >> 8), byte(h)})
}

func (c *fakeChain) at(h int) BlockIndex { return &fakeBlock{height: h, chain: c} }

func (c *fakeChain) Tip() BlockIndex     { return c.at(c.n - 1) }
func (c *fakeChain) Genesis() BlockIndex { return c.at(0) }

func (c *fakeChain) Lookup(hash thor.Bytes32) (BlockIndex, bool) {
	for h := 0; h < c.n; h++ {
		if c.hashOf(h) == hash {
			return c.at(h), true
		}
	}
	return nil, false
}

func (c *fakeChain) Contains(index BlockIndex) bool {
	return index != nil && index.Height() >= 0 && index.Height() < c.n
}

type fakeBlock struct {
	height int
	chain  *fakeChain
}

func (b *fakeBlock) Height() int { return b.height }

func (b *fakeBlock) Prev() (BlockIndex, bool) {
	if b.height == 0 {
		return nil, false
	}
	return b.chain.at(b.height - 1), true
}

func (b *fakeBlock) Ancestor(h int) (BlockIndex, bool) {
	if h < 0 || h > b.height {
		return nil, false
	}
	return b.chain.at(h), true
}

func (b *fakeBlock) BlockHash() thor.Bytes32 { return b.chain.hashOf(b.height) }

type fixedMNListSource struct {
	mns Slice
}

func (f fixedMNListSource) MNListAt(BlockIndex) (MNList, error) { return f.mns, nil }

type fakeCommitments struct {
	byType map[Type][]Commitment
}

func (f fakeCommitments) MinedCommitmentsUntil(BlockIndex) map[Type][]Commitment {
	return f.byType
}

func TestManager_NonRotatedFallback(t *testing.T) {
	mns := genMNs(16)
	chain := &fakeChain{n: 5}
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	params := Params{Type: 1, Name: "fallback", Size: 8, Rotated: false}
	registry := NewRegistry(params)
	m := NewManager(registry, chain, fixedMNListSource{mns}, fakeCommitments{}, NewSnapshotStore(db))

	members1, err := m.Members(1, chain.at(3))
	require.NoError(t, err)
	members2, err := m.Members(1, chain.at(3))
	require.NoError(t, err)

	assert.Len(t, members1, params.Size)
	assert.Equal(t, members1, members2)
}

func TestManager_RotationBeforeActivationHeightFallsBack(t *testing.T) {
	mns := genMNs(16)
	chain := &fakeChain{n: 20}
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	params := Params{Type: 1, Name: "rotated", Size: 8, Rotated: true, DKGInterval: 4, SigningActiveQuorumCount: 1}
	registry := NewRegistry(params)
	registry.RotationActivationHeight = 100 // far in the future
	m := NewManager(registry, chain, fixedMNListSource{mns}, fakeCommitments{}, NewSnapshotStore(db))

	members, err := m.Members(1, chain.at(10))
	require.NoError(t, err)
	assert.Len(t, members, params.Size)
}

func TestManager_InstantSendTypeNeverRotates(t *testing.T) {
	mns := genMNs(16)
	chain := &fakeChain{n: 20}
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	params := Params{Type: 1, Name: "is", Size: 8, Rotated: true, DKGInterval: 4, SigningActiveQuorumCount: 1}
	registry := NewRegistry(params)
	registry.InstantSendType = 1

	m := NewManager(registry, chain, fixedMNListSource{mns}, fakeCommitments{}, NewSnapshotStore(db))
	members, err := m.Members(1, chain.at(8))
	require.NoError(t, err)
	assert.Len(t, members, params.Size)
}

func TestManager_BootstrapCycleAtGenesis(t *testing.T) {
	mns := genMNs(16)
	chain := &fakeChain{n: 5}
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	params := Params{Type: 1, Name: "rotated", Size: 8, Rotated: true, DKGInterval: 4, SigningActiveQuorumCount: 1}
	registry := NewRegistry(params)
	m := NewManager(registry, chain, fixedMNListSource{mns}, fakeCommitments{}, NewSnapshotStore(db))

	members, err := m.Members(1, chain.at(0))
	require.NoError(t, err)
	// No prior cycles exist yet, so only the fresh quarter is populated;
	// a full quorum needs three more cycles' worth of history.
	assert.Len(t, members, params.QuarterSize())
}

func TestManager_CachesMembersAcrossCallsInSameCycle(t *testing.T) {
	mns := genMNs(32)
	chain := &fakeChain{n: 10}
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	params := Params{Type: 1, Name: "rotated", Size: 8, Rotated: true, DKGInterval: 4, SigningActiveQuorumCount: 2}
	registry := NewRegistry(params)
	m := NewManager(registry, chain, fixedMNListSource{mns}, fakeCommitments{}, NewSnapshotStore(db))

	// Height 4 is a fresh cycle base (quorumIndex 0); height 5 is
	// quorumIndex 1 of the same cycle and must hit the per-cycle cache
	// rather than recomputing.
	m0, err := m.Members(1, chain.at(4))
	require.NoError(t, err)
	m1, err := m.Members(1, chain.at(5))
	require.NoError(t, err)
	assert.NotEqual(t, m0, m1)

	again, err := m.Members(1, chain.at(4))
	require.NoError(t, err)
	assert.Equal(t, m0, again)

	_, hit, miss := m.Stats()
	assert.GreaterOrEqual(t, hit, int64(1))
	assert.GreaterOrEqual(t, miss, int64(1))
}

func TestManager_UnknownTypeReturnsError(t *testing.T) {
	chain := &fakeChain{n: 5}
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	m := NewManager(NewRegistry(), chain, fixedMNListSource{genMNs(4)}, fakeCommitments{}, NewSnapshotStore(db))
	_, err = m.Members(9, chain.at(0))
	require.Error(t, err)
	assert.Equal(t, UnknownType, errKind(t, err))
}
