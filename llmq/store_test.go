// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumchain/llmq-rotation/kv"
)

func TestSnapshotStoreGetMissingReturnsNil(t *testing.T) {
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	store := NewSnapshotStore(db)
	snap, err := store.Get(1, testBlockHash(1))
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotStorePutThenGet(t *testing.T) {
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	store := NewSnapshotStore(db)
	want := &CycleQuorumSnapshot{
		ActiveQuorumMembers: []bool{true, false, false, true},
		MNSkipListMode:      NoSkippingEntries,
		MNSkipList:          []int32{0, -1, -2},
	}

	require.NoError(t, store.Put(1, testBlockHash(2), want))

	got, err := store.Get(1, testBlockHash(2))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSnapshotStoreGetPopulatesCacheAfterDBMiss(t *testing.T) {
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	writer := NewSnapshotStore(db)
	snap := &CycleQuorumSnapshot{ActiveQuorumMembers: []bool{}, MNSkipListMode: NoSkipping}
	require.NoError(t, writer.Put(1, testBlockHash(3), snap))

	// A second store instance backed by the same DB observes the write
	// purely through the persistent layer, not an in-process cache.
	reader := NewSnapshotStore(db)
	got, err := reader.Get(1, testBlockHash(3))
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	// And it is now cached in-process too: hit count increases on a
	// repeat Get without touching the DB again.
	_, err = reader.Get(1, testBlockHash(3))
	require.NoError(t, err)
	_, hit, miss := reader.Stats()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)
}

func TestSnapshotStoreKeysAreScopedByType(t *testing.T) {
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	store := NewSnapshotStore(db)
	h := testBlockHash(4)
	snapA := &CycleQuorumSnapshot{MNSkipListMode: NoSkipping}
	snapB := &CycleQuorumSnapshot{MNSkipListMode: AllSkipped}

	require.NoError(t, store.Put(1, h, snapA))
	require.NoError(t, store.Put(2, h, snapB))

	gotA, err := store.Get(1, h)
	require.NoError(t, err)
	gotB, err := store.Get(2, h)
	require.NoError(t, err)

	assert.Equal(t, snapA, gotA)
	assert.Equal(t, snapB, gotB)
}

func TestSnapshotStoreDuplicatePutIsIdempotent(t *testing.T) {
	db, err := kv.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	store := NewSnapshotStore(db)
	snap := &CycleQuorumSnapshot{ActiveQuorumMembers: []bool{true}, MNSkipListMode: NoSkippingEntries, MNSkipList: []int32{0}}

	require.NoError(t, store.Put(1, testBlockHash(5), snap))
	require.NoError(t, store.Put(1, testBlockHash(5), snap))

	got, err := store.Get(1, testBlockHash(5))
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestDBKeyForIsScopedByTypeAndHash(t *testing.T) {
	k1 := dbKeyFor(1, testBlockHash(1))
	k2 := dbKeyFor(2, testBlockHash(1))
	k3 := dbKeyFor(1, testBlockHash(2))

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.True(t, len(k1) > len(snapshotDBPrefix))
}
