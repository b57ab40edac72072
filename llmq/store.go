// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import (
	"sync"

	"github.com/quorumchain/llmq-rotation/cache"
	"github.com/quorumchain/llmq-rotation/kv"
	"github.com/quorumchain/llmq-rotation/log"
	"github.com/quorumchain/llmq-rotation/thor"
)

var storeLogger = log.WithContext("pkg", "llmq", "component", "snapshot-store")

// snapshotDBPrefix is the KV key prefix for persisted snapshots (§6):
// key = (prefix, hash(quorumType ‖ blockHash)). There is no version
// byte; a format change requires a new prefix.
const snapshotDBPrefix = "llmq_S"

// snapshotHash derives the KV key suffix for a (type, blockHash) pair.
func snapshotHash(t Type, blockHash thor.Bytes32) thor.Bytes32 {
	return thor.Blake2b([]byte{byte(t)}, blockHash.Bytes())
}

type snapKey struct {
	t    Type
	hash thor.Bytes32
}

// SnapshotStore is the two-tier snapshot lookup and write path of §4.2:
// an in-memory map backed by a persistent KV store. A single mutex
// guards both the cache and the KV write, per §5; get may drop the
// mutex across I/O as long as it re-checks the cache afterward and
// tolerates a duplicate put (writes are idempotent since snapshot
// content is determined entirely by its inputs). The in-memory map is
// not bounded: entries are never evicted.
type SnapshotStore struct {
	db kv.GetPutter

	mu    sync.Mutex
	cache map[snapKey]*CycleQuorumSnapshot

	stats cache.Stats
}

// NewSnapshotStore wires a SnapshotStore to the given backing KV store,
// namespacing every key under the snapshot bucket (§6) so the same
// physical store can be shared with other key prefixes.
func NewSnapshotStore(db kv.GetPutter) *SnapshotStore {
	return &SnapshotStore{
		db:    kv.Bucket(snapshotDBPrefix).NewGetPutter(db),
		cache: make(map[snapKey]*CycleQuorumSnapshot),
	}
}

// Stats reports cumulative cache hits/misses seen by Get, matching the
// cache.Stats hit-rate tracking used elsewhere in this module.
func (s *SnapshotStore) Stats() (changed bool, hit, miss int64) {
	return s.stats.Stats()
}

// Get returns the snapshot for (quorumType, blockHash), or (nil, nil) if
// none has been recorded.
func (s *SnapshotStore) Get(t Type, blockHash thor.Bytes32) (*CycleQuorumSnapshot, error) {
	key := snapKey{t, blockHash}

	s.mu.Lock()
	if snap, ok := s.cache[key]; ok {
		s.mu.Unlock()
		s.stats.Hit()
		return snap, nil
	}
	s.mu.Unlock()

	dbKey := dbKeyFor(t, blockHash)
	raw, err := s.db.Get(dbKey)
	if err != nil {
		if s.db.IsNotFound(err) {
			s.stats.Miss()
			return nil, nil
		}
		return nil, err
	}

	snap, err := DecodeSnapshot(raw)
	if err != nil {
		storeLogger.Warn("snapshot decode failed", "type", t, "blockHash", blockHash, "err", err)
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.cache[key]; ok {
		// Someone else populated it while we were reading the DB.
		s.mu.Unlock()
		s.stats.Hit()
		return existing, nil
	}
	s.cache[key] = snap
	s.mu.Unlock()
	s.stats.Miss()
	return snap, nil
}

// Put persists snap for (quorumType, blockHash) and updates the cache.
// Concurrent duplicate puts for identical inputs are harmless because
// the snapshot content is content-determined (§5).
func (s *SnapshotStore) Put(t Type, blockHash thor.Bytes32, snap *CycleQuorumSnapshot) error {
	encoded, err := snap.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Put(dbKeyFor(t, blockHash), encoded); err != nil {
		return err
	}
	s.cache[snapKey{t, blockHash}] = snap
	storeLogger.Debug("snapshot written", "type", t, "blockHash", blockHash, "mode", snap.MNSkipListMode)
	return nil
}

// dbKeyFor derives the bucket-relative key for (type, blockHash); the
// "llmq_S" prefix itself is applied by the kv.Bucket wrapping s.db.
func dbKeyFor(t Type, blockHash thor.Bytes32) []byte {
	h := snapshotHash(t, blockHash)
	return h.Bytes()
}
