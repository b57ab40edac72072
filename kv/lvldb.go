// Copyright (c) 2019 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var writeOpt = &opt.WriteOptions{}
var readOpt = &opt.ReadOptions{}

// LevelDB is a GetPutCloser backed by goleveldb, used as the persistent
// store behind the snapshot manager (see §4.2 of the rotation spec).
type LevelDB struct {
	db *leveldb.DB
}

var _ GetPutCloser = (*LevelDB)(nil)

func open(stg storage.Storage, cacheSizeMB, openFilesCacheCapacity int) (*LevelDB, error) {
	if cacheSizeMB < 16 {
		cacheSizeMB = 16
	}
	if openFilesCacheCapacity < 16 {
		openFilesCacheCapacity = 16
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: openFilesCacheCapacity,
		BlockCacheCapacity:     cacheSizeMB / 2 * opt.MiB,
		WriteBuffer:            cacheSizeMB / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db: db}, nil
}

// OpenMem opens an in-memory LevelDB instance, handy for tests and
// short-lived light clients.
func OpenMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), 16, 0)
}

// Open opens or creates a persistent LevelDB instance at path.
func Open(path string, cacheSizeMB, openFilesCacheCapacity int) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open level db file")
	}
	return open(stg, cacheSizeMB, openFilesCacheCapacity)
}

func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, readOpt)
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, readOpt)
}

func (ldb *LevelDB) IsNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, writeOpt)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, writeOpt)
}

func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

func (ldb *LevelDB) NewBatch() Batch {
	return &levelDBBatch{ldb.db, new(leveldb.Batch)}
}

func (ldb *LevelDB) NewIterator(r Range) Iterator {
	return ldb.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, readOpt)
}

type levelDBBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelDBBatch) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *levelDBBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *levelDBBatch) Len() int {
	return b.batch.Len()
}

func (b *levelDBBatch) Write() error {
	return b.db.Write(b.batch, writeOpt)
}
