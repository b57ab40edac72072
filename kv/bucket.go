// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket provides a logical namespace over a shared kv store, by prefixing
// every key with the bucket name.
type Bucket string

// NewGetPutter creates a namespaced GetPutter view of src.
func (b Bucket) NewGetPutter(src GetPutter) GetPutter {
	return &bucketed{b, src}
}

type bucketed struct {
	b   Bucket
	src GetPutter
}

func (bk *bucketed) key(key []byte) []byte {
	buf := bufPool.Get().(*buf)
	defer bufPool.Put(buf)
	buf.k = append(append(buf.k[:0], bk.b...), key...)
	// copy out, since the pooled buffer is reused immediately after return.
	out := make([]byte, len(buf.k))
	copy(out, buf.k)
	return out
}

func (bk *bucketed) Get(key []byte) ([]byte, error) { return bk.src.Get(bk.key(key)) }
func (bk *bucketed) Has(key []byte) (bool, error)   { return bk.src.Has(bk.key(key)) }
func (bk *bucketed) IsNotFound(err error) bool      { return bk.src.IsNotFound(err) }

func (bk *bucketed) Put(key, value []byte) error { return bk.src.Put(bk.key(key), value) }
func (bk *bucketed) Delete(key []byte) error     { return bk.src.Delete(bk.key(key)) }

func (bk *bucketed) NewBatch() Batch {
	return &bucketedBatch{bk.b, bk.src.NewBatch()}
}

func (bk *bucketed) NewIterator(r Range) Iterator {
	r.Start = bk.key(r.Start)
	if len(r.Limit) == 0 {
		r.Limit = util.BytesPrefix([]byte(bk.b)).Limit
	} else {
		r.Limit = bk.key(r.Limit)
	}
	return &bucketedIter{bk.src.NewIterator(r), len(bk.b)}
}

type bucketedBatch struct {
	b     Bucket
	batch Batch
}

func (bb *bucketedBatch) key(key []byte) []byte {
	return append(append([]byte(nil), bb.b...), key...)
}

func (bb *bucketedBatch) Put(key, value []byte) error { return bb.batch.Put(bb.key(key), value) }
func (bb *bucketedBatch) Delete(key []byte) error     { return bb.batch.Delete(bb.key(key)) }
func (bb *bucketedBatch) Len() int                    { return bb.batch.Len() }
func (bb *bucketedBatch) Write() error                { return bb.batch.Write() }

type bucketedIter struct {
	Iterator
	prefixLen int
}

// Key strips the bucket prefix before returning.
func (bi *bucketedIter) Key() []byte {
	return bi.Iterator.Key()[bi.prefixLen:]
}

type buf struct {
	k []byte
}

var bufPool = sync.Pool{
	New: func() interface{} {
		return &buf{}
	},
}
