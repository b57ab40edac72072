// Copyright (c) 2025 The LLMQ Rotation developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package llmq

import "encoding/binary"

// SkipMode identifies how mnSkipList shapes the candidate walk in
// §4.4/§4.5.
type SkipMode int32

const (
	// NoSkipping means usedMns is empty; every candidate is eligible.
	NoSkipping SkipMode = 0
	// SkippingEntries records the indices of used (skipped) candidates.
	SkippingEntries SkipMode = 1
	// NoSkippingEntries records the indices of unused (retained)
	// candidates; symmetric to SkippingEntries.
	NoSkippingEntries SkipMode = 2
	// AllSkipped marks the degenerate case: the candidate walk could
	// not fill every fresh quarter, so none were produced this cycle.
	AllSkipped SkipMode = 3
)

func (m SkipMode) valid() bool {
	return m >= NoSkipping && m <= AllSkipped
}

// CycleQuorumSnapshot is the consensus-critical, persisted record of
// which masternodes were used at a cycle base block and how the skip
// list shaped the walk over candidates (§3). Snapshot content is
// byte-identical across nodes for identical inputs; its encoding must
// never change without a new key prefix (§4.1).
type CycleQuorumSnapshot struct {
	// ActiveQuorumMembers has length equal to the MN count at the
	// snapshot's block; bit i is set iff MN at position i was used by
	// any of the three previous quarters being rotated.
	ActiveQuorumMembers []bool
	MNSkipListMode      SkipMode
	// MNSkipList holds differentially-encoded indices per §4.4 step 6:
	// the first entry is an absolute index, subsequent entries are
	// first-index minus the absolute index (hence non-positive).
	MNSkipList []int32
}

// Validate checks the invariants from §3: mode must be one of the four
// defined values, and mode 0 implies an empty skip list.
func (s *CycleQuorumSnapshot) Validate() error {
	if !s.MNSkipListMode.valid() {
		return newErr(Malformed, "llmq: snapshot mode %d out of range", s.MNSkipListMode)
	}
	if s.MNSkipListMode == NoSkipping && len(s.MNSkipList) != 0 {
		return newErr(Malformed, "llmq: mode 0 snapshot carries a non-empty skip list")
	}
	return nil
}

// AbsoluteSkipIndices decodes the differential encoding described in
// §4.4: list[0] is absolute, list[k] for k>0 is first-abs[k], so the
// absolute index is first-list[k].
func AbsoluteSkipIndices(list []int32) []int32 {
	if len(list) == 0 {
		return nil
	}
	first := list[0]
	out := make([]int32, len(list))
	out[0] = first
	for i := 1; i < len(list); i++ {
		out[i] = first - list[i]
	}
	return out
}

// DifferentialSkipIndices is the inverse of AbsoluteSkipIndices: it
// encodes a list of ascending absolute indices (the first of which
// anchors the rest) into the wire representation.
func DifferentialSkipIndices(abs []int32) []int32 {
	if len(abs) == 0 {
		return nil
	}
	first := abs[0]
	out := make([]int32, len(abs))
	out[0] = first
	for i := 1; i < len(abs); i++ {
		out[i] = first - abs[i]
	}
	return out
}

// Encode serializes s per §4.1: mode as 4-byte LE signed, then a
// compact-size length of ActiveQuorumMembers followed by its bitset
// packing (LSB-first, zero-padded to a whole byte), then a compact-size
// length of MNSkipList followed by each entry as 4-byte LE signed.
func (s *CycleQuorumSnapshot) Encode() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 4+9+len(s.ActiveQuorumMembers)/8+9+4*len(s.MNSkipList))

	var modeBuf [4]byte
	binary.LittleEndian.PutUint32(modeBuf[:], uint32(s.MNSkipListMode))
	buf = append(buf, modeBuf[:]...)

	buf = appendCompactSize(buf, uint64(len(s.ActiveQuorumMembers)))
	buf = append(buf, packBits(s.ActiveQuorumMembers)...)

	buf = appendCompactSize(buf, uint64(len(s.MNSkipList)))
	for _, v := range s.MNSkipList {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf = append(buf, b[:]...)
	}
	return buf, nil
}

// DecodeSnapshot inverts Encode, failing with Malformed on truncated
// input, an out-of-range compact-size, or a mode outside {0,1,2,3}.
func DecodeSnapshot(data []byte) (*CycleQuorumSnapshot, error) {
	r := &reader{buf: data}

	modeRaw, err := r.readU32LE()
	if err != nil {
		return nil, err
	}
	mode := SkipMode(int32(modeRaw))
	if !mode.valid() {
		return nil, newErr(Malformed, "llmq: decoded mode %d out of range", mode)
	}

	nBits, err := r.readCompactSize()
	if err != nil {
		return nil, err
	}
	bits, err := r.readBits(nBits)
	if err != nil {
		return nil, err
	}

	nSkip, err := r.readCompactSize()
	if err != nil {
		return nil, err
	}
	var skip []int32
	if nSkip > 0 {
		skip = make([]int32, nSkip)
	}
	for i := range skip {
		v, err := r.readU32LE()
		if err != nil {
			return nil, err
		}
		skip[i] = int32(v)
	}

	if !r.exhausted() {
		return nil, newErr(Malformed, "llmq: trailing bytes after snapshot")
	}

	snap := &CycleQuorumSnapshot{
		ActiveQuorumMembers: bits,
		MNSkipListMode:      mode,
		MNSkipList:          skip,
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// packBits packs bits LSB-first into bytes, zero-padded to a whole byte.
func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func unpackBits(data []byte, n uint64) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = data[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}

// appendCompactSize appends v using Bitcoin-style CompactSize encoding:
// values below 0xfd take one byte; the 0xfd/0xfe/0xff prefixes select a
// 2/4/8-byte little-endian payload for larger values.
func appendCompactSize(buf []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(buf, byte(v))
	case v <= 0xffff:
		b := [3]byte{0xfd}
		binary.LittleEndian.PutUint16(b[1:], uint16(v))
		return append(buf, b[:]...)
	case v <= 0xffffffff:
		b := [5]byte{0xfe}
		binary.LittleEndian.PutUint32(b[1:], uint32(v))
		return append(buf, b[:]...)
	default:
		b := [9]byte{0xff}
		binary.LittleEndian.PutUint64(b[1:], v)
		return append(buf, b[:]...)
	}
}

const maxSnapshotLen = 64 << 20 // generous upper bound against malicious compact-size lengths

type reader struct {
	buf []byte
	pos int
}

func (r *reader) exhausted() bool { return r.pos >= len(r.buf) }

func (r *reader) readU32LE() (uint32, error) {
	if len(r.buf)-r.pos < 4 {
		return 0, newErr(Malformed, "llmq: truncated snapshot: want 4 bytes")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) readCompactSize() (uint64, error) {
	if r.pos >= len(r.buf) {
		return 0, newErr(Malformed, "llmq: truncated snapshot: want compact-size prefix")
	}
	first := r.buf[r.pos]
	r.pos++
	var v uint64
	switch {
	case first < 0xfd:
		v = uint64(first)
	case first == 0xfd:
		if len(r.buf)-r.pos < 2 {
			return 0, newErr(Malformed, "llmq: truncated compact-size (u16)")
		}
		v = uint64(binary.LittleEndian.Uint16(r.buf[r.pos:]))
		r.pos += 2
	case first == 0xfe:
		if len(r.buf)-r.pos < 4 {
			return 0, newErr(Malformed, "llmq: truncated compact-size (u32)")
		}
		v = uint64(binary.LittleEndian.Uint32(r.buf[r.pos:]))
		r.pos += 4
	default:
		if len(r.buf)-r.pos < 8 {
			return 0, newErr(Malformed, "llmq: truncated compact-size (u64)")
		}
		v = binary.LittleEndian.Uint64(r.buf[r.pos:])
		r.pos += 8
	}
	if v > maxSnapshotLen {
		return 0, newErr(Malformed, "llmq: compact-size %d exceeds sane snapshot bound", v)
	}
	return v, nil
}

func (r *reader) readBits(n uint64) ([]bool, error) {
	nBytes := (n + 7) / 8
	if uint64(len(r.buf)-r.pos) < nBytes {
		return nil, newErr(Malformed, "llmq: truncated active-quorum-members bitset")
	}
	bits := unpackBits(r.buf[r.pos:r.pos+int(nBytes)], n)
	r.pos += int(nBytes)
	return bits, nil
}
