// Package dmr carries the inter-transport currency type for a decoded DMR
// call: ParsedPacket, plus the FIFO queues (packet and raw) that the
// Homebrew and MMDVM transports and the bridge router pass packets
// through. Grounded on the reference dmr_parsed_packet and STAILQ-based
// dmr_packetq/dmr_rawq.
package dmr

import (
	"sync"

	"github.com/dbehnke/dmrcore/pkg/burst"
)

// ParsedPacket is the fully-decoded, transport-agnostic representation of
// one DMR burst: call routing metadata plus the raw 33-byte burst it was
// derived from, so a transport or bridge stage can re-run FEC after a
// header rewrite without re-deriving the data type from scratch.
type ParsedPacket struct {
	Timeslot     burst.Timeslot
	CallType     burst.CallType
	SrcID        uint32
	DstID        uint32
	RepeaterID   uint32
	Sequence     uint8
	FLCO         burst.FLCO
	DataType     burst.DataType
	ColorCode    uint8
	StreamID     uint32
	VoiceFrame   uint8 // 0=A..5=F for DMR_DATA_TYPE_VOICE bursts
	Confirmed    bool
	CRCMask      uint8
	Burst        *burst.Burst
}

// PacketQueue is a thread-safe FIFO of ParsedPacket, the Go analogue of the
// reference's STAILQ-backed dmr_packetq.
type PacketQueue struct {
	mu    sync.Mutex
	items []*ParsedPacket
}

// NewPacketQueue returns an empty packet queue.
func NewPacketQueue() *PacketQueue {
	return &PacketQueue{}
}

// Add appends a parsed packet to the tail of the queue.
func (q *PacketQueue) Add(p *ParsedPacket) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, p)
}

// Pop removes and returns the packet at the head of the queue, or nil if
// empty.
func (q *PacketQueue) Pop() *ParsedPacket {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	p := q.items[0]
	q.items = q.items[1:]
	return p
}

// Len reports the number of packets currently queued.
func (q *PacketQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ForEach calls fn for every queued packet in FIFO order without removing
// them, stopping early if fn returns false.
func (q *PacketQueue) ForEach(fn func(*ParsedPacket) bool) {
	q.mu.Lock()
	items := append([]*ParsedPacket(nil), q.items...)
	q.mu.Unlock()
	for _, p := range items {
		if !fn(p) {
			return
		}
	}
}

// RawQueue is a thread-safe FIFO of raw, not-yet-parsed burst bytes,
// analogous to a dmr_rawq feeding the parser stage of a transport. It may
// be given a capacity so a stalled consumer applies back-pressure to its
// producer instead of growing without bound.
type RawQueue struct {
	mu    sync.Mutex
	items [][]byte
	cap   int
}

// NewRawQueue returns an empty, uncapped raw-bytes queue.
func NewRawQueue() *RawQueue { return &RawQueue{} }

// NewRawQueueCapped returns an empty raw-bytes queue that rejects Add once
// it holds n entries. A non-positive n is treated as uncapped.
func NewRawQueueCapped(n int) *RawQueue { return &RawQueue{cap: n} }

// Add appends a copy of raw to the tail of the queue, reporting false
// without modifying the queue if it is already at capacity.
func (q *RawQueue) Add(raw []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cap > 0 && len(q.items) >= q.cap {
		return false
	}
	cp := append([]byte(nil), raw...)
	q.items = append(q.items, cp)
	return true
}

// Pop removes and returns the bytes at the head of the queue, or nil if
// empty.
func (q *RawQueue) Pop() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	b := q.items[0]
	q.items = q.items[1:]
	return b
}

// Len reports the number of entries currently queued.
func (q *RawQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
