package dmr

import (
	"sync"
	"testing"

	"github.com/dbehnke/dmrcore/pkg/burst"
)

func TestPacketQueueFIFO(t *testing.T) {
	q := NewPacketQueue()
	if q.Len() != 0 {
		t.Fatalf("new queue should be empty, got len %d", q.Len())
	}

	p1 := &ParsedPacket{SrcID: 1}
	p2 := &ParsedPacket{SrcID: 2}
	q.Add(p1)
	q.Add(p2)

	if q.Len() != 2 {
		t.Fatalf("expected len 2, got %d", q.Len())
	}

	if got := q.Pop(); got != p1 {
		t.Fatalf("expected p1 first out, got %+v", got)
	}
	if got := q.Pop(); got != p2 {
		t.Fatalf("expected p2 second out, got %+v", got)
	}
	if got := q.Pop(); got != nil {
		t.Fatalf("expected nil from an empty queue, got %+v", got)
	}
}

func TestPacketQueueForEachDoesNotDrain(t *testing.T) {
	q := NewPacketQueue()
	q.Add(&ParsedPacket{SrcID: 1})
	q.Add(&ParsedPacket{SrcID: 2})
	q.Add(&ParsedPacket{SrcID: 3})

	var seen []uint32
	q.ForEach(func(p *ParsedPacket) bool {
		seen = append(seen, p.SrcID)
		return true
	})
	if len(seen) != 3 {
		t.Fatalf("expected ForEach to visit 3 packets, got %d", len(seen))
	}
	if q.Len() != 3 {
		t.Fatalf("ForEach must not drain the queue, len is now %d", q.Len())
	}

	seen = nil
	q.ForEach(func(p *ParsedPacket) bool {
		seen = append(seen, p.SrcID)
		return p.SrcID != 2
	})
	if len(seen) != 2 {
		t.Fatalf("expected early stop after 2 packets, got %d", len(seen))
	}
}

func TestPacketQueueConcurrentAdd(t *testing.T) {
	q := NewPacketQueue()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id uint32) {
			defer wg.Done()
			q.Add(&ParsedPacket{SrcID: id})
		}(uint32(i))
	}
	wg.Wait()
	if q.Len() != 50 {
		t.Fatalf("expected 50 packets after concurrent adds, got %d", q.Len())
	}
}

func TestRawQueueFIFOCopiesInput(t *testing.T) {
	q := NewRawQueue()

	raw := []byte{1, 2, 3}
	if ok := q.Add(raw); !ok {
		t.Fatal("Add on an uncapped queue should never fail")
	}
	raw[0] = 0xff // mutate caller's slice after Add

	got := q.Pop()
	if got[0] != 1 {
		t.Fatalf("RawQueue.Add must copy its input, got %v", got)
	}

	if got := q.Pop(); got != nil {
		t.Fatalf("expected nil from an empty queue, got %v", got)
	}
}

func TestRawQueueCappedRejectsPastCapacity(t *testing.T) {
	q := NewRawQueueCapped(2)

	if ok := q.Add([]byte{1}); !ok {
		t.Fatal("first add within capacity should succeed")
	}
	if ok := q.Add([]byte{2}); !ok {
		t.Fatal("second add at capacity should succeed")
	}
	if ok := q.Add([]byte{3}); ok {
		t.Fatal("add past capacity should fail")
	}

	if q.Len() != 2 {
		t.Fatalf("a rejected add must not drop existing entries, len is %d", q.Len())
	}

	// Draining one entry frees a slot for the next Add.
	if got := q.Pop(); got[0] != 1 {
		t.Fatalf("expected FIFO order, got %v", got)
	}
	if ok := q.Add([]byte{4}); !ok {
		t.Fatal("add should succeed again once capacity frees up")
	}
	if q.Len() != 2 {
		t.Fatalf("expected len 2 after drain+add, got %d", q.Len())
	}
}

func TestRawQueueUncappedNeverRejects(t *testing.T) {
	q := NewRawQueue()
	for i := 0; i < 1000; i++ {
		if ok := q.Add([]byte{byte(i)}); !ok {
			t.Fatalf("uncapped queue rejected add %d", i)
		}
	}
	if q.Len() != 1000 {
		t.Fatalf("expected 1000 queued entries, got %d", q.Len())
	}
}

func TestParsedPacketCarriesBurst(t *testing.T) {
	b := burst.New()
	b.SetSlotType(burst.SlotType{ColorCode: 3, DataType: burst.DataTypeVoiceLC})

	p := &ParsedPacket{
		Timeslot: burst.TS2,
		DataType: burst.DataTypeVoiceLC,
		Burst:    b,
	}

	if p.Burst.SlotType().ColorCode != 3 {
		t.Fatalf("expected ParsedPacket.Burst to remain the live decode target, got color code %d", p.Burst.SlotType().ColorCode)
	}
}
