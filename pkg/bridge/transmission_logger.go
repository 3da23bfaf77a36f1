package bridge

import (
	"sync"
	"time"

	"github.com/dbehnke/dmrcore/pkg/logger"
)

// maxCompletedTransmissions bounds the in-memory completed-transmission
// ring so a long-lived process never grows this list unbounded.
const maxCompletedTransmissions = 500

// Transmission is one completed call record, ended either by a terminator
// or by CleanupStaleStreams.
type Transmission struct {
	RadioID     uint32
	TalkgroupID uint32
	Timeslot    int
	Duration    float64
	StreamID    uint32
	StartTime   time.Time
	EndTime     time.Time
	RepeaterID  uint32
	PacketCount int
}

// TransmissionLogger tracks in-flight calls and records completed ones
// in memory. Grounded on the teacher's TransmissionLogger, narrowed from
// its gorm-backed TransmissionRepository to a plain in-memory ring:
// SPEC_FULL.md's bridge core has no persistent transmission-history
// requirement of its own, and pkg/idmap already carries this tree's one
// SQLite-backed concern (the radio-ID cache). A caller that wants
// durable call history can read Recent and persist it externally.
type TransmissionLogger struct {
	log           *logger.Logger
	activeStreams map[uint32]*activeStream
	recent        []Transmission
	mu            sync.RWMutex
}

// activeStream tracks an ongoing transmission.
type activeStream struct {
	streamID    uint32
	radioID     uint32
	talkgroupID uint32
	timeslot    int
	repeaterID  uint32
	startTime   time.Time
	lastSeen    time.Time
	packetCount int
}

// NewTransmissionLogger creates a new transmission logger.
func NewTransmissionLogger(log *logger.Logger) *TransmissionLogger {
	if log == nil {
		log = logger.Discard()
	}
	return &TransmissionLogger{
		log:           log.WithComponent("txlog"),
		activeStreams: make(map[uint32]*activeStream),
	}
}

// LogPacket logs a DMR packet, tracking streams and recording a
// completed Transmission once a terminator closes the stream.
func (tl *TransmissionLogger) LogPacket(streamID, radioID, talkgroupID, repeaterID uint32, timeslot int, isTerminator bool) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	now := time.Now()

	stream, exists := tl.activeStreams[streamID]
	if !exists {
		stream = &activeStream{
			streamID:    streamID,
			radioID:     radioID,
			talkgroupID: talkgroupID,
			timeslot:    timeslot,
			repeaterID:  repeaterID,
			startTime:   now,
			lastSeen:    now,
			packetCount: 1,
		}
		tl.activeStreams[streamID] = stream
		tl.log.Debug("started tracking stream",
			logger.Any("stream_id", streamID),
			logger.Any("radio_id", radioID),
			logger.Any("talkgroup_id", talkgroupID))
	} else {
		stream.lastSeen = now
		stream.packetCount++
	}

	if isTerminator {
		tl.finish(stream)
		delete(tl.activeStreams, streamID)
	}
}

// finish records stream as a completed Transmission if it lasted long
// enough to be a real call rather than a spurious or duplicate burst.
func (tl *TransmissionLogger) finish(stream *activeStream) {
	duration := stream.lastSeen.Sub(stream.startTime).Seconds()
	if duration < 0.5 {
		tl.log.Debug("skipped recording very short transmission",
			logger.Any("stream_id", stream.streamID),
			logger.Any("duration", duration))
		return
	}

	tx := Transmission{
		RadioID:     stream.radioID,
		TalkgroupID: stream.talkgroupID,
		Timeslot:    stream.timeslot,
		Duration:    duration,
		StreamID:    stream.streamID,
		StartTime:   stream.startTime,
		EndTime:     stream.lastSeen,
		RepeaterID:  stream.repeaterID,
		PacketCount: stream.packetCount,
	}
	tl.recent = append(tl.recent, tx)
	if len(tl.recent) > maxCompletedTransmissions {
		tl.recent = tl.recent[len(tl.recent)-maxCompletedTransmissions:]
	}
	tl.log.Debug("recorded transmission",
		logger.Any("stream_id", tx.StreamID),
		logger.Any("radio_id", tx.RadioID),
		logger.Any("talkgroup_id", tx.TalkgroupID),
		logger.Any("duration", tx.Duration))
}

// CleanupStaleStreams finishes and removes streams that haven't seen
// activity within maxAge, so a stream whose terminator was lost
// (dropped burst, transport failure) doesn't stay active forever.
func (tl *TransmissionLogger) CleanupStaleStreams(maxAge time.Duration) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	now := time.Now()
	for streamID, stream := range tl.activeStreams {
		if now.Sub(stream.lastSeen) > maxAge {
			tl.finish(stream)
			delete(tl.activeStreams, streamID)
		}
	}
}

// GetActiveStreamCount returns the number of currently active streams.
func (tl *TransmissionLogger) GetActiveStreamCount() int {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return len(tl.activeStreams)
}

// Recent returns up to n of the most recently completed transmissions,
// newest last.
func (tl *TransmissionLogger) Recent(n int) []Transmission {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	if n <= 0 || n > len(tl.recent) {
		n = len(tl.recent)
	}
	out := make([]Transmission, n)
	copy(out, tl.recent[len(tl.recent)-n:])
	return out
}
