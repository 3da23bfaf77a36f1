package burst

// SyncPattern identifies one of the nine 48-bit DMR sync patterns (ETSI
// Table 9.3) carried in the middle of a burst, bits 108-155 (byte offset
// 13.5).
type SyncPattern uint8

const (
	SyncUnknown SyncPattern = iota
	SyncBSSourcedVoice
	SyncBSSourcedData
	SyncMSSourcedVoice
	SyncMSSourcedData
	SyncMSSourcedRC
	SyncDirectVoiceTS1
	SyncDirectDataTS1
	SyncDirectVoiceTS2
	SyncDirectDataTS2
)

func (p SyncPattern) String() string {
	switch p {
	case SyncBSSourcedVoice:
		return "bs sourced voice"
	case SyncBSSourcedData:
		return "bs sourced data"
	case SyncMSSourcedVoice:
		return "ms sourced voice"
	case SyncMSSourcedData:
		return "ms sourced data"
	case SyncMSSourcedRC:
		return "ms sourced rc"
	case SyncDirectVoiceTS1:
		return "direct voice ts1"
	case SyncDirectDataTS1:
		return "direct data ts1"
	case SyncDirectVoiceTS2:
		return "direct voice ts2"
	case SyncDirectDataTS2:
		return "direct data ts2"
	default:
		return "unknown"
	}
}

var syncPatterns = map[SyncPattern][6]byte{
	SyncBSSourcedVoice: {0x75, 0x5f, 0xd7, 0xdf, 0x75, 0xf7},
	SyncBSSourcedData:  {0xdf, 0xf5, 0x7d, 0x75, 0xdf, 0x5d},
	SyncMSSourcedVoice: {0x7f, 0x7d, 0x5d, 0xd5, 0x7d, 0xfd},
	SyncMSSourcedData:  {0xd5, 0xd7, 0xf7, 0x7f, 0xd7, 0x57},
	SyncMSSourcedRC:    {0x77, 0xd5, 0x5f, 0x7d, 0xfd, 0x77},
	SyncDirectVoiceTS1: {0x5d, 0x57, 0x7f, 0x77, 0x57, 0xff},
	SyncDirectDataTS1:  {0xf7, 0xfd, 0xd5, 0xdd, 0xfd, 0x55},
	SyncDirectVoiceTS2: {0x7d, 0xff, 0xd5, 0xf5, 0x5d, 0x5f},
	SyncDirectDataTS2:  {0xd7, 0x55, 0x7f, 0x5f, 0xf7, 0xf5},
}

// Sync extracts and identifies the burst's sync pattern.
func (b *Burst) Sync() SyncPattern {
	var syncBytes [6]byte
	for i := 0; i < 6; i++ {
		syncBytes[i] = (b.raw[13+i] & 0x0f) << 4
		syncBytes[i] |= (b.raw[14+i] & 0xf0) >> 4
	}
	for pattern, bytes := range syncPatterns {
		if bytes == syncBytes {
			return pattern
		}
	}
	return SyncUnknown
}

// SetSync OR-merges the given sync pattern's bits into the burst, leaving
// any other bits in the affected bytes untouched (callers are expected to
// write the slot type / EMB fields separately, as the reference encoder
// does). Only safe to call on a burst whose sync nibbles are already zero
// (a freshly-allocated Burst); see SetFullSync otherwise.
func (b *Burst) SetSync(pattern SyncPattern) bool {
	bytes, ok := syncPatterns[pattern]
	if !ok {
		return false
	}
	for i := 0; i < 6; i++ {
		b.raw[13+i] |= (bytes[i] >> 4) & 0x0f
		b.raw[14+i] |= (bytes[i] << 4) & 0xf0
	}
	return true
}

// SetFullSync rewrites the burst's sync field to pattern, first clearing
// the nibbles SetSync writes into. Unlike SetSync, this is safe to call on
// a burst decoded off the air whose sync nibbles already carry a different
// pattern, as when the repeater core re-stamps a forwarded burst's sourcing
// convention.
func (b *Burst) SetFullSync(pattern SyncPattern) bool {
	for i := 0; i < 6; i++ {
		b.raw[13+i] &= 0xf0
		b.raw[14+i] &= 0x0f
	}
	return b.SetSync(pattern)
}
