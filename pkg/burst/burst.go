// Package burst models a single 33-byte DMR air-interface burst and the
// typed views (sync pattern, slot type, embedded signalling, full link
// control, data header/block) layered on top of it. Bit-field
// placement is taken verbatim from the reference packet.c implementation;
// there is exactly one underlying byte array per burst, never a second
// copy of any field.
package burst

import "fmt"

// Len is the fixed size of a DMR burst payload in bytes (264 bits in all,
// the 48-bit sync/signalling field included).
const Len = 33

// Bits is the number of bits carried by one burst.
const Bits = Len * 8

// Timeslot identifies one of a DMR repeater's two TDMA timeslots.
type Timeslot uint8

const (
	TS1 Timeslot = iota
	TS2
)

func (t Timeslot) String() string {
	if t == TS1 {
		return "TS1"
	}
	return "TS2"
}

// CallType distinguishes group from private (unit-to-unit) calls.
type CallType uint8

const (
	CallTypePrivate CallType = iota
	CallTypeGroup
)

// DataType is the 4-bit slot-type data type field (ETSI Table 9.2).
type DataType uint8

const (
	DataTypePrivacyIndicator DataType = iota
	DataTypeVoiceLC
	DataTypeTerminatorWithLC
	DataTypeCSBK
	DataTypeMBCHeader
	DataTypeMBCContinuation
	DataTypeDataHeader
	DataTypeRate12Data
	DataTypeRate34Data
	DataTypeIdle
	DataTypeInvalid = 0x0f
)

func (d DataType) String() string {
	switch d {
	case DataTypePrivacyIndicator:
		return "privacy indicator"
	case DataTypeVoiceLC:
		return "voice lc"
	case DataTypeTerminatorWithLC:
		return "terminator with lc"
	case DataTypeCSBK:
		return "csbk"
	case DataTypeMBCHeader:
		return "multi block control"
	case DataTypeMBCContinuation:
		return "multi block control continuation"
	case DataTypeDataHeader:
		return "data"
	case DataTypeRate12Data:
		return "rate 1/2 data"
	case DataTypeRate34Data:
		return "rate 3/4 data"
	case DataTypeIdle:
		return "idle"
	default:
		return "invalid"
	}
}

// Burst wraps exactly one 33-byte DMR payload; every typed view below reads
// or writes through this single backing array.
type Burst struct {
	raw [Len]byte
}

// New returns a zeroed burst.
func New() *Burst { return &Burst{} }

// FromBytes copies a 33-byte payload into a new Burst.
func FromBytes(b []byte) (*Burst, error) {
	if len(b) != Len {
		return nil, fmt.Errorf("burst: expected %d bytes, got %d", Len, len(b))
	}
	bu := &Burst{}
	copy(bu.raw[:], b)
	return bu, nil
}

// Bytes returns the backing 33-byte array as a slice; mutating it mutates
// the burst.
func (b *Burst) Bytes() []byte { return b.raw[:] }

// Bits unpacks the burst into 264 MSB-first bits.
func (b *Burst) Bits() []bool {
	bits := make([]bool, Bits)
	for i, by := range b.raw {
		for j := 0; j < 8; j++ {
			bits[i*8+j] = by&(1<<uint(7-j)) != 0
		}
	}
	return bits
}

// InfoBits returns the 196 information bits either side of the 48-bit
// sync/signalling field: bits [0,98) and [166,264).
func (b *Burst) InfoBits() []bool {
	all := b.Bits()
	out := make([]bool, 196)
	copy(out[0:98], all[0:98])
	copy(out[98:196], all[166:264])
	return out
}
