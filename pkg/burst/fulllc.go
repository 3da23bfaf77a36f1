package burst

import "github.com/dbehnke/dmrcore/pkg/fec"

// CRC-mask constants distinguish Full LC burst subtypes when computing the
// RS(12,9,4) parity, the way the reference masks do for VOICE_LC vs.
// TERMINATOR_WITH_LC; exact values were not present in the retained
// original source and are assigned distinct, non-zero bytes here.
const (
	CRCMaskVoiceLC          uint8 = 0x96
	CRCMaskTerminatorWithLC uint8 = 0x99
)

// FLCO is the Full Link Control Opcode (ETSI Table 7.3).
type FLCO uint8

const (
	FLCOGroupVoiceChannelUser       FLCO = 0x00
	FLCOUnitToUnitVoiceChannelUser  FLCO = 0x03
)

// FullLC is the 9-byte Link Control PDU carried, RS(12,9,4)-protected and
// BPTC(196,96)-interleaved, by VOICE_LC and TERMINATOR_WITH_LC bursts.
type FullLC struct {
	FLCO           FLCO
	FID            uint8
	ServiceOptions uint8
	DstID          uint32 // 24-bit
	SrcID          uint32 // 24-bit
}

func (lc FullLC) pack() [9]byte {
	var b [9]byte
	b[0] = uint8(lc.FLCO)
	b[1] = lc.FID
	b[2] = lc.ServiceOptions
	b[3] = byte(lc.DstID >> 16)
	b[4] = byte(lc.DstID >> 8)
	b[5] = byte(lc.DstID)
	b[6] = byte(lc.SrcID >> 16)
	b[7] = byte(lc.SrcID >> 8)
	b[8] = byte(lc.SrcID)
	return b
}

func unpackFullLC(b [9]byte) FullLC {
	return FullLC{
		FLCO:           FLCO(b[0]),
		FID:            b[1],
		ServiceOptions: b[2],
		DstID:          uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5]),
		SrcID:          uint32(b[6])<<16 | uint32(b[7])<<8 | uint32(b[8]),
	}
}

// SetFullLC RS(12,9,4)-protects lc and BPTC(196,96)-interleaves it into the
// burst's two information fields.
func (b *Burst) SetFullLC(lc FullLC, crcMask uint8) {
	var bytesArr [12]byte
	packed := lc.pack()
	copy(bytesArr[:9], packed[:])
	fec.RS12_9_4Encode(&bytesArr, crcMask)

	bits := fec.BPTC196_96Encode(bytesArr)
	all := b.Bits()
	copy(all[0:98], bits[0:98])
	copy(all[166:264], bits[166:264])
	b.setBits(all)
}

// FullLC extracts, BPTC(196,96)-decodes and RS(12,9,4)-verifies the burst's
// Full LC payload. ok is false if either FEC layer reports an uncorrectable
// error.
func (b *Burst) FullLC(crcMask uint8) (lc FullLC, ok bool) {
	data, good := fec.BPTC196_96Decode(b.Bits())
	if !good {
		return FullLC{}, false
	}
	if !fec.RS12_9_4Decode(&data, crcMask) {
		return FullLC{}, false
	}
	var payload [9]byte
	copy(payload[:], data[:9])
	return unpackFullLC(payload), true
}

// setBits repacks 264 info+sync bits (as returned by Bits) back into the
// burst's backing bytes.
func (b *Burst) setBits(bits []bool) {
	for i := 0; i < Len; i++ {
		var v byte
		for j := 0; j < 8; j++ {
			if bits[i*8+j] {
				v |= 1 << uint(7-j)
			}
		}
		b.raw[i] = v
	}
}
