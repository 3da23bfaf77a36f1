package burst

import (
	"math/bits"

	"github.com/dbehnke/dmrcore/pkg/fec"
)

// LCSS is the Link Control Start/Stop field carried by embedded signalling
// (ETSI 9.1.2): it marks a fragment's position within a 4-fragment,
// VBPTC(16,11)-interleaved embedded LC super-frame.
type LCSS uint8

const (
	LCSSSingleFragment LCSS = 0x00
	LCSSFirstFragment  LCSS = 0x01
	LCSSLastFragment   LCSS = 0x02
	LCSSContinuation   LCSS = 0x03
)

func (s LCSS) String() string {
	switch s {
	case LCSSSingleFragment:
		return "single fragment"
	case LCSSFirstFragment:
		return "first fragment"
	case LCSSLastFragment:
		return "last fragment"
	case LCSSContinuation:
		return "continuation"
	default:
		return "unknown"
	}
}

// EMB is the embedded signalling field carried by VOICE bursts B-F (ETSI
// Figure 9.1): 4 bits of color code, 1 privacy-indicator bit and 2 bits of
// LCSS. The field is QR(16,7,6)-protected: the 7 bits above and the first
// of the 9 parity bits make up the codeword's first byte, carried in the
// nibbles at raw[13:15); the other 8 parity bits ride in the nibbles either
// side of the signalling-LC fragment at raw[18:20).
type EMB struct {
	ColorCode uint8
	PI        bool
	LCSS      LCSS
}

// Emb extracts and QR(16,7,6)-decodes the burst's embedded signalling
// field, correcting up to 2 bit errors and reporting false if the received
// codeword lies outside the code's correction radius. It does not validate
// the 5-bit checksum carried across the EMB LC super-frame.
func (b *Burst) Emb() (EMB, bool) {
	hi := b.raw[13] & 0x0f
	lo := (b.raw[14] & 0xf0) >> 4
	data := hi<<4 | lo

	phi := b.raw[18] & 0x0f
	plo := (b.raw[19] & 0xf0) >> 4
	parity := phi<<4 | plo

	if !fec.QR1676Decode([2]byte{data, parity}) {
		return EMB{}, false
	}
	// Take the first byte of the codeword within the correction radius, so
	// bit errors in the received data bits are corrected.
	received := uint16(data)<<8 | uint16(parity)
	for d := 0; d < 128; d++ {
		cw := [2]byte{byte(d) << 1, 0}
		fec.QR1676Encode(&cw)
		if bits.OnesCount16(received^(uint16(cw[0])<<8|uint16(cw[1]))) <= 2 {
			data = cw[0]
			break
		}
	}

	return EMB{
		ColorCode: (data >> 4) & 0x0f,
		PI:        data&0x08 != 0,
		LCSS:      LCSS((data >> 1) & 0x03),
	}, true
}

// SetEmb QR(16,7,6)-encodes e and writes the codeword into the burst,
// OR-merging the data half into the nibbles shared with the sync pattern
// and the parity half into the nibbles shared with the signalling-LC
// fragment.
func (b *Burst) SetEmb(e EMB) {
	v := (e.ColorCode&0x0f)<<4 | boolBit(e.PI, 0x08) | (uint8(e.LCSS)&0x03)<<1

	buf := [2]byte{v, 0}
	fec.QR1676Encode(&buf)

	b.raw[13] = (b.raw[13] & 0xf0) | (buf[0] >> 4)
	b.raw[14] = (b.raw[14] & 0x0f) | (buf[0] << 4)
	b.raw[18] = (b.raw[18] & 0xf0) | (buf[1] >> 4)
	b.raw[19] = (b.raw[19] & 0x0f) | (buf[1] << 4)
}

func boolBit(v bool, bit uint8) uint8 {
	if v {
		return bit
	}
	return 0
}
