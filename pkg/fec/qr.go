package fec

import "math/bits"

// qr1676Generator is a 7x9 systematic parity generator for the
// Quadratic Residue(16,7,6) code used to protect the slot type field: for
// each of the 7 data bits, the 9-bit parity contribution it makes. Derived
// from the reference dmrfec_quadres_16_7_get_parity_bits parity-bit
// equations (DMR AI spec p.134): column i is the XOR of the equations that
// data bit i appears in, parity bit 0 in the MSB.
var qr1676Generator = [7]uint16{
	0x04f, 0x11e, 0x1b7, 0x1e2, 0x1c9, 0x0e5, 0x073,
}

var qr1676Codewords [128]uint16

func init() {
	for d := 0; d < 128; d++ {
		qr1676Codewords[d] = qrEncodeWord(uint8(d))
	}
}

func qrEncodeWord(data uint8) uint16 {
	var parity uint16
	for i := 0; i < 7; i++ {
		if data&(1<<uint(6-i)) != 0 {
			parity ^= qr1676Generator[i]
		}
	}
	return uint16(data)<<9 | parity
}

// QR1676Encode computes the QR(16,7,6) codeword for the top 7 bits of
// buf[0]; the 16-bit result is packed MSB-first into buf[0:2).
func QR1676Encode(buf *[2]byte) {
	data := buf[0] >> 1
	word := qrEncodeWord(data)
	buf[0] = byte(word >> 8)
	buf[1] = byte(word)
}

// QR1676Decode validates a received QR(16,7,6) word in buf[0:2), reporting
// false if no codeword lies within the code's 2-bit correction radius of
// it. It does not return the corrected codeword.
func QR1676Decode(buf [2]byte) bool {
	received := uint16(buf[0])<<8 | uint16(buf[1])

	for d := 0; d < 128; d++ {
		dist := bits.OnesCount16(received ^ qr1676Codewords[d])
		if dist <= 2 {
			return true
		}
	}
	return false
}
