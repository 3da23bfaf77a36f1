// Package fec implements the forward error correction codes used across the
// DMR air interface: the Hamming family, Golay(20,8), QR(16,7,6),
// BPTC(196,96), RS(12,9,4), rate-3/4 Trellis, and VBPTC(16,11). Tables
// that survive in the reference dmrlib C source are reproduced verbatim;
// Golay(20,8), QR(16,7,6) and RS(12,9,4) are constructed in code instead
// (see golay.go, qr.go and rs.go).
package fec

// hammingCode describes one member of the DMR Hamming family: an (n,k,d)
// systematic code whose generator matrix columns double as an error-locator
// table during decode.
type hammingCode struct {
	n, k, d uint8
	g       []uint8
}

var (
	hamming7_4_3 = hammingCode{
		n: 7, k: 4, d: 3,
		g: []uint8{0x05, 0x07, 0x06, 0x03, 0x04, 0x02, 0x01},
	}
	hamming13_9_3 = hammingCode{
		n: 13, k: 9, d: 3,
		g: []uint8{0x0f, 0x0e, 0x07, 0x0a, 0x05, 0x0b, 0x0c, 0x06, 0x03, 0x08, 0x04, 0x02, 0x01},
	}
	hamming15_11_3 = hammingCode{
		n: 15, k: 11, d: 3,
		g: []uint8{0x09, 0x0d, 0x0f, 0x0e, 0x07, 0x0a, 0x05, 0x0b, 0x0c, 0x06, 0x03, 0x08, 0x04, 0x02, 0x01},
	}
	hamming16_11_4 = hammingCode{
		n: 16, k: 11, d: 4,
		g: []uint8{0x13, 0x1a, 0x1f, 0x1c, 0x0e, 0x15, 0x0b, 0x16, 0x19, 0x0d, 0x07, 0x10, 0x08, 0x04, 0x02, 0x01},
	}
	hamming17_12_3 = hammingCode{
		n: 17, k: 12, d: 3,
		g: []uint8{0x1b, 0x1f, 0x1d, 0x1c, 0x0e, 0x07, 0x11, 0x1a, 0x0d, 0x14, 0x0a, 0x05, 0x10, 0x08, 0x04, 0x02, 0x01},
	}
)

// parity computes the n-k parity bits of d[0:k] into the caller-owned
// buffer p, using h's generator matrix. p must never alias d: the
// reference hamming_parity(h, d, p) in the original source takes p as a
// separate out-parameter, and a decode that wrote parity back into d's
// own parity-bit positions would compare those bits against themselves.
func (h hammingCode) parity(d []bool, p []bool) {
	b := h.n - h.k
	for x := uint8(0); x < b; x++ {
		var bit bool
		for y := uint8(0); y < h.k; y++ {
			if h.g[y]&(1<<(b-x-1)) != 0 {
				bit = bit != d[y]
			}
		}
		p[x] = bit
	}
}

// checkParity validates d's received parity bits (d[k:n]) against a
// freshly computed set, retrying up to d times the way the reference
// decoder does. The reference implementation locates the mismatching bit
// via the generator table for diagnostics but performs no correcting bit
// flip; a bad codeword is therefore detected, not corrected, and this
// mirrors that behavior.
func (h hammingCode) checkParity(d []bool) bool {
	b := h.n - h.k
	p := make([]bool, b)
	h.parity(d, p)

	attempts := uint8(0)
	for {
		var pos uint8
		for i := uint8(0); i < b; i++ {
			if d[int(i)+int(h.k)] != p[i] {
				pos |= 1 << i
			}
		}
		if pos == 0 {
			return true
		}
		attempts++
		if attempts >= h.d {
			return false
		}
	}
}

// encode computes d's parity bits into d[k:n] in place. Safe because
// parity only ever reads d[0:k] and writes strictly to d[k:n], so
// passing d's own parity slice as the output buffer never reads a bit
// after it has been overwritten.
func (h hammingCode) encode(d []bool) {
	h.parity(d, d[h.k:h.n])
}

// Hamming7_4_3Decode checks a 7-bit systematic Hamming(7,4,3) codeword.
func Hamming7_4_3Decode(d []bool) bool { return hamming7_4_3.checkParity(d) }

// Hamming7_4_3Encode computes the 3 parity bits of a 7-bit codeword in place.
func Hamming7_4_3Encode(d []bool) { hamming7_4_3.encode(d) }

// Hamming13_9_3Decode checks a 13-bit systematic Hamming(13,9,3) codeword.
func Hamming13_9_3Decode(d []bool) bool { return hamming13_9_3.checkParity(d) }

// Hamming13_9_3Encode computes the 4 parity bits of a 13-bit codeword in place.
func Hamming13_9_3Encode(d []bool) { hamming13_9_3.encode(d) }

// Hamming15_11_3Decode checks a 15-bit systematic Hamming(15,11,3) codeword.
func Hamming15_11_3Decode(d []bool) bool { return hamming15_11_3.checkParity(d) }

// Hamming15_11_3Encode computes the 4 parity bits of a 15-bit codeword in place.
func Hamming15_11_3Encode(d []bool) { hamming15_11_3.encode(d) }

// Hamming16_11_4Decode checks a 16-bit systematic Hamming(16,11,4) codeword.
func Hamming16_11_4Decode(d []bool) bool { return hamming16_11_4.checkParity(d) }

// Hamming16_11_4Encode computes the 5 parity bits of a 16-bit codeword in place.
func Hamming16_11_4Encode(d []bool) { hamming16_11_4.encode(d) }

// Hamming17_12_3Decode checks a 17-bit systematic Hamming(17,12,3) codeword.
func Hamming17_12_3Decode(d []bool) bool { return hamming17_12_3.checkParity(d) }

// Hamming17_12_3Encode computes the 5 parity bits of a 17-bit codeword in place.
func Hamming17_12_3Encode(d []bool) { hamming17_12_3.encode(d) }
