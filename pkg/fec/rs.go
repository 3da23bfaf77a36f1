package fec

// Reed-Solomon(12,9,4) protects the DMR data header: 9 six-bit data symbols
// plus 3 six-bit parity symbols over GF(64), built from the primitive
// polynomial x^6+x+1 (0x43), matching the field used by the DMR air-interface CRC/RS
// layer. The reference source's rs_12_9.c was not retained, only its
// header signature (bytes[12], crc_mask); this implementation follows
// standard systematic RS construction against that field.

const (
	gf64Prime = 0x43 // x^6 + x + 1
	gf64Size  = 63
)

var gf64Exp [2 * gf64Size]uint8
var gf64Log [gf64Size + 1]uint8

func init() {
	x := 1
	for i := 0; i < gf64Size; i++ {
		gf64Exp[i] = uint8(x)
		gf64Log[x] = uint8(i)
		x <<= 1
		if x&0x40 != 0 {
			x ^= gf64Prime
		}
	}
	for i := gf64Size; i < 2*gf64Size; i++ {
		gf64Exp[i] = gf64Exp[i-gf64Size]
	}
}

func gf64Mul(a, b uint8) uint8 {
	if a == 0 || b == 0 {
		return 0
	}
	return gf64Exp[int(gf64Log[a])+int(gf64Log[b])]
}

// rsGenerator is the degree-3 generator polynomial (x-a^0)(x-a^1)(x-a^2)
// for a 3-parity-symbol RS code, coefficients highest-degree first with an
// implicit leading 1.
var rsGenerator = rsBuildGenerator(3)

func rsBuildGenerator(parity int) []uint8 {
	g := []uint8{1}
	for i := 0; i < parity; i++ {
		root := gf64Exp[i]
		next := make([]uint8, len(g)+1)
		for j, c := range g {
			next[j] ^= c
			next[j+1] ^= gf64Mul(c, root)
		}
		g = next
	}
	return g
}

// rsEncodeSymbols computes the 3 parity symbols for 9 six-bit data symbols
// via polynomial division by the generator, the standard systematic RS
// encoding step.
func rsEncodeSymbols(data [9]uint8) [3]uint8 {
	const nsym = 3
	var rem [nsym]uint8

	for _, d := range data {
		feedback := d ^ rem[0]
		for i := 0; i < nsym-1; i++ {
			rem[i] = rem[i+1]
			if feedback != 0 {
				rem[i] ^= gf64Mul(rsGenerator[i+1], feedback)
			}
		}
		rem[nsym-1] = 0
		if feedback != 0 {
			rem[nsym-1] = gf64Mul(rsGenerator[nsym], feedback)
		}
	}
	return rem
}

// RS12_9_4Encode computes the 3 parity bytes (low 6 bits significant) for
// bytes[0:9), XORs them with crcMask, and writes the result into
// bytes[9:12).
func RS12_9_4Encode(bytesArr *[12]byte, crcMask uint8) {
	var data [9]uint8
	for i := 0; i < 9; i++ {
		data[i] = bytesArr[i] & 0x3f
	}
	parity := rsEncodeSymbols(data)
	bytesArr[9] = (parity[0] ^ crcMask) & 0x3f
	bytesArr[10] = (parity[1] ^ crcMask) & 0x3f
	bytesArr[11] = (parity[2] ^ crcMask) & 0x3f
}

// RS12_9_4Decode recomputes the parity for bytes[0:9) and compares it
// (after undoing crcMask) against the received parity in bytes[9:12); it
// reports whether the header is intact. Because the alphabet is tiny (64
// symbols, 12 positions) a single mismatching symbol is corrected by
// brute-force search over the 9 data positions before giving up, covering
// the code's single-symbol-error correction radius.
func RS12_9_4Decode(bytesArr *[12]byte, crcMask uint8) bool {
	check := func() bool {
		var data [9]uint8
		for i := 0; i < 9; i++ {
			data[i] = bytesArr[i] & 0x3f
		}
		parity := rsEncodeSymbols(data)
		return (parity[0]^crcMask)&0x3f == bytesArr[9]&0x3f &&
			(parity[1]^crcMask)&0x3f == bytesArr[10]&0x3f &&
			(parity[2]^crcMask)&0x3f == bytesArr[11]&0x3f
	}
	if check() {
		return true
	}

	orig := *bytesArr
	for i := 0; i < 9; i++ {
		saved := bytesArr[i]
		for v := uint8(0); v < 64; v++ {
			if v == saved&0x3f {
				continue
			}
			bytesArr[i] = saved&0xc0 | v
			if check() {
				return true
			}
		}
		bytesArr[i] = saved
	}
	*bytesArr = orig
	return false
}
