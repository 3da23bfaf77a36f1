// Package bitutil provides endian-agnostic bit packing used throughout the
// DMR codec stack. Bit order is MSB-first everywhere; any deviation is a bug.
package bitutil

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ByteToBits unpacks a byte into 8 MSB-first bits.
func ByteToBits(b byte, bits []bool) {
	bits[0] = b&0x80 != 0
	bits[1] = b&0x40 != 0
	bits[2] = b&0x20 != 0
	bits[3] = b&0x10 != 0
	bits[4] = b&0x08 != 0
	bits[5] = b&0x04 != 0
	bits[6] = b&0x02 != 0
	bits[7] = b&0x01 != 0
}

// BitsToByte packs 8 MSB-first bits into a byte.
func BitsToByte(bits []bool) byte {
	var v byte
	for i := 0; i < 8; i++ {
		if bits[i] {
			v |= 1 << uint(7-i)
		}
	}
	return v
}

// BytesToBits unpacks the bytes of src into the bits of dst, MSB-first.
// Only the overlapping region is filled.
func BytesToBits(src []byte, dst []bool) {
	n := len(dst) / 8
	if n > len(src) {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		ByteToBits(src[i], dst[i*8:i*8+8])
	}
}

// BitsToBytes packs the bits of src into the bytes of dst, MSB-first.
// Only the overlapping region is filled.
func BitsToBytes(src []bool, dst []byte) {
	n := len(src) / 8
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = BitsToByte(src[i*8 : i*8+8])
	}
}

// PackBits packs an arbitrary-length array of n bits (MSB-first within each
// byte) into a tightly packed byte slice of ceil(n/8) bytes.
func PackBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(7-(i%8))
		}
	}
	return out
}

// UnpackBits unpacks n bits (MSB-first) from a tightly packed byte slice.
func UnpackBits(data []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = data[i/8]&(1<<uint(7-(i%8))) != 0
	}
	return out
}

// HexDump writes a hex/ASCII dump of mem to w, tagging it with a source
// location the way dmr_dump_hex() tags stderr dumps in the original library.
func HexDump(w io.Writer, mem []byte, tag string) {
	const cols = 16
	if w == nil {
		w = os.Stderr
	}
	if tag != "" {
		fmt.Fprintf(w, "hex dump of %d bytes at %s:\n", len(mem), tag)
	} else {
		fmt.Fprintf(w, "hex dump of %d bytes:\n", len(mem))
	}
	for i := 0; i < len(mem); i += cols {
		end := i + cols
		if end > len(mem) {
			end = len(mem)
		}
		row := mem[i:end]

		hex := make([]string, cols)
		ascii := strings.Builder{}
		for j := 0; j < cols; j++ {
			if j < len(row) {
				hex[j] = fmt.Sprintf("%02x", row[j])
				if row[j] >= 0x20 && row[j] < 0x7f {
					ascii.WriteByte(row[j])
				} else {
					ascii.WriteByte('.')
				}
			} else {
				hex[j] = "  "
			}
		}
		fmt.Fprintf(w, "0x%06x  %s |%s|\n", i, strings.Join(hex, " "), ascii.String())
	}
}
