package fec

import "github.com/dbehnke/dmrcore/pkg/bitutil"

// trellisStateTransition is Table B.7: the rate-3/4 Trellis encoder's state
// transition table, 8 rows of 8 constellation-point indices keyed by
// (previous state, tribit).
var trellisStateTransition = [64]uint8{
	0, 8, 4, 12, 2, 10, 6, 14,
	4, 12, 2, 10, 6, 14, 0, 8,
	1, 9, 5, 13, 3, 11, 7, 15,
	5, 13, 3, 11, 7, 15, 1, 9,
	3, 11, 7, 15, 1, 9, 5, 13,
	7, 15, 1, 9, 5, 13, 3, 11,
	2, 10, 6, 14, 0, 8, 4, 12,
	6, 14, 0, 8, 4, 12, 2, 10,
}

// trellisConstellation is Table B.8: the 16 constellation points, each a
// pair of dibit values in {-3,-1,+1,+3}.
var trellisConstellation = [16][2]int8{
	{+1, -1}, {-1, -1}, {+3, -3}, {-3, -3},
	{-3, -1}, {+3, -1}, {-1, -3}, {+1, -3},
	{-3, +3}, {+3, +3}, {-1, +1}, {+1, +1},
	{+1, +3}, {-1, +3}, {+3, +1}, {-3, +1},
}

// trellisInterleave is Table B.9: the rate-3/4 Trellis interleaving
// schedule over 98 dibit positions.
var trellisInterleave = [98]uint8{
	0x00, 0x01, 0x08, 0x09, 0x10, 0x11, 0x18, 0x19, 0x20, 0x21, 0x28, 0x29,
	0x30, 0x31, 0x38, 0x39, 0x40, 0x41, 0x48, 0x49, 0x50, 0x51, 0x58, 0x59,
	0x60, 0x61, 0x02, 0x03, 0x0a, 0x0b, 0x12, 0x13, 0x1a, 0x1b, 0x22, 0x23,
	0x2a, 0x2b, 0x32, 0x33, 0x3a, 0x3b, 0x42, 0x43, 0x4a, 0x4b, 0x52, 0x53,
	0x5a, 0x5b, 0x04, 0x05, 0x0c, 0x0d, 0x14, 0x15, 0x1c, 0x1d, 0x24, 0x25,
	0x2c, 0x2d, 0x34, 0x35, 0x3c, 0x3d, 0x44, 0x45, 0x4c, 0x4d, 0x54, 0x55,
	0x5c, 0x5d, 0x06, 0x07, 0x0e, 0x0f, 0x16, 0x17, 0x1e, 0x1f, 0x26, 0x27,
	0x2e, 0x2f, 0x36, 0x37, 0x3e, 0x3f, 0x46, 0x47, 0x4e, 0x4f, 0x56, 0x57,
	0x5e, 0x5f,
}

func dibit(hi, lo bool) int8 {
	switch {
	case hi && lo:
		return -3
	case hi && !lo:
		return -1
	case !hi && lo:
		return 3
	default:
		return 1
	}
}

func dibitBits(v int8) (hi, lo bool) {
	switch v {
	case -3:
		return true, true
	case -1:
		return true, false
	case 3:
		return false, true
	default:
		return false, false
	}
}

// TrellisRate34Decode recovers 18 bytes (144 bits) of LC payload from the
// 196 info bits of a rate-3/4 Trellis-coded burst. It reports an error if a
// constellation point cannot be matched to any transition-table entry,
// mirroring the reference decoder's tribit-extraction failure.
func TrellisRate34Decode(burstBits []bool) ([18]byte, bool) {
	var out [18]byte
	if len(burstBits) < 264 {
		return out, false
	}

	var info [196]bool
	copy(info[0:98], burstBits[0:98])
	copy(info[98:196], burstBits[166:264])

	var dibits [98]int8
	for i := 0; i < 196; i += 2 {
		dibits[i/2] = dibit(info[i], info[i+1])
	}

	var deinterleaved [98]int8
	for i := 0; i < 98; i++ {
		deinterleaved[trellisInterleave[i]] = dibits[i]
	}

	var points [49]uint8
	for i := 0; i < 98; i += 2 {
		o := i / 2
		found := false
		for j := 0; j < 16; j++ {
			if deinterleaved[i] == trellisConstellation[j][0] && deinterleaved[i+1] == trellisConstellation[j][1] {
				points[o] = uint8(j)
				found = true
				break
			}
		}
		if !found {
			return out, false
		}
	}

	var tribits [48]uint8
	var last uint8
	for i := 0; i < 48; i++ {
		start := int(last) * 8
		matched := false
		for j := start; j < start+8; j++ {
			if points[i] == trellisStateTransition[j] {
				last = uint8(j - start)
				tribits[i] = last
				matched = true
				break
			}
		}
		if !matched {
			return out, false
		}
	}

	var bits [144]bool
	for i := 0; i < 144; i += 3 {
		o := i / 3
		bits[i+0] = tribits[o]&0x04 != 0
		bits[i+1] = tribits[o]&0x02 != 0
		bits[i+2] = tribits[o]&0x01 != 0
	}

	bitutil.BitsToBytes(bits[:], out[:])
	return out, true
}

// TrellisRate34Encode is the inverse of TrellisRate34Decode: it walks the
// state transition table forward from state 0 to turn 18 bytes of LC
// payload into 264 bits suitable for splicing into a burst's two info
// fields.
func TrellisRate34Encode(data [18]byte) []bool {
	var bits [144]bool
	bitutil.BytesToBits(data[:], bits[:])

	var tribits [48]uint8
	for i := 0; i < 144; i += 3 {
		o := i / 3
		var t uint8
		if bits[i+0] {
			t |= 0x04
		}
		if bits[i+1] {
			t |= 0x02
		}
		if bits[i+2] {
			t |= 0x01
		}
		tribits[o] = t
	}

	var points [49]uint8
	var state uint8
	for i := 0; i < 48; i++ {
		points[i] = trellisStateTransition[int(state)*8+int(tribits[i])]
		state = tribits[i]
	}
	// The 49th constellation point (index 48) repeats the final state's
	// point 0 transition, matching the burst's odd dibit-pair count.
	points[48] = trellisStateTransition[int(state)*8]

	var deinterleaved [98]int8
	for i := 0; i < 49; i++ {
		deinterleaved[i*2] = trellisConstellation[points[i]][0]
		deinterleaved[i*2+1] = trellisConstellation[points[i]][1]
	}

	var dibits [98]int8
	for i := 0; i < 98; i++ {
		dibits[i] = deinterleaved[trellisInterleave[i]]
	}

	var info [196]bool
	for i := 0; i < 98; i++ {
		hi, lo := dibitBits(dibits[i])
		info[i*2] = hi
		info[i*2+1] = lo
	}

	out := make([]bool, 264)
	copy(out[0:98], info[0:98])
	copy(out[166:264], info[98:196])
	return out
}
