package fec

import "github.com/dbehnke/dmrcore/pkg/bitutil"

// bptcInterleave is the BPTC(196,96) interleaving constant: raw bit i lands
// at position (i*181) mod 196.
const bptcInterleave = 181

// BPTC196_96Decode extracts and checks the 96 payload data bits carried
// across a 33-byte DMR burst's two BPTC-protected info fields (the 98 bits
// either side of the embedded signalling/sync field), returning the 12
// payload data bytes. It does not correct bit errors: it reports false if
// any row or column fails its Hamming check.
func BPTC196_96Decode(burstBits []bool) (data [12]byte, ok bool) {
	if len(burstBits) < 264 {
		return data, false
	}

	var raw [196]bool
	copy(raw[0:98], burstBits[0:98])
	copy(raw[98:196], burstBits[166:264])

	var deint [196]bool
	for i := 1; i < 197; i++ {
		deint[i-1] = raw[(i*bptcInterleave)%196]
	}

	for col := 0; col < 15; col++ {
		var col13 [13]bool
		for row := 0; row < 13; row++ {
			col13[row] = deint[row*15+col]
		}
		if !Hamming13_9_3Decode(col13[:]) {
			return data, false
		}
		for row := 0; row < 13; row++ {
			deint[row*15+col] = col13[row]
		}
	}

	for row := 0; row < 9; row++ {
		var row15 [15]bool
		for col := 0; col < 15; col++ {
			row15[col] = deint[row*15+col]
		}
		if !Hamming15_11_3Decode(row15[:]) {
			return data, false
		}
		for col := 0; col < 11; col++ {
			deint[row*15+col] = row15[col]
		}
	}

	var dataBits [96]bool
	i := 0
	for col := 3; col < 11; col++ {
		dataBits[i] = deint[col]
		i++
	}
	for row := 1; row < 9; row++ {
		for col := 0; col < 11; col++ {
			dataBits[i] = deint[row*15+col]
			i++
		}
	}

	bitutil.BitsToBytes(dataBits[:], data[:])
	return data, true
}

// BPTC196_96Encode is the inverse of BPTC196_96Decode: it protects 12 data
// bytes with Hamming(15,11,3) rows then Hamming(13,9,3) columns and
// interleaves the result into 264 bits suitable for splicing into a burst's
// two info fields (bits [0:98) and [166:264)).
func BPTC196_96Encode(data [12]byte) []bool {
	var dataBits [96]bool
	bitutil.BytesToBits(data[:], dataBits[:])

	var deint [196]bool
	i := 0
	for row := 0; row < 9; row++ {
		var hc [15]bool
		if row == 0 {
			for col := 3; col < 11; col++ {
				hc[col] = dataBits[i]
				deint[col] = dataBits[i]
				i++
			}
		} else {
			for col := 0; col < 11; col++ {
				hc[col] = dataBits[i]
				deint[row*15+col] = dataBits[i]
				i++
			}
		}
		Hamming15_11_3Encode(hc[:])
		for col := 11; col < 15; col++ {
			deint[row*15+col] = hc[col]
		}
	}

	for col := 0; col < 15; col++ {
		var hc [13]bool
		for row := 0; row < 9; row++ {
			hc[row] = deint[row*15+col]
		}
		Hamming13_9_3Encode(hc[:])
		deint[col+135] = hc[9]
		deint[col+135+15] = hc[10]
		deint[col+135+30] = hc[11]
		deint[col+135+45] = hc[12]
	}

	var raw [196]bool
	for i := 1; i < 197; i++ {
		raw[(i*bptcInterleave)%196] = deint[i-1]
	}

	out := make([]bool, 264)
	copy(out[0:98], raw[0:98])
	copy(out[166:264], raw[98:196])
	return out
}
