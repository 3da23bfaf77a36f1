package fec

import "testing"

func TestHammingFamilyRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		n, k   int
		encode func([]bool)
		decode func([]bool) bool
	}{
		{"7_4_3", 7, 4, Hamming7_4_3Encode, Hamming7_4_3Decode},
		{"13_9_3", 13, 9, Hamming13_9_3Encode, Hamming13_9_3Decode},
		{"15_11_3", 15, 11, Hamming15_11_3Encode, Hamming15_11_3Decode},
		{"16_11_4", 16, 11, Hamming16_11_4Encode, Hamming16_11_4Decode},
		{"17_12_3", 17, 12, Hamming17_12_3Encode, Hamming17_12_3Decode},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := make([]bool, c.n)
			for i := 0; i < c.k; i++ {
				d[i] = i%3 == 0
			}
			c.encode(d)
			if !c.decode(d) {
				t.Fatalf("Hamming(%s): clean codeword failed parity check", c.name)
			}
		})

		t.Run(c.name+"/single_bit_error_detected", func(t *testing.T) {
			for flip := 0; flip < c.n; flip++ {
				d := make([]bool, c.n)
				for i := 0; i < c.k; i++ {
					d[i] = i%3 == 0
				}
				c.encode(d)
				d[flip] = !d[flip]
				if c.decode(d) {
					t.Fatalf("Hamming(%s): bit %d flipped but parity check still passed", c.name, flip)
				}
			}
		})
	}
}

func TestBPTC196_96RoundTrip(t *testing.T) {
	var data [12]byte
	for i := range data {
		data[i] = byte(i*17 + 3)
	}
	bits := BPTC196_96Encode(data)
	got, ok := BPTC196_96Decode(bits)
	if !ok {
		t.Fatal("BPTC(196,96): decode reported failure on clean data")
	}
	if got != data {
		t.Fatalf("BPTC(196,96): round trip mismatch: got %x want %x", got, data)
	}
}

func TestTrellisRate34RoundTrip(t *testing.T) {
	var data [18]byte
	for i := range data {
		data[i] = byte(i*29 + 1)
	}
	bits := TrellisRate34Encode(data)
	got, ok := TrellisRate34Decode(bits)
	if !ok {
		t.Fatal("Trellis-3/4: decode reported failure on clean data")
	}
	if got != data {
		t.Fatalf("Trellis-3/4: round trip mismatch: got %x want %x", got, data)
	}
}

func TestGolay20_8RoundTrip(t *testing.T) {
	for v := 0; v < 256; v++ {
		var buf [3]byte
		buf[0] = byte(v)
		Golay20_8Encode(&buf)
		got := Golay20_8Decode(buf)
		if got != byte(v) {
			t.Fatalf("Golay(20,8): round trip failed for %#02x: got %#02x", v, got)
		}
	}
}

func TestQR1676RoundTrip(t *testing.T) {
	for v := 0; v < 128; v += 2 {
		var buf [2]byte
		buf[0] = byte(v) << 1
		QR1676Encode(&buf)
		if !QR1676Decode(buf) {
			t.Fatalf("QR(16,7,6): clean codeword rejected for %#02x", v)
		}
	}
}

func TestQR1676CorrectsAndRejects(t *testing.T) {
	var clean [2]byte
	clean[0] = 42 << 1
	QR1676Encode(&clean)

	// Within the 2-bit correction radius: still accepted.
	within := clean
	within[0] ^= 0x02
	if !QR1676Decode(within) {
		t.Fatal("QR(16,7,6): single-bit error rejected, expected correction within radius")
	}

	// A 3-bit error: QR(16,7,6)'s minimum codeword weight of 6 means no
	// codeword (including the original) can lie within the 2-bit radius
	// of a word 3 bits away from a valid one, so this must be rejected.
	beyond := clean
	beyond[0] ^= 0x02
	beyond[1] ^= 0x03
	if QR1676Decode(beyond) {
		t.Fatal("QR(16,7,6): codeword corrupted past the correction radius was accepted")
	}
}

func TestRS12_9_4RoundTrip(t *testing.T) {
	var bytesArr [12]byte
	for i := 0; i < 9; i++ {
		bytesArr[i] = byte(i*13+5) & 0x3f
	}
	const crcMask = 0x0a
	RS12_9_4Encode(&bytesArr, crcMask)
	if !RS12_9_4Decode(&bytesArr, crcMask) {
		t.Fatal("RS(12,9,4): clean header failed verification")
	}

	bytesArr[2] ^= 0x15 // corrupt one data symbol
	if !RS12_9_4Decode(&bytesArr, crcMask) {
		t.Fatal("RS(12,9,4): single-symbol error was not corrected")
	}
}

func TestVBPTCMatrixRoundTrip(t *testing.T) {
	const payloadRows = 8
	m := NewMatrix(payloadRows + 1)
	bits := make([]bool, payloadRows*11)
	for i := range bits {
		bits[i] = i%5 == 0
	}
	m.Encode(bits)
	if !m.CheckAndRepair() {
		t.Fatal("VBPTC(16,11): clean matrix failed check")
	}
	got := m.Decode()
	for i := range bits {
		if got[i] != bits[i] {
			t.Fatalf("VBPTC(16,11): bit %d mismatch: got %v want %v", i, got[i], bits[i])
		}
	}
}
