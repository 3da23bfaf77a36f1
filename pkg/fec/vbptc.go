package fec

// vbptcHammingGenerator is the Hamming(16,11) generator/syndrome table used
// by VBPTC(16,11) multi-burst protection: rows 0-10 give the error-vector
// pattern produced by a single bit error in each data column, rows 11-15
// give the pattern for an error in each of the 5 checksum columns. Taken
// verbatim from the reference vbptc_16_11.c table.
var vbptcHammingGenerator = [16][5]bool{
	{true, false, false, true, true},
	{true, true, false, true, false},
	{true, true, true, true, true},
	{true, true, true, false, false},
	{false, true, true, true, false},
	{true, false, true, false, true},
	{false, true, false, true, true},
	{true, false, true, true, false},
	{true, true, false, false, true},
	{false, true, true, false, true},
	{false, false, true, true, true},
	{true, false, false, false, false},
	{false, true, false, false, false},
	{false, false, true, false, false},
	{false, false, false, true, false},
	{false, false, false, false, true},
}

// Matrix is a VBPTC(16,11) interleaving matrix: a variable number of rows
// of 16 bits, where the last row holds column parity and each other row is
// an 11-bit payload plus 5 Hamming(16,11) check bits. It accumulates bits
// written by Add across bursts before CheckAndRepair validates the whole
// block.
type Matrix struct {
	rows int
	bits []bool // rows*16
	row  int
	col  int
}

// NewMatrix allocates a VBPTC(16,11) matrix with the given row count (the
// last row is always the parity row).
func NewMatrix(rows int) *Matrix {
	return &Matrix{rows: rows, bits: make([]bool, rows*16)}
}

// Wipe clears the matrix and resets the write cursor.
func (m *Matrix) Wipe() {
	for i := range m.bits {
		m.bits[i] = false
	}
	m.row, m.col = 0, 0
}

func (m *Matrix) freeSpace() int {
	return m.rows*16 - (m.col*m.rows + m.row)
}

// Add appends bits to the matrix column-major (filling row 0..rows-1 of
// column 0, then column 1, ...), matching the reference's burst-by-burst
// fill order. It silently truncates once the matrix is full.
func (m *Matrix) Add(bits []bool) {
	space := m.freeSpace()
	n := len(bits)
	if n > space {
		n = space
	}
	for i := 0; i < n; i++ {
		m.bits[m.col+m.row*16] = bits[i]
		m.row++
		if m.row == m.rows {
			m.row = 0
			m.col++
		}
	}
}

// GetFragment reads up to len bits column-major starting at the given bit
// offset, the inverse of Add's fill order.
func (m *Matrix) GetFragment(offset, length int) []bool {
	out := make([]bool, 0, length)
	pos := 0
	for col := 0; col < 16 && len(out) < length; col++ {
		for row := 0; row < m.rows && len(out) < length; row++ {
			if pos < offset {
				pos++
				continue
			}
			out = append(out, m.bits[row*16+col])
		}
	}
	return out
}

func parityBits(row []bool) [5]bool {
	return [5]bool{
		row[0] != row[1] != row[2] != row[3] != row[5] != row[7] != row[8],
		row[1] != row[2] != row[3] != row[4] != row[6] != row[8] != row[9],
		row[2] != row[3] != row[4] != row[5] != row[7] != row[9] != row[10],
		row[0] != row[1] != row[2] != row[4] != row[6] != row[7] != row[10],
		row[0] != row[2] != row[5] != row[6] != row[8] != row[9] != row[10],
	}
}

func checkRow(row []bool) (ok bool, errVec [5]bool) {
	p := parityBits(row)
	ok = true
	for i := 0; i < 5; i++ {
		errVec[i] = p[i] != row[11+i]
		if errVec[i] {
			ok = false
		}
	}
	return ok, errVec
}

func errorPosition(errVec [5]bool) int {
	for row := 0; row < 16; row++ {
		if vbptcHammingGenerator[row] == errVec {
			return row
		}
	}
	return -1
}

// CheckAndRepair validates each data row's Hamming(16,11) parity and the
// matrix's column parity row, flipping a single erroneous bit per row when
// the error-vector table identifies one. It reports whether the whole
// matrix is now consistent.
func (m *Matrix) CheckAndRepair() bool {
	if m.rows < 2 {
		return false
	}
	ok := true
	for row := 0; row < m.rows-1; row++ {
		r := m.bits[row*16 : row*16+16]
		good, errVec := checkRow(r)
		if good {
			continue
		}
		pos := errorPosition(errVec)
		if pos < 0 {
			ok = false
			continue
		}
		r[pos] = !r[pos]
		if good2, _ := checkRow(r); !good2 {
			ok = false
		}
	}

	for col := 0; col < 16; col++ {
		var parity bool
		for row := 0; row < m.rows-1; row++ {
			parity = parity != m.bits[row*16+col]
		}
		if parity != m.bits[(m.rows-1)*16+col] {
			return false
		}
	}
	return ok
}

// Decode extracts the 11-bit payload of each non-parity row into a flat bit
// slice.
func (m *Matrix) Decode() []bool {
	out := make([]bool, 0, (m.rows-1)*11)
	for row := 0; row < m.rows-1; row++ {
		out = append(out, m.bits[row*16:row*16+11]...)
	}
	return out
}

// Encode wipes the matrix, writes bits (11 per row) into the data rows,
// computes each row's Hamming(16,11) parity and the matrix's column
// parity.
func (m *Matrix) Encode(bits []bool) {
	m.Wipe()
	for col := 0; col < len(bits) && col < (m.rows-1)*11; col++ {
		row := col / 11
		c := col % 11
		m.bits[row*16+c] = bits[col]
	}
	for row := 0; row < m.rows-1; row++ {
		r := m.bits[row*16 : row*16+16]
		p := parityBits(r)
		copy(r[11:16], p[:])
	}
	for col := 0; col < 16; col++ {
		var parity bool
		for row := 0; row < m.rows-1; row++ {
			parity = parity != m.bits[row*16+col]
		}
		m.bits[(m.rows-1)*16+col] = parity
	}
}
