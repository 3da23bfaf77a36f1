package burst

import "github.com/dbehnke/dmrcore/pkg/fec"

// SlotType is the Golay(20,8)-protected color code + data type field
// carried in the center of every non-voice burst (ETSI Table E.1: transmit
// bit order for BPTC general data burst with sync).
type SlotType struct {
	ColorCode uint8
	DataType  DataType
}

// SlotType decodes and Golay(20,8)-corrects the burst's slot type field.
func (b *Burst) SlotType() SlotType {
	var bytes [3]byte
	bytes[0] = (b.raw[12] << 2) & 0xfc
	bytes[0] |= (b.raw[13] >> 6) & 0x03
	bytes[1] = (b.raw[13] << 2) & 0xc0
	bytes[1] |= (b.raw[19] << 2) & 0x3c
	bytes[1] |= (b.raw[20] >> 6) & 0x03
	bytes[2] = (b.raw[20] << 2) & 0xf0

	code := fec.Golay20_8Decode(bytes)
	return SlotType{
		ColorCode: (code & 0xf0) >> 4,
		DataType:  DataType(code & 0x0f),
	}
}

// SetSlotType Golay(20,8)-encodes and writes the color code and data type
// into the burst, OR-merging into the bytes it shares with the sync field.
// It rejects a color code outside [1,15] or an invalid data type, matching
// the reference encoder's validation.
func (b *Burst) SetSlotType(st SlotType) bool {
	if st.ColorCode < 1 || st.ColorCode > 15 || st.DataType >= DataTypeInvalid {
		return false
	}

	var bytes [3]byte
	bytes[0] = (st.ColorCode << 4) | (uint8(st.DataType) & 0x0f)
	fec.Golay20_8Encode(&bytes)

	b.raw[12] = (b.raw[12] & 0xc0) | ((bytes[0] >> 2) & 0x3f)
	b.raw[13] = (b.raw[13] & 0x0f) | ((bytes[0] << 6) & 0xc0) | ((bytes[1] >> 2) & 0x30)
	b.raw[19] = (b.raw[19] & 0xf0) | ((bytes[1] >> 2) & 0x0f)
	b.raw[20] = (b.raw[20] & 0x03) | ((bytes[1] << 6) & 0xc0) | ((bytes[2] >> 2) & 0x3c)
	return true
}
