package burst

import (
	"github.com/dbehnke/dmrcore/pkg/bitutil"
	"github.com/dbehnke/dmrcore/pkg/crc"
	"github.com/dbehnke/dmrcore/pkg/fec"
)

// DPF is the Data Packet Format field (ETSI Table 9.30).
type DPF uint8

const (
	DPFUDT           DPF = 0x00
	DPFResponse      DPF = 0x01
	DPFUnconfirmed   DPF = 0x02
	DPFConfirmed     DPF = 0x03
	DPFDefinedShort  DPF = 0x0d
	DPFRawShort      DPF = 0x0e
	DPFProprietary   DPF = 0x0f
)

// SAP is the Service Access Point ID field (ETSI Table 9.31).
type SAP uint8

const (
	SAPUDT                  SAP = 0x00
	SAPTCPIPHeaderCompress  SAP = 0x02
	SAPUDPIPHeaderCompress  SAP = 0x03
	SAPIPBasedPacketData    SAP = 0x04
	SAPARP                  SAP = 0x05
	SAPProprietaryData      SAP = 0x09
	SAPShortData            SAP = 0x0a
)

// DataHeader is the common part of a DMR data header: its 10 field bytes
// followed by a CRC-16 of those 10 make the 12-byte body that is
// BPTC(196,96)-carried, matching the reference dmr_data_header_t's
// wire layout for the formats this core implements (unconfirmed and
// confirmed).
type DataHeader struct {
	DPF                DPF
	SAP                SAP
	Group              bool
	ResponseRequested  bool
	HeaderCompression  bool
	DstID              uint32
	SrcID              uint32
	BlocksToFollow     uint8
	FullMessage        bool
	Confirmed          bool
	SendSeq            uint8
	FragmentSeq        uint8
}

func (h DataHeader) pack() [10]byte {
	var b [10]byte
	b[0] = uint8(h.DPF) & 0x0f
	if h.Group {
		b[0] |= 0x20
	}
	if h.ResponseRequested {
		b[0] |= 0x40
	}
	if h.HeaderCompression {
		b[0] |= 0x80
	}
	b[1] = uint8(h.SAP) & 0x0f
	b[2] = byte(h.DstID >> 16)
	b[3] = byte(h.DstID >> 8)
	b[4] = byte(h.DstID)
	b[5] = byte(h.SrcID >> 16)
	b[6] = byte(h.SrcID >> 8)
	b[7] = byte(h.SrcID)
	b[8] = h.BlocksToFollow
	b[9] = h.FragmentSeq & 0x7f
	if h.FullMessage {
		b[9] |= 0x80
	}
	return b
}

func unpackDataHeader(b [10]byte) DataHeader {
	return DataHeader{
		DPF:               DPF(b[0] & 0x0f),
		Group:             b[0]&0x20 != 0,
		ResponseRequested: b[0]&0x40 != 0,
		HeaderCompression: b[0]&0x80 != 0,
		SAP:               SAP(b[1] & 0x0f),
		DstID:             uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4]),
		SrcID:             uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7]),
		BlocksToFollow:    b[8],
		FragmentSeq:       b[9] & 0x7f,
		FullMessage:       b[9]&0x80 != 0,
	}
}

// SetDataHeader BPTC(196,96)-interleaves the 12-byte header body (10 bytes
// of fields plus a CRC-16) into the burst's information fields.
func (b *Burst) SetDataHeader(h DataHeader) {
	body := h.pack()
	sum := crc.DataHeaderCRC(body)

	var bytesArr [12]byte
	copy(bytesArr[:10], body[:])
	bytesArr[10] = byte(sum >> 8)
	bytesArr[11] = byte(sum)

	bits := fec.BPTC196_96Encode(bytesArr)
	all := b.Bits()
	copy(all[0:98], bits[0:98])
	copy(all[166:264], bits[166:264])
	b.setBits(all)
}

// DataHeader extracts, BPTC(196,96)-decodes and CRC-16-verifies the
// burst's data header.
func (b *Burst) DataHeader() (DataHeader, bool) {
	data, ok := fec.BPTC196_96Decode(b.Bits())
	if !ok {
		return DataHeader{}, false
	}
	var body [10]byte
	copy(body[:], data[:10])
	want := crc.DataHeaderCRC(body)
	got := uint16(data[10])<<8 | uint16(data[11])
	if want != got {
		return DataHeader{}, false
	}
	return unpackDataHeader(body), true
}

// DataBlockSize returns the payload size in bytes of one data block at the
// given rate, confirmed or unconfirmed (ETSI Table 8.2/8.3): confirmed
// blocks reserve 2 extra bytes for the serial number and CRC.
func DataBlockSize(rate int, confirmed bool) uint8 {
	switch rate {
	case 1:
		if confirmed {
			return 22
		}
		return 24
	case 12:
		if confirmed {
			return 10
		}
		return 12
	case 34:
		if confirmed {
			return 16
		}
		return 18
	default:
		return 0
	}
}

// DataBlock is one rate-1/2 or rate-3/4 data block; confirmed blocks carry
// a serial number and CRC-9 over the payload.
type DataBlock struct {
	Serial uint8
	Data   []byte
	OK     bool
}

// dataBlockCRC computes the CRC-9 of a confirmed data block's serial
// number followed by its payload.
func dataBlockCRC(serial uint8, payload []byte) uint16 {
	c := crc.NewCRC9()
	c.Update(serial, 8)
	for _, b := range payload {
		c.Update(b, 8)
	}
	return c.Finish(0) & 0x1ff
}

// DecodeDataBlock validates a confirmed data block's serial+CRC-9 trailer
// against its payload, or passes unconfirmed payload through unchecked.
func DecodeDataBlock(raw []byte, confirmed bool) DataBlock {
	if !confirmed {
		return DataBlock{Data: raw, OK: true}
	}
	if len(raw) < 2 {
		return DataBlock{Data: raw, OK: false}
	}
	payload := raw[:len(raw)-2]
	serial := raw[len(raw)-2] >> 1
	received := (uint16(raw[len(raw)-2]&0x01) << 8) | uint16(raw[len(raw)-1])

	sum := dataBlockCRC(serial, payload)
	return DataBlock{Serial: serial, Data: payload, OK: sum == received}
}

// EncodeDataBlock appends a serial number and CRC-9 trailer to payload for
// a confirmed data block, or returns payload unchanged if unconfirmed.
func EncodeDataBlock(serial uint8, payload []byte, confirmed bool) []byte {
	if !confirmed {
		return payload
	}
	sum := dataBlockCRC(serial, payload)
	out := make([]byte, 0, len(payload)+2)
	out = append(out, payload...)
	out = append(out, serial<<1|byte(sum>>8), byte(sum))
	return out
}

// bitsToDataBlockBytes is a convenience for callers holding a BPTC-free
// rate-1 data block as raw bits.
func bitsToDataBlockBytes(bits []bool) []byte {
	return bitutil.PackBits(bits)
}
