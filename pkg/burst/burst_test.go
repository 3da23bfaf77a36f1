package burst

import "testing"

func TestSyncRoundTrip(t *testing.T) {
	b := New()
	if !b.SetSync(SyncBSSourcedVoice) {
		t.Fatal("SetSync rejected a known pattern")
	}
	if got := b.Sync(); got != SyncBSSourcedVoice {
		t.Fatalf("Sync round trip mismatch: got %s want %s", got, SyncBSSourcedVoice)
	}
}

func TestSlotTypeRoundTrip(t *testing.T) {
	b := New()
	st := SlotType{ColorCode: 3, DataType: DataTypeVoiceLC}
	if !b.SetSlotType(st) {
		t.Fatal("SetSlotType rejected a valid slot type")
	}
	got := b.SlotType()
	if got.ColorCode != st.ColorCode || got.DataType != st.DataType {
		t.Fatalf("slot type round trip mismatch: got %+v want %+v", got, st)
	}
}

func TestSlotTypeRejectsInvalidColorCode(t *testing.T) {
	b := New()
	if b.SetSlotType(SlotType{ColorCode: 0, DataType: DataTypeVoiceLC}) {
		t.Fatal("expected color code 0 to be rejected")
	}
}

func TestFullLCRoundTrip(t *testing.T) {
	b := New()
	lc := FullLC{
		FLCO:           FLCOGroupVoiceChannelUser,
		FID:            0,
		ServiceOptions: 0,
		DstID:          0x123456,
		SrcID:          0x654321,
	}
	b.SetFullLC(lc, CRCMaskVoiceLC)
	got, ok := b.FullLC(CRCMaskVoiceLC)
	if !ok {
		t.Fatal("FullLC decode reported failure on clean burst")
	}
	if got != lc {
		t.Fatalf("FullLC round trip mismatch: got %+v want %+v", got, lc)
	}
}

func TestDataHeaderRoundTrip(t *testing.T) {
	b := New()
	h := DataHeader{
		DPF:            DPFConfirmed,
		SAP:            SAPIPBasedPacketData,
		Group:          true,
		DstID:          0xabcdef,
		SrcID:          0x112233,
		BlocksToFollow: 5,
		FullMessage:    true,
		FragmentSeq:    2,
	}
	b.SetDataHeader(h)
	got, ok := b.DataHeader()
	if !ok {
		t.Fatal("DataHeader decode reported failure on clean burst")
	}
	if got != h {
		t.Fatalf("DataHeader round trip mismatch: got %+v want %+v", got, h)
	}
}

func TestDecodeDataBlockConfirmed(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	serial := uint8(5)

	c := dataBlockCRC(serial, payload)
	raw := append(append([]byte{}, payload...), serial<<1|byte(c>>8), byte(c))

	blk := DecodeDataBlock(raw, true)
	if !blk.OK {
		t.Fatal("confirmed data block failed CRC-9 verification")
	}
	if blk.Serial != serial {
		t.Fatalf("serial mismatch: got %d want %d", blk.Serial, serial)
	}
}

func TestEmbRoundTrip(t *testing.T) {
	b := New()
	e := EMB{ColorCode: 7, PI: true, LCSS: LCSSFirstFragment}
	b.SetEmb(e)
	got, ok := b.Emb()
	if !ok {
		t.Fatal("EMB decode failed on a freshly encoded, uncorrupted burst")
	}
	if got != e {
		t.Fatalf("EMB round trip mismatch: got %+v want %+v", got, e)
	}
}

func TestEmbRejectsCorruptedCodeword(t *testing.T) {
	b := New()
	b.SetEmb(EMB{ColorCode: 7, PI: true, LCSS: LCSSFirstFragment})

	// Flip more bits than the QR(16,7,6) code's 2-bit correction radius
	// can tolerate.
	b.raw[13] ^= 0x0f
	b.raw[14] ^= 0xf0
	b.raw[18] ^= 0x0f

	if _, ok := b.Emb(); ok {
		t.Fatal("expected Emb to reject a codeword corrupted past the correction radius")
	}
}
