package option

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecode_V4(t *testing.T) {
	// Option 1 (subnet mask), length 4, 255.255.255.0
	payload := []byte{0x01, 0x04, 0xff, 0xff, 0xff, 0x00}

	o, n, err := Decode(V4, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6 bytes consumed, got %d", n)
	}
	if o.Code != Opt4SubnetMask {
		t.Errorf("expected code %d, got %d", Opt4SubnetMask, o.Code)
	}
	if !bytes.Equal(o.Data, []byte{0xff, 0xff, 0xff, 0x00}) {
		t.Errorf("unexpected data %x", o.Data)
	}
}

func TestDecode_V6(t *testing.T) {
	// Option 1 (client-id), length 4
	payload := []byte{0x00, 0x01, 0x00, 0x04, 0xde, 0xad, 0xbe, 0xef}

	o, n, err := Decode(V6, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 8 {
		t.Errorf("expected 8 bytes consumed, got %d", n)
	}
	if o.Code != Opt6ClientID {
		t.Errorf("expected code %d, got %d", Opt6ClientID, o.Code)
	}
	if !bytes.Equal(o.Data, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Errorf("unexpected data %x", o.Data)
	}
}

func TestDecode_TruncatedHeader(t *testing.T) {
	_, _, err := Decode(V6, []byte{0x00, 0x01, 0x00})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestDecode_LengthPastEnd(t *testing.T) {
	// Declares 10 bytes, carries 2.
	payload := []byte{0x0c, 0x0a, 'a', 'b'}

	_, _, err := Decode(V4, payload)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestDecode_RelayAgentInfoSubOptions(t *testing.T) {
	// Option 82 carrying circuit-id "ge-0" and remote-id 0xCAFE.
	payload := []byte{
		82, 12,
		0x01, 0x04, 'g', 'e', '-', '0', // circuit-id
		0x02, 0x04, 0xca, 0xfe, 0x00, 0x01, // remote-id
	}

	o, _, err := Decode(V4, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Sub) != 2 {
		t.Fatalf("expected 2 sub-options, got %d", len(o.Sub))
	}
	cid := o.GetSub(RAICircuitID)
	if cid == nil || string(cid.Data) != "ge-0" {
		t.Errorf("unexpected circuit-id %v", cid)
	}
	rid := o.GetSub(RAIRemoteID)
	if rid == nil || !bytes.Equal(rid.Data, []byte{0xca, 0xfe, 0x00, 0x01}) {
		t.Errorf("unexpected remote-id %v", rid)
	}
}

func TestDecode_VendorSpecificSubOptions(t *testing.T) {
	// Option 43 carrying one vendor sub-option, code 1, 2 bytes.
	payload := []byte{43, 4, 0x01, 0x02, 0xbe, 0xef}

	o, _, err := Decode(V4, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Sub) != 1 {
		t.Fatalf("expected 1 sub-option, got %d", len(o.Sub))
	}
	if !bytes.Equal(o.Sub[0].Data, []byte{0xbe, 0xef}) {
		t.Errorf("unexpected sub-option data %x", o.Sub[0].Data)
	}
}

func TestDecode_SubOptionFailureFailsOption(t *testing.T) {
	// Option 82 whose nested option declares more bytes than remain.
	payload := []byte{
		82, 4,
		0x01, 0x0a, 'g', 'e', // circuit-id declares 10 bytes, has 2
	}

	_, _, err := Decode(V4, payload)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	o := New(V4, Opt4RelayAgentInfo, nil)
	o.AddSub(New(V4, RAICircuitID, []byte("eth0")))
	o.AddSub(New(V4, RAIRemoteID, []byte{0x00, 0x01}))

	encoded, err := o.Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, n, err := Decode(V4, encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(encoded) {
		t.Errorf("expected %d bytes consumed, got %d", len(encoded), n)
	}
	if !o.Equal(decoded) {
		t.Errorf("round trip mismatch: %v != %v", o, decoded)
	}
}

func TestEncode_V6RoundTrip(t *testing.T) {
	// IA_NA with IAID/T1/T2 prefix and one nested IAADDR.
	addr := New(V6, Opt6IAAddr, append(
		bytes.Repeat([]byte{0x20, 0x01}, 8), // address
		0x00, 0x00, 0x0e, 0x10, // preferred
		0x00, 0x00, 0x1c, 0x20, // valid
	))
	ia := New(V6, Opt6IANA, []byte{
		0x00, 0x00, 0x00, 0x01, // IAID
		0x00, 0x00, 0x00, 0x3c, // T1
		0x00, 0x00, 0x00, 0x78, // T2
	})
	ia.AddSub(addr)

	encoded, err := ia.Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, _, err := Decode(V6, encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ia.Equal(decoded) {
		t.Errorf("round trip mismatch")
	}
	if decoded.GetSub(Opt6IAAddr) == nil {
		t.Errorf("expected nested IAADDR to survive the round trip")
	}
}

func TestEncode_V4Overflow(t *testing.T) {
	o := New(V4, Opt4Message, make([]byte, 300))

	_, err := o.Encode()
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestSplit(t *testing.T) {
	o := New(V4, Opt4Message, make([]byte, 600))

	parts := o.Split()
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if len(parts[0].Data) != 255 || len(parts[1].Data) != 255 || len(parts[2].Data) != 90 {
		t.Errorf("unexpected part sizes %d/%d/%d",
			len(parts[0].Data), len(parts[1].Data), len(parts[2].Data))
	}
	for _, part := range parts {
		if part.Code != o.Code {
			t.Errorf("expected code %d on every part, got %d", o.Code, part.Code)
		}
	}
}

func TestSplit_FitsUnchanged(t *testing.T) {
	o := New(V4, Opt4Hostname, []byte("cpe-1"))

	parts := o.Split()
	if len(parts) != 1 || parts[0] != o {
		t.Errorf("expected the option back untouched")
	}
}

func TestLen(t *testing.T) {
	o := New(V6, Opt6IANA, make([]byte, 12))
	o.AddSub(New(V6, Opt6IAAddr, make([]byte, 24)))

	// 4 header + 12 data + (4 + 24) nested
	if o.Len() != 44 {
		t.Errorf("expected length 44, got %d", o.Len())
	}
}
