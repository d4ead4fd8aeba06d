package dhcp6

import (
	"bytes"
	"net"
	"testing"
	"time"
)

var testHW = net.HardwareAddr{0x02, 0x00, 0x5e, 0x10, 0x00, 0x01}

func TestNewDUIDLL(t *testing.T) {
	duid := NewDUIDLL(1, testHW)

	// type 3, hw type 1, then the address
	want := append([]byte{0x00, 0x03, 0x00, 0x01}, testHW...)
	if !bytes.Equal(duid, want) {
		t.Errorf("unexpected DUID %x", duid)
	}

	dt, err := DUIDTypeOf(duid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dt != DUIDLL {
		t.Errorf("expected DUID-LL, got %s", dt)
	}
}

func TestNewDUIDLLT(t *testing.T) {
	// One hour past the 2000-01-01 epoch.
	now := time.Date(2000, time.January, 1, 1, 0, 0, 0, time.UTC)
	duid := NewDUIDLLT(1, testHW, now)

	want := append([]byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x0e, 0x10}, testHW...)
	if !bytes.Equal(duid, want) {
		t.Errorf("unexpected DUID %x", duid)
	}
}

func TestNewDUIDEN(t *testing.T) {
	duid := NewDUIDEN(4491, []byte{0xca, 0xfe})

	want := []byte{0x00, 0x02, 0x00, 0x00, 0x11, 0x8b, 0xca, 0xfe}
	if !bytes.Equal(duid, want) {
		t.Errorf("unexpected DUID %x", duid)
	}
}

func TestNewDUIDUUID(t *testing.T) {
	duid := NewDUIDUUID()
	if len(duid) != 18 {
		t.Fatalf("expected 18 bytes, got %d", len(duid))
	}
	dt, err := DUIDTypeOf(duid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dt != DUIDUUID {
		t.Errorf("expected DUID-UUID, got %s", dt)
	}
}

func TestDUIDTypeOf_Short(t *testing.T) {
	if _, err := DUIDTypeOf([]byte{0x00}); err == nil {
		t.Fatalf("expected an error for a 1-byte DUID")
	}
}
