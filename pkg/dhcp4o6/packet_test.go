package dhcp4o6

import (
	"errors"
	"net"
	"testing"

	"github.com/veesix-networks/dhcpkit/pkg/dhcp4"
	"github.com/veesix-networks/dhcpkit/pkg/dhcp6"
	"github.com/veesix-networks/dhcpkit/pkg/option"
)

func testInner(t *testing.T) *dhcp4.Packet {
	t.Helper()
	p := dhcp4.New(0x1234, net.HardwareAddr{0x02, 0x00, 0x5e, 0x10, 0x00, 0x01})
	p.SetMessageType(dhcp4.Discover)
	return p
}

func TestWrapAndExtract(t *testing.T) {
	p := Wrap(testInner(t), dhcp6.DHCPv4Query)
	if !p.DHCP4o6 {
		t.Errorf("wrapped packet must carry the composite tag")
	}

	wire, err := p.Pack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	carrier, err := dhcp6.Unpack(wire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if carrier.MsgType != dhcp6.DHCPv4Query {
		t.Errorf("expected DHCPV4-QUERY, got %s", carrier.MsgType)
	}

	extracted, err := FromDHCP6(carrier)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if extracted.XID != 0x1234 {
		t.Errorf("unexpected xid 0x%x", extracted.XID)
	}
	if extracted.MessageType() != dhcp4.Discover {
		t.Errorf("expected DHCPDISCOVER, got %s", extracted.MessageType())
	}
	if !extracted.DHCP4o6 {
		t.Errorf("extracted packet must carry the composite tag")
	}
	if extracted.Carrier != carrier {
		t.Errorf("carrier reference lost")
	}
}

func TestFromDHCP6_WrongEnvelopeType(t *testing.T) {
	carrier := dhcp6.New(dhcp6.Solicit, dhcp6.TransactionID{})

	_, err := FromDHCP6(carrier)
	if !errors.Is(err, ErrNotDHCP4o6) {
		t.Fatalf("expected ErrNotDHCP4o6, got %v", err)
	}
}

func TestFromDHCP6_MissingOption(t *testing.T) {
	carrier := dhcp6.New(dhcp6.DHCPv4Query, dhcp6.TransactionID{})

	_, err := FromDHCP6(carrier)
	if !errors.Is(err, ErrNotDHCP4o6) {
		t.Fatalf("expected ErrNotDHCP4o6, got %v", err)
	}
}

func TestPack_ReplacesStaleEmbedding(t *testing.T) {
	p := Wrap(testInner(t), dhcp6.DHCPv4Query)
	if _, err := p.Pack(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Modify the inner message and pack again; the carrier must hold the
	// fresh payload, once.
	p.SetMessageType(dhcp4.Request)
	wire, err := p.Pack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	carrier, err := dhcp6.Unpack(wire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(carrier.Options.GetAll(option.Opt6DHCPv4Msg)); got != 1 {
		t.Fatalf("expected exactly 1 embedded message, got %d", got)
	}
	extracted, err := FromDHCP6(carrier)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if extracted.MessageType() != dhcp4.Request {
		t.Errorf("expected the updated DHCPREQUEST, got %s", extracted.MessageType())
	}
}
