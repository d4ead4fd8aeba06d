package dhcp6

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"github.com/veesix-networks/dhcpkit/pkg/option"
)

func testSolicit() *Packet {
	p := New(Solicit, TransactionID{0x01, 0x02, 0x03})
	p.AddOption(option.New(option.V6, option.Opt6ClientID, []byte{0x00, 0x01, 0xde, 0xad}))
	p.AddOption(option.New(option.V6, option.Opt6ElapsedTime, []byte{0x00, 0x00}))
	return p
}

// relayWrap encodes msg inside a RELAY-FORW envelope with the given hop
// metadata and extra relay options placed around the relay-msg option.
func relayWrap(t *testing.T, msg []byte, hop uint8, link, peer net.IP, before, after []*option.Option) []byte {
	t.Helper()
	var out []byte
	out = append(out, uint8(RelayForward), hop)
	out = append(out, link.To16()...)
	out = append(out, peer.To16()...)
	for _, o := range before {
		enc, err := o.Encode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, enc...)
	}
	enc, err := option.New(option.V6, option.Opt6RelayMsg, msg).Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out = append(out, enc...)
	for _, o := range after {
		enc, err := o.Encode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, enc...)
	}
	return out
}

func TestPackUnpack_RoundTrip(t *testing.T) {
	p := testSolicit()

	wire, err := p.Pack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q, err := Unpack(wire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.MsgType != Solicit {
		t.Errorf("expected SOLICIT, got %s", q.MsgType)
	}
	if q.TransactionID != p.TransactionID {
		t.Errorf("transaction id mismatch: %s != %s", q.TransactionID, p.TransactionID)
	}
	if !p.Options.Equal(q.Options) {
		t.Errorf("options mismatch")
	}
	if len(q.Relay) != 0 {
		t.Errorf("expected no relay chain, got %d hops", len(q.Relay))
	}
}

func TestUnpack_RelayChain(t *testing.T) {
	inner, err := testSolicit().Pack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Relay closest to the client wraps first...
	hop1 := relayWrap(t, inner, 0,
		net.ParseIP("2001:db8:1::1"), net.ParseIP("fe80::aaaa"),
		[]*option.Option{option.New(option.V6, option.Opt6InterfaceID, []byte("ge-0/0/1"))},
		nil)
	// ...then the relay closest to the server wraps that.
	hop2 := relayWrap(t, hop1, 1,
		net.ParseIP("2001:db8:2::1"), net.ParseIP("fe80::bbbb"),
		nil,
		[]*option.Option{option.New(option.V6, option.Opt6RemoteID, []byte{0x00, 0x01, 0xca, 0xfe})})

	p, err := Unpack(hop2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.MsgType != Solicit {
		t.Errorf("expected the inner SOLICIT, got %s", p.MsgType)
	}
	if len(p.Relay) != 2 {
		t.Fatalf("expected 2 relay hops, got %d", len(p.Relay))
	}

	// Relay[0] is the outermost envelope.
	outer := p.Relay[0]
	if outer.HopCount != 1 || !outer.LinkAddr.Equal(net.ParseIP("2001:db8:2::1")) {
		t.Errorf("unexpected outer hop %+v", outer)
	}
	if outer.Options.Get(option.Opt6RemoteID) == nil {
		t.Errorf("outer remote-id lost")
	}

	innerHop := p.Relay[1]
	if innerHop.HopCount != 0 || !innerHop.PeerAddr.Equal(net.ParseIP("fe80::aaaa")) {
		t.Errorf("unexpected inner hop %+v", innerHop)
	}
	if string(innerHop.InterfaceID()) != "ge-0/0/1" {
		t.Errorf("unexpected interface-id %q", innerHop.InterfaceID())
	}
}

func TestPack_RelayChainByteIdentical(t *testing.T) {
	inner, err := testSolicit().Pack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hop1 := relayWrap(t, inner, 0,
		net.ParseIP("2001:db8:1::1"), net.ParseIP("fe80::aaaa"),
		[]*option.Option{option.New(option.V6, option.Opt6InterfaceID, []byte("ge-0/0/1"))},
		[]*option.Option{option.New(option.V6, option.Opt6RemoteID, []byte{0xbe, 0xef})})
	hop2 := relayWrap(t, hop1, 1,
		net.ParseIP("2001:db8:2::1"), net.ParseIP("fe80::bbbb"), nil, nil)

	p, err := Unpack(hop2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repacked, err := p.Pack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(repacked, hop2) {
		t.Errorf("re-encoded relay chain differs from the received bytes")
	}
}

func TestUnpack_RelayDepthLimit(t *testing.T) {
	wire, err := testSolicit().Pack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i <= MaxRelayDepth; i++ {
		wire = relayWrap(t, wire, uint8(i), net.IPv6zero, net.IPv6zero, nil, nil)
	}

	_, err = Unpack(wire)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestUnpack_RelayWithoutRelayMsg(t *testing.T) {
	var wire []byte
	wire = append(wire, uint8(RelayForward), 0)
	wire = append(wire, net.IPv6zero.To16()...)
	wire = append(wire, net.IPv6zero.To16()...)

	_, err := Unpack(wire)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestUnpack_RelayDuplicateRelayMsg(t *testing.T) {
	inner, err := testSolicit().Pack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	extra := option.New(option.V6, option.Opt6RelayMsg, inner)
	wire := relayWrap(t, inner, 0, net.IPv6zero, net.IPv6zero, nil, []*option.Option{extra})

	_, err = Unpack(wire)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestUnpack_TruncatedRelayHeader(t *testing.T) {
	wire := make([]byte, RelayHeaderLen-1)
	wire[0] = uint8(RelayForward)

	_, err := Unpack(wire)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestNewReplyChain(t *testing.T) {
	inner, err := testSolicit().Pack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hop1 := relayWrap(t, inner, 0,
		net.ParseIP("2001:db8:1::1"), net.ParseIP("fe80::aaaa"),
		[]*option.Option{option.New(option.V6, option.Opt6InterfaceID, []byte("ge-0/0/1"))},
		nil)
	hop2 := relayWrap(t, hop1, 1,
		net.ParseIP("2001:db8:2::1"), net.ParseIP("fe80::bbbb"), nil, nil)

	req, err := Unpack(hop2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply := New(Reply, req.TransactionID)
	reply.AddOption(option.New(option.V6, option.Opt6ServerID, []byte{0x00, 0x01}))
	reply.Relay = req.NewReplyChain()

	wire, err := reply.Pack()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := Unpack(wire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if back.MsgType != Reply {
		t.Errorf("expected the inner REPLY, got %s", back.MsgType)
	}
	if len(back.Relay) != 2 {
		t.Fatalf("expected 2 relay hops, got %d", len(back.Relay))
	}
	for i, hop := range back.Relay {
		if hop.MsgType != RelayReply {
			t.Errorf("hop %d: expected RELAY-REPL, got %s", i, hop.MsgType)
		}
		if hop.HopCount != req.Relay[i].HopCount {
			t.Errorf("hop %d: hop count changed", i)
		}
		if !hop.LinkAddr.Equal(req.Relay[i].LinkAddr) || !hop.PeerAddr.Equal(req.Relay[i].PeerAddr) {
			t.Errorf("hop %d: addresses changed", i)
		}
	}
	if string(back.Relay[1].InterfaceID()) != "ge-0/0/1" {
		t.Errorf("interface-id not echoed at its originating level")
	}
}

func TestClientServerID(t *testing.T) {
	p := testSolicit()
	if !bytes.Equal(p.ClientID(), []byte{0x00, 0x01, 0xde, 0xad}) {
		t.Errorf("unexpected client id %x", p.ClientID())
	}
	if p.ServerID() != nil {
		t.Errorf("expected nil server id")
	}
}
