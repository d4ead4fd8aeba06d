// Package dhcp4o6 implements the DHCPv4-over-DHCPv6 composite (RFC 7341): a
// DHCPv4 message carried in the DHCPV4_MSG option of a DHCPv6 envelope.
package dhcp4o6

import (
	"errors"
	"fmt"

	"github.com/veesix-networks/dhcpkit/pkg/dhcp4"
	"github.com/veesix-networks/dhcpkit/pkg/dhcp6"
	"github.com/veesix-networks/dhcpkit/pkg/option"
)

var ErrNotDHCP4o6 = errors.New("not a DHCPv4-over-DHCPv6 message")

// Packet behaves as a DHCPv4 packet for header and option access while
// keeping a non-owning reference to the DHCPv6 envelope that carried it. The
// envelope's lifetime is managed by whoever decoded it.
type Packet struct {
	*dhcp4.Packet
	Carrier *dhcp6.Packet
}

// FromDHCP6 extracts the embedded DHCPv4 message from a DHCPV4-QUERY or
// DHCPV4-RESPONSE envelope.
func FromDHCP6(carrier *dhcp6.Packet) (*Packet, error) {
	if carrier.MsgType != dhcp6.DHCPv4Query && carrier.MsgType != dhcp6.DHCPv4Response {
		return nil, fmt.Errorf("%w: message type %s", ErrNotDHCP4o6, carrier.MsgType)
	}
	o := carrier.GetOption(option.Opt6DHCPv4Msg)
	if o == nil {
		return nil, fmt.Errorf("%w: no DHCPv4 message option", ErrNotDHCP4o6)
	}
	inner, err := dhcp4.Unpack(o.Data)
	if err != nil {
		return nil, fmt.Errorf("embedded DHCPv4 message: %w", err)
	}
	inner.DHCP4o6 = true
	return &Packet{Packet: inner, Carrier: carrier}, nil
}

// Wrap embeds an already-built DHCPv4 packet in a fresh envelope of the
// given type, for transmission over DHCPv6 transport.
func Wrap(inner *dhcp4.Packet, envelopeType dhcp6.MessageType) *Packet {
	inner.DHCP4o6 = true
	return &Packet{
		Packet:  inner,
		Carrier: dhcp6.New(envelopeType, dhcp6.TransactionID{}),
	}
}

// Pack re-embeds the (possibly modified) DHCPv4 payload in the carrier and
// serializes the whole DHCPv6 envelope, relay chain included.
func (p *Packet) Pack() ([]byte, error) {
	payload, err := p.Packet.Pack()
	if err != nil {
		return nil, err
	}
	p.Carrier.DelOption(option.Opt6DHCPv4Msg)
	p.Carrier.AddOption(option.New(option.V6, option.Opt6DHCPv4Msg, payload))
	return p.Carrier.Pack()
}
