package ifmgr

import (
	"net"

	"github.com/veesix-networks/dhcpkit/pkg/dhcp4"
	"github.com/veesix-networks/dhcpkit/pkg/dhcp6"
)

// PacketFilter is the strategy behind all DHCPv4 socket mechanics. The
// conventional implementation uses plain UDP sockets; the raw implementation
// builds link-layer frames itself so it can answer clients that have no
// address yet, and reports that through DirectResponseSupported.
type PacketFilter interface {
	// DirectResponseSupported reports whether Send can unicast to a host
	// that has no IP address assigned yet.
	DirectResponseSupported() bool

	// OpenSocket binds the filter's socket(s) on the interface. The
	// returned descriptor is owned by the interface that opened it.
	OpenSocket(iface *Iface, addr net.IP, port uint16, receiveBcast, sendBcast bool) (*SocketDescriptor, error)

	// Send delivers one packet through the descriptor. Failures are
	// returned to the caller, never retried internally.
	Send(iface *Iface, sock *SocketDescriptor, pkt *dhcp4.Packet) error

	// Receive reads one packet. A nil packet with nil error is the normal
	// "no data" outcome, not a failure.
	Receive(iface *Iface, sock *SocketDescriptor) (*dhcp4.Packet, error)
}

// PacketFilter6 is the DHCPv6 counterpart. No raw variant exists: v6 clients
// always have a link-local source address, so conventional sockets suffice.
type PacketFilter6 interface {
	OpenSocket(iface *Iface, addr net.IP, port uint16) (*SocketDescriptor, error)
	Send(iface *Iface, sock *SocketDescriptor, pkt *dhcp6.Packet) error
	Receive(iface *Iface, sock *SocketDescriptor) (*dhcp6.Packet, error)
}
