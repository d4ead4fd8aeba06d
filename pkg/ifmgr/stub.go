package ifmgr

import (
	"fmt"
	"net"

	"github.com/veesix-networks/dhcpkit/pkg/dhcp4"
	"github.com/veesix-networks/dhcpkit/pkg/dhcp6"
)

// StubFilter opens no real sockets. Sent packets are recorded and received
// packets are served from a queue, which makes the manager fully exercisable
// without privileges or network access.
type StubFilter struct {
	// OpenError, when set, makes OpenSocket fail for interfaces whose name
	// is in FailOn (or for every interface when FailOn is empty).
	OpenError error
	FailOn    map[string]bool

	Opened []string
	Sent   []*dhcp4.Packet
	Queue  []*dhcp4.Packet
}

func NewStubFilter() *StubFilter { return &StubFilter{} }

func (f *StubFilter) DirectResponseSupported() bool { return false }

func (f *StubFilter) OpenSocket(iface *Iface, addr net.IP, port uint16, receiveBcast, sendBcast bool) (*SocketDescriptor, error) {
	if f.OpenError != nil && (len(f.FailOn) == 0 || f.FailOn[iface.Name]) {
		return nil, fmt.Errorf("open socket on %s: %w", iface.Name, f.OpenError)
	}
	f.Opened = append(f.Opened, iface.Name)
	return &SocketDescriptor{Fd: -1, FallbackFd: -1, Addr: addr, Port: port, Family: 2}, nil
}

func (f *StubFilter) Send(iface *Iface, sock *SocketDescriptor, pkt *dhcp4.Packet) error {
	f.Sent = append(f.Sent, pkt)
	return nil
}

func (f *StubFilter) Receive(iface *Iface, sock *SocketDescriptor) (*dhcp4.Packet, error) {
	if len(f.Queue) == 0 {
		return nil, nil
	}
	pkt := f.Queue[0]
	f.Queue = f.Queue[1:]
	pkt.IfaceName = iface.Name
	pkt.IfaceIndex = iface.Index
	return pkt, nil
}

// StubFilter6 is the DHCPv6 counterpart of StubFilter.
type StubFilter6 struct {
	OpenError error
	FailOn    map[string]bool

	Opened []string
	Sent   []*dhcp6.Packet
	Queue  []*dhcp6.Packet
}

func NewStubFilter6() *StubFilter6 { return &StubFilter6{} }

func (f *StubFilter6) OpenSocket(iface *Iface, addr net.IP, port uint16) (*SocketDescriptor, error) {
	if f.OpenError != nil && (len(f.FailOn) == 0 || f.FailOn[iface.Name]) {
		return nil, fmt.Errorf("open socket on %s: %w", iface.Name, f.OpenError)
	}
	f.Opened = append(f.Opened, iface.Name)
	return &SocketDescriptor{Fd: -1, FallbackFd: -1, Addr: addr, Port: port, Family: 10}, nil
}

func (f *StubFilter6) Send(iface *Iface, sock *SocketDescriptor, pkt *dhcp6.Packet) error {
	f.Sent = append(f.Sent, pkt)
	return nil
}

func (f *StubFilter6) Receive(iface *Iface, sock *SocketDescriptor) (*dhcp6.Packet, error) {
	if len(f.Queue) == 0 {
		return nil, nil
	}
	pkt := f.Queue[0]
	f.Queue = f.Queue[1:]
	pkt.IfaceName = iface.Name
	pkt.IfaceIndex = iface.Index
	return pkt, nil
}
