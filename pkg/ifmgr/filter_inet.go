package ifmgr

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/veesix-networks/dhcpkit/pkg/dhcp4"
	"github.com/veesix-networks/dhcpkit/pkg/dhcp6"
	"github.com/veesix-networks/dhcpkit/pkg/logger"
)

// InetFilter is the conventional DHCPv4 packet filter: one UDP socket per
// interface, broadcast flags as requested. It cannot reach a client that has
// no address yet; use the raw filter for that.
type InetFilter struct{}

func NewInetFilter() *InetFilter { return &InetFilter{} }

func (f *InetFilter) DirectResponseSupported() bool { return false }

func (f *InetFilter) OpenSocket(iface *Iface, addr net.IP, port uint16, receiveBcast, sendBcast bool) (*SocketDescriptor, error) {
	fd, err := openUDP4(addr, port, receiveBcast, sendBcast)
	if err != nil {
		return nil, fmt.Errorf("open socket on %s: %w", iface.Name, err)
	}
	logger.Get(logger.Filter).Debug("udp socket bound",
		"iface", iface.Name, "addr", addr.String(), "port", port, "broadcast", receiveBcast)
	return &SocketDescriptor{
		Fd:         fd,
		FallbackFd: -1,
		Addr:       addr,
		Port:       port,
		Family:     unix.AF_INET,
	}, nil
}

func (f *InetFilter) Send(iface *Iface, sock *SocketDescriptor, pkt *dhcp4.Packet) error {
	payload, err := pkt.Pack()
	if err != nil {
		return err
	}

	dst := pkt.RemoteAddr
	if pkt.IsBroadcast() || dst == nil || dst.Equal(net.IPv4zero) {
		dst = net.IPv4bcast
	}
	dport := pkt.RemotePort
	if dport == 0 {
		dport = dhcp4.ClientPort
	}

	sa := &unix.SockaddrInet4{Port: int(dport)}
	copy(sa.Addr[:], dst.To4())

	if err := unix.Sendto(sock.Fd, payload, 0, sa); err != nil {
		return fmt.Errorf("send on %s: %w", iface.Name, err)
	}
	return nil
}

func (f *InetFilter) Receive(iface *Iface, sock *SocketDescriptor) (*dhcp4.Packet, error) {
	buf := make([]byte, 1<<16)
	n, from, err := unix.Recvfrom(sock.Fd, buf, 0)
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN {
			return nil, nil
		}
		return nil, fmt.Errorf("recv on %s: %w", iface.Name, err)
	}

	pkt, err := dhcp4.Unpack(buf[:n])
	if err != nil {
		return nil, err
	}
	pkt.IfaceName = iface.Name
	pkt.IfaceIndex = iface.Index
	pkt.LocalAddr = sock.Addr
	pkt.LocalPort = sock.Port
	if sa, ok := from.(*unix.SockaddrInet4); ok {
		pkt.RemoteAddr = net.IP(append([]byte(nil), sa.Addr[:]...))
		pkt.RemotePort = uint16(sa.Port)
	}
	return pkt, nil
}

// openUDP4 opens and binds one conventional IPv4 UDP socket. Shared by the
// conventional filter and by the raw filter's fallback socket.
func openUDP4(addr net.IP, port uint16, receiveBcast, sendBcast bool) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	unix.CloseOnExec(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("SO_REUSEADDR: %w", err)
	}
	if sendBcast {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
			unix.Close(fd)
			return -1, fmt.Errorf("SO_BROADCAST: %w", err)
		}
	}

	bindIP := addr.To4()
	if receiveBcast || bindIP == nil {
		bindIP = net.IPv4zero.To4()
	}
	sa := &unix.SockaddrInet4{Port: int(port)}
	copy(sa.Addr[:], bindIP)
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind %s:%d: %w", bindIP, port, err)
	}
	return fd, nil
}

// Inet6Filter is the DHCPv6 packet filter: one UDP socket per interface,
// joined to the All_DHCP_Relay_Agents_and_Servers multicast group.
type Inet6Filter struct{}

func NewInet6Filter() *Inet6Filter { return &Inet6Filter{} }

func (f *Inet6Filter) OpenSocket(iface *Iface, addr net.IP, port uint16) (*SocketDescriptor, error) {
	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_DGRAM, 0)
	if err != nil {
		return nil, fmt.Errorf("socket on %s: %w", iface.Name, err)
	}
	unix.CloseOnExec(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("SO_REUSEADDR on %s: %w", iface.Name, err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("IPV6_V6ONLY on %s: %w", iface.Name, err)
	}

	sa := &unix.SockaddrInet6{Port: int(port)}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind [::]:%d on %s: %w", port, iface.Name, err)
	}

	if iface.SupportsMulticast() {
		mreq := &unix.IPv6Mreq{Interface: uint32(iface.Index)}
		copy(mreq.Multiaddr[:], dhcp6.AllRelayAgentsAndServers.To16())
		if err := unix.SetsockoptIPv6Mreq(fd, unix.IPPROTO_IPV6, unix.IPV6_JOIN_GROUP, mreq); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("join ff02::1:2 on %s: %w", iface.Name, err)
		}
	}

	return &SocketDescriptor{
		Fd:         fd,
		FallbackFd: -1,
		Addr:       addr,
		Port:       port,
		Family:     unix.AF_INET6,
	}, nil
}

func (f *Inet6Filter) Send(iface *Iface, sock *SocketDescriptor, pkt *dhcp6.Packet) error {
	payload, err := pkt.Pack()
	if err != nil {
		return err
	}

	dst := pkt.RemoteAddr
	if dst == nil {
		dst = dhcp6.AllRelayAgentsAndServers
	}
	dport := pkt.RemotePort
	if dport == 0 {
		dport = dhcp6.ServerPort
	}

	sa := &unix.SockaddrInet6{Port: int(dport)}
	copy(sa.Addr[:], dst.To16())
	if dst.IsLinkLocalUnicast() || dst.IsLinkLocalMulticast() {
		sa.ZoneId = uint32(iface.Index)
	}

	if err := unix.Sendto(sock.Fd, payload, 0, sa); err != nil {
		return fmt.Errorf("send on %s: %w", iface.Name, err)
	}
	return nil
}

func (f *Inet6Filter) Receive(iface *Iface, sock *SocketDescriptor) (*dhcp6.Packet, error) {
	buf := make([]byte, 1<<16)
	n, from, err := unix.Recvfrom(sock.Fd, buf, 0)
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN {
			return nil, nil
		}
		return nil, fmt.Errorf("recv on %s: %w", iface.Name, err)
	}

	pkt, err := dhcp6.Unpack(buf[:n])
	if err != nil {
		return nil, err
	}
	pkt.IfaceName = iface.Name
	pkt.IfaceIndex = iface.Index
	pkt.LocalAddr = sock.Addr
	pkt.LocalPort = sock.Port
	if sa, ok := from.(*unix.SockaddrInet6); ok {
		pkt.RemoteAddr = net.IP(append([]byte(nil), sa.Addr[:]...))
		pkt.RemotePort = uint16(sa.Port)
	}
	return pkt, nil
}
