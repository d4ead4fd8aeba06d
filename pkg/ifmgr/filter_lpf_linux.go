package ifmgr

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/veesix-networks/dhcpkit/pkg/dhcp4"
	"github.com/veesix-networks/dhcpkit/pkg/ethernet"
	"github.com/veesix-networks/dhcpkit/pkg/logger"
)

// LPFFilter is the raw-socket DHCPv4 packet filter. It opens an AF_PACKET
// socket per interface and assembles link-layer frames itself, which lets a
// reply reach a client before the client has an address. A conventional UDP
// socket is opened alongside as a fallback so the kernel does not answer the
// raw traffic with ICMP port-unreachable; anything arriving on it is read
// and discarded.
type LPFFilter struct{}

func NewLPFFilter() *LPFFilter { return &LPFFilter{} }

func (f *LPFFilter) DirectResponseSupported() bool { return true }

func (f *LPFFilter) OpenSocket(iface *Iface, addr net.IP, port uint16, receiveBcast, sendBcast bool) (*SocketDescriptor, error) {
	proto := htons(ethernet.EtherTypeIPv4)

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(proto))
	if err != nil {
		return nil, fmt.Errorf("raw socket on %s: %w", iface.Name, err)
	}
	unix.CloseOnExec(fd)

	sll := &unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, sll); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind raw socket to %s: %w", iface.Name, err)
	}

	fallback, err := openUDP4(addr, port, false, false)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("fallback socket on %s: %w", iface.Name, err)
	}

	logger.Get(logger.Filter).Debug("raw socket bound",
		"iface", iface.Name, "addr", addr.String(), "port", port)
	return &SocketDescriptor{
		Fd:         fd,
		FallbackFd: fallback,
		Addr:       addr,
		Port:       port,
		Family:     unix.AF_INET,
	}, nil
}

func (f *LPFFilter) Send(iface *Iface, sock *SocketDescriptor, pkt *dhcp4.Packet) error {
	frame, err := BuildFrame(iface, sock, pkt)
	if err != nil {
		return err
	}

	dstMAC := pkt.RemoteHWAddr
	if pkt.IsBroadcast() || len(dstMAC) == 0 {
		dstMAC = ethernet.Broadcast
	}

	sll := &unix.SockaddrLinklayer{
		Protocol: htons(ethernet.EtherTypeIPv4),
		Ifindex:  iface.Index,
		Halen:    uint8(len(dstMAC)),
	}
	copy(sll.Addr[:], dstMAC)

	if err := unix.Sendto(sock.Fd, frame, 0, sll); err != nil {
		return fmt.Errorf("send raw frame on %s: %w", iface.Name, err)
	}
	return nil
}

func (f *LPFFilter) Receive(iface *Iface, sock *SocketDescriptor) (*dhcp4.Packet, error) {
	buf := make([]byte, 1<<16)
	n, _, err := unix.Recvfrom(sock.Fd, buf, 0)
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN {
			return nil, nil
		}
		return nil, fmt.Errorf("recv raw frame on %s: %w", iface.Name, err)
	}
	return DecodeFrame(iface, sock, buf[:n])
}

// htons converts a short to network byte order for AF_PACKET protocol fields.
func htons(v uint16) uint16 {
	return v<<8 | v>>8
}
