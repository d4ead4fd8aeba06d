// Package ifmgr enumerates network interfaces, owns the sockets opened on
// them and delegates actual I/O to a pluggable packet filter, so the same
// manager can drive a conventional UDP socket, a raw-socket path for
// direct responses to unconfigured clients, or a no-I/O stub in tests.
package ifmgr

import (
	"fmt"
	"net"
)

// Iface is the uniform view of one network interface, however it was
// discovered. Sockets opened on the interface are owned by it and closed
// when the manager tears the interface down.
type Iface struct {
	Name   string
	Index  int
	MTU    int
	HWAddr net.HardwareAddr
	Flags  net.Flags

	// Running mirrors the operstate bit that net.Flags does not always
	// carry on every discovery path.
	Running bool

	// Unused marks an interface administratively excluded from socket
	// setup via configuration.
	Unused bool

	Addrs []net.IP

	Sockets4 []*SocketDescriptor
	Sockets6 []*SocketDescriptor
}

func (i *Iface) IsUp() bool       { return i.Flags&net.FlagUp != 0 }
func (i *Iface) IsLoopback() bool { return i.Flags&net.FlagLoopback != 0 }
func (i *Iface) IsRunning() bool  { return i.Running }

func (i *Iface) SupportsMulticast() bool { return i.Flags&net.FlagMulticast != 0 }

// Addr4 returns the first IPv4 address assigned to the interface, or nil.
func (i *Iface) Addr4() net.IP {
	for _, ip := range i.Addrs {
		if v4 := ip.To4(); v4 != nil {
			return v4
		}
	}
	return nil
}

// LinkLocal6 returns the first IPv6 link-local address, or nil.
func (i *Iface) LinkLocal6() net.IP {
	for _, ip := range i.Addrs {
		if ip.To4() == nil && ip.IsLinkLocalUnicast() {
			return ip
		}
	}
	return nil
}

// Addr6 returns the first global IPv6 address, falling back to link-local.
func (i *Iface) Addr6() net.IP {
	for _, ip := range i.Addrs {
		if ip.To4() == nil && !ip.IsLinkLocalUnicast() {
			return ip
		}
	}
	return i.LinkLocal6()
}

func (i *Iface) HasAddr(ip net.IP) bool {
	for _, a := range i.Addrs {
		if a.Equal(ip) {
			return true
		}
	}
	return false
}

func (i *Iface) String() string {
	return fmt.Sprintf("%s (index %d)", i.Name, i.Index)
}

// SocketDescriptor describes one bound socket. The fallback descriptor is
// only present on raw-socket paths: a conventional socket bound to the same
// address and port purely so the kernel does not answer the raw traffic
// with port-unreachable; everything it receives is discarded.
type SocketDescriptor struct {
	Fd         int
	FallbackFd int // -1 when absent
	Addr       net.IP
	Port       uint16
	Family     int // unix.AF_INET or unix.AF_INET6
}

func (s *SocketDescriptor) HasFallback() bool {
	return s.FallbackFd >= 0
}
