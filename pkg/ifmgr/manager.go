package ifmgr

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"github.com/veesix-networks/dhcpkit/pkg/config"
	"github.com/veesix-networks/dhcpkit/pkg/dhcp4"
	"github.com/veesix-networks/dhcpkit/pkg/dhcp6"
	"github.com/veesix-networks/dhcpkit/pkg/logger"
)

var (
	// ErrNoSockets means socket setup failed on every candidate interface.
	ErrNoSockets = errors.New("no sockets could be opened")

	// ErrSocketsOpen guards operations that are only legal while all
	// sockets are closed, such as swapping the packet filter.
	ErrSocketsOpen = errors.New("sockets are open")

	ErrIfaceNotFound  = errors.New("interface not found")
	ErrPacketTooLarge = errors.New("packet exceeds interface MTU")
)

// ErrorCallback is invoked once per interface whose socket setup failed.
// Setup continues on the remaining interfaces either way. Without a callback
// the per-interface failures are returned from OpenSockets instead.
type ErrorCallback func(ifaceName string, err error)

// Manager owns the interface table and every socket opened on it. All I/O
// goes through the configured packet filters, so swapping a filter swaps the
// whole socket mechanism.
type Manager struct {
	log     *slog.Logger
	onError ErrorCallback

	filter4 PacketFilter
	filter6 PacketFilter6

	ifaces []*Iface
	byName map[string]*Iface

	open4 bool
	open6 bool
}

// NewManager detects the host's interfaces and returns a manager driving
// conventional UDP filters.
func NewManager(onError ErrorCallback) (*Manager, error) {
	m := newManager(onError)
	if err := m.DetectIfaces(false); err != nil {
		return nil, err
	}
	return m, nil
}

// NewManagerFromConfig additionally applies interface eligibility lists and
// the raw-socket toggle from configuration.
func NewManagerFromConfig(cfg *config.Config, onError ErrorCallback) (*Manager, error) {
	m, err := NewManager(onError)
	if err != nil {
		return nil, err
	}
	m.applyConfig(cfg)
	return m, nil
}

func newManager(onError ErrorCallback) *Manager {
	return &Manager{
		log:     logger.Get(logger.IfMgr),
		onError: onError,
		filter4: NewInetFilter(),
		filter6: NewInet6Filter(),
		byName:  make(map[string]*Iface),
	}
}

// reportSetupFailure routes one per-interface failure: through the callback
// when one is installed, otherwise back to the OpenSockets caller.
func (m *Manager) reportSetupFailure(ifaceName string, err error, errs *[]error) {
	m.log.Error("socket setup failed", "iface", ifaceName, "error", err)
	if m.onError != nil {
		m.onError(ifaceName, err)
		return
	}
	*errs = append(*errs, err)
}

func (m *Manager) applyConfig(cfg *config.Config) {
	unused := make(map[string]bool)
	for _, name := range cfg.DHCP4.UnusedInterfaces {
		unused[name] = true
	}
	for _, name := range cfg.DHCP6.UnusedInterfaces {
		unused[name] = true
	}
	allowed := make(map[string]bool)
	for _, name := range cfg.DHCP4.Interfaces {
		allowed[name] = true
	}
	for _, name := range cfg.DHCP6.Interfaces {
		allowed[name] = true
	}

	for _, iface := range m.ifaces {
		if unused[iface.Name] {
			iface.Unused = true
		}
		if len(allowed) > 0 && !allowed[iface.Name] {
			iface.Unused = true
		}
	}

	if cfg.DHCP4.RawSocket {
		if raw := rawFilter4(); raw != nil {
			m.filter4 = raw
		} else {
			m.log.Warn("raw sockets not supported on this platform, using UDP sockets")
		}
	}
}

// DetectIfaces populates the interface table. With update set it re-reads
// the host state, which is only legal while no sockets are open.
func (m *Manager) DetectIfaces(update bool) error {
	if len(m.ifaces) > 0 && !update {
		return nil
	}
	if m.open4 || m.open6 {
		return ErrSocketsOpen
	}

	ifaces, err := enumerate()
	if err != nil {
		return fmt.Errorf("detect interfaces: %w", err)
	}

	m.ifaces = ifaces
	m.byName = make(map[string]*Iface, len(ifaces))
	for _, iface := range ifaces {
		m.byName[iface.Name] = iface
	}
	m.log.Debug("detected interfaces", "count", len(ifaces))
	return nil
}

// AddIface registers an interface directly, bypassing detection. Tests use
// it to drive the manager against fabricated topology.
func (m *Manager) AddIface(iface *Iface) {
	m.ifaces = append(m.ifaces, iface)
	m.byName[iface.Name] = iface
}

func (m *Manager) Ifaces() []*Iface { return m.ifaces }

func (m *Manager) Iface(name string) *Iface { return m.byName[name] }

func (m *Manager) IfaceByIndex(index int) *Iface {
	for _, iface := range m.ifaces {
		if iface.Index == index {
			return iface
		}
	}
	return nil
}

// SetPacketFilter swaps the DHCPv4 socket mechanism. Rejected while any v4
// socket is open: descriptors opened by one filter cannot be serviced by
// another.
func (m *Manager) SetPacketFilter(f PacketFilter) error {
	if m.open4 {
		return ErrSocketsOpen
	}
	m.filter4 = f
	return nil
}

func (m *Manager) SetPacketFilter6(f PacketFilter6) error {
	if m.open6 {
		return ErrSocketsOpen
	}
	m.filter6 = f
	return nil
}

func (m *Manager) PacketFilter() PacketFilter   { return m.filter4 }
func (m *Manager) PacketFilter6() PacketFilter6 { return m.filter6 }

func eligible4(iface *Iface) bool {
	return iface.IsUp() && iface.IsRunning() && !iface.Unused &&
		!iface.IsLoopback() && iface.Addr4() != nil
}

func eligible6(iface *Iface) bool {
	return iface.IsUp() && iface.IsRunning() && !iface.Unused &&
		!iface.IsLoopback() && iface.LinkLocal6() != nil
}

// OpenSockets4 opens a v4 socket on every eligible interface. A failure on
// one interface is reported through the error callback and setup continues;
// only a clean sweep of failures is an error.
func (m *Manager) OpenSockets4(port uint16, useBroadcast bool) error {
	if m.open4 {
		return ErrSocketsOpen
	}

	opened := 0
	var errs []error
	for _, iface := range m.ifaces {
		if !eligible4(iface) {
			continue
		}
		addr := iface.Addr4()
		sock, err := m.filter4.OpenSocket(iface, addr, port, useBroadcast, useBroadcast)
		if err != nil {
			openFailures.WithLabelValues("4").Inc()
			m.reportSetupFailure(iface.Name, err, &errs)
			continue
		}
		iface.Sockets4 = append(iface.Sockets4, sock)
		opened++
		logger.WithIface(m.log, logger.IfaceAttrs{
			Name: iface.Name, Index: iface.Index, Family: "4",
			Addr: addr.String(), Port: port,
		}).Info("socket opened")
	}

	if opened == 0 {
		if joined := errors.Join(errs...); joined != nil {
			return fmt.Errorf("%w: %w", ErrNoSockets, joined)
		}
		return ErrNoSockets
	}
	m.open4 = true
	return errors.Join(errs...)
}

// OpenSockets6 opens a v6 socket on every eligible interface, bound to the
// wildcard address and joined to ff02::1:2 on that interface.
func (m *Manager) OpenSockets6(port uint16) error {
	if m.open6 {
		return ErrSocketsOpen
	}

	opened := 0
	var errs []error
	for _, iface := range m.ifaces {
		if !eligible6(iface) {
			continue
		}
		addr := iface.LinkLocal6()
		sock, err := m.filter6.OpenSocket(iface, addr, port)
		if err != nil {
			openFailures.WithLabelValues("6").Inc()
			m.reportSetupFailure(iface.Name, err, &errs)
			continue
		}
		iface.Sockets6 = append(iface.Sockets6, sock)
		opened++
		logger.WithIface(m.log, logger.IfaceAttrs{
			Name: iface.Name, Index: iface.Index, Family: "6",
			Addr: addr.String(), Port: port,
		}).Info("socket opened")
	}

	if opened == 0 {
		if joined := errors.Join(errs...); joined != nil {
			return fmt.Errorf("%w: %w", ErrNoSockets, joined)
		}
		return ErrNoSockets
	}
	m.open6 = true
	return errors.Join(errs...)
}

func (m *Manager) CloseSockets4() {
	for _, iface := range m.ifaces {
		for _, sock := range iface.Sockets4 {
			closeDescriptor(sock)
		}
		iface.Sockets4 = nil
	}
	m.open4 = false
}

func (m *Manager) CloseSockets6() {
	for _, iface := range m.ifaces {
		for _, sock := range iface.Sockets6 {
			closeDescriptor(sock)
		}
		iface.Sockets6 = nil
	}
	m.open6 = false
}

func (m *Manager) CloseSockets() {
	m.CloseSockets4()
	m.CloseSockets6()
}

func closeDescriptor(sock *SocketDescriptor) {
	if sock.Fd >= 0 {
		unix.Close(sock.Fd)
	}
	if sock.FallbackFd >= 0 {
		unix.Close(sock.FallbackFd)
	}
}

type pollTarget struct {
	iface    *Iface
	sock     *SocketDescriptor
	fallback bool
}

// Receive4 waits up to timeout for one DHCPv4 packet on any open socket.
// Returning nil with no error means the timeout expired, or the wait was
// interrupted by a signal. Fallback sockets are drained and their payloads
// discarded.
func (m *Manager) Receive4(timeout time.Duration) (*dhcp4.Packet, error) {
	var pfds []unix.PollFd
	var targets []pollTarget

	for _, iface := range m.ifaces {
		for _, sock := range iface.Sockets4 {
			if sock.Fd < 0 {
				// Descriptor without a real fd: the filter itself
				// decides whether data is available.
				pkt, err := m.filter4.Receive(iface, sock)
				if err != nil {
					parseFailures.WithLabelValues("4").Inc()
					return nil, err
				}
				if pkt != nil {
					received.WithLabelValues("4").Inc()
					return pkt, nil
				}
				continue
			}
			pfds = append(pfds, unix.PollFd{Fd: int32(sock.Fd), Events: unix.POLLIN})
			targets = append(targets, pollTarget{iface: iface, sock: sock})
			if sock.HasFallback() {
				pfds = append(pfds, unix.PollFd{Fd: int32(sock.FallbackFd), Events: unix.POLLIN})
				targets = append(targets, pollTarget{iface: iface, sock: sock, fallback: true})
			}
		}
	}
	if len(pfds) == 0 {
		return nil, nil
	}

	n, err := unix.Poll(pfds, int(timeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("poll: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	for i, pfd := range pfds {
		if pfd.Revents&unix.POLLIN == 0 {
			continue
		}
		t := targets[i]
		if t.fallback {
			drainFallback(t.sock.FallbackFd)
			continue
		}
		pkt, err := m.filter4.Receive(t.iface, t.sock)
		if err != nil {
			parseFailures.WithLabelValues("4").Inc()
			return nil, err
		}
		if pkt != nil {
			received.WithLabelValues("4").Inc()
			return pkt, nil
		}
	}
	return nil, nil
}

// Receive6 is the DHCPv6 counterpart of Receive4.
func (m *Manager) Receive6(timeout time.Duration) (*dhcp6.Packet, error) {
	var pfds []unix.PollFd
	var targets []pollTarget

	for _, iface := range m.ifaces {
		for _, sock := range iface.Sockets6 {
			if sock.Fd < 0 {
				pkt, err := m.filter6.Receive(iface, sock)
				if err != nil {
					parseFailures.WithLabelValues("6").Inc()
					return nil, err
				}
				if pkt != nil {
					received.WithLabelValues("6").Inc()
					return pkt, nil
				}
				continue
			}
			pfds = append(pfds, unix.PollFd{Fd: int32(sock.Fd), Events: unix.POLLIN})
			targets = append(targets, pollTarget{iface: iface, sock: sock})
		}
	}
	if len(pfds) == 0 {
		return nil, nil
	}

	n, err := unix.Poll(pfds, int(timeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("poll: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	for i, pfd := range pfds {
		if pfd.Revents&unix.POLLIN == 0 {
			continue
		}
		t := targets[i]
		pkt, err := m.filter6.Receive(t.iface, t.sock)
		if err != nil {
			parseFailures.WithLabelValues("6").Inc()
			return nil, err
		}
		if pkt != nil {
			received.WithLabelValues("6").Inc()
			return pkt, nil
		}
	}
	return nil, nil
}

func drainFallback(fd int) {
	buf := make([]byte, 1<<16)
	unix.Recvfrom(fd, buf, unix.MSG_DONTWAIT)
}

// Send4 transmits through the interface named in the packet's transport
// metadata, after checking the wire size against the interface MTU.
func (m *Manager) Send4(pkt *dhcp4.Packet) error {
	iface, sock, err := m.outbound4(pkt)
	if err != nil {
		return err
	}

	payload, err := pkt.Pack()
	if err != nil {
		return err
	}
	if iface.MTU > 0 && len(payload)+udpOverhead4 > iface.MTU {
		return fmt.Errorf("%w: %d bytes on %s (mtu %d)",
			ErrPacketTooLarge, len(payload), iface.Name, iface.MTU)
	}

	if err := m.filter4.Send(iface, sock, pkt); err != nil {
		return err
	}
	sent.WithLabelValues("4").Inc()
	return nil
}

// Send6 transmits through the interface named in the packet's transport
// metadata.
func (m *Manager) Send6(pkt *dhcp6.Packet) error {
	iface := m.lookupIface(pkt.IfaceName, pkt.IfaceIndex)
	if iface == nil {
		return fmt.Errorf("%w: %q", ErrIfaceNotFound, pkt.IfaceName)
	}
	if len(iface.Sockets6) == 0 {
		return fmt.Errorf("%w: no v6 socket on %s", ErrNoSockets, iface.Name)
	}

	payload, err := pkt.Pack()
	if err != nil {
		return err
	}
	if iface.MTU > 0 && len(payload)+udpOverhead6 > iface.MTU {
		return fmt.Errorf("%w: %d bytes on %s (mtu %d)",
			ErrPacketTooLarge, len(payload), iface.Name, iface.MTU)
	}

	if err := m.filter6.Send(iface, iface.Sockets6[0], pkt); err != nil {
		return err
	}
	sent.WithLabelValues("6").Inc()
	return nil
}

// IP and UDP header sizes counted against the MTU on the send path.
const (
	udpOverhead4 = 20 + 8
	udpOverhead6 = 40 + 8
)

func (m *Manager) outbound4(pkt *dhcp4.Packet) (*Iface, *SocketDescriptor, error) {
	iface := m.lookupIface(pkt.IfaceName, pkt.IfaceIndex)
	if iface == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrIfaceNotFound, pkt.IfaceName)
	}
	if len(iface.Sockets4) == 0 {
		return nil, nil, fmt.Errorf("%w: no v4 socket on %s", ErrNoSockets, iface.Name)
	}
	return iface, iface.Sockets4[0], nil
}

func (m *Manager) lookupIface(name string, index int) *Iface {
	if name != "" {
		if iface := m.byName[name]; iface != nil {
			return iface
		}
	}
	if index > 0 {
		return m.IfaceByIndex(index)
	}
	return nil
}
