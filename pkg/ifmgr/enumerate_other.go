//go:build !linux

package ifmgr

import (
	"fmt"
	"net"
)

func enumerate() ([]*Iface, error) {
	sys, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	ifaces := make([]*Iface, 0, len(sys))
	for _, s := range sys {
		iface := &Iface{
			Name:    s.Name,
			Index:   s.Index,
			MTU:     s.MTU,
			HWAddr:  s.HardwareAddr,
			Flags:   s.Flags,
			Running: s.Flags&net.FlagRunning != 0,
		}

		addrs, err := s.Addrs()
		if err != nil {
			return nil, fmt.Errorf("list addresses on %s: %w", s.Name, err)
		}
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok {
				iface.Addrs = append(iface.Addrs, ipnet.IP)
			}
		}

		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}
