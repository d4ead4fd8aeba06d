package ifmgr

import (
	"fmt"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// enumerate reads the interface table over netlink, which exposes the
// operstate flags net.Interfaces drops.
func enumerate() ([]*Iface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	ifaces := make([]*Iface, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()
		iface := &Iface{
			Name:    attrs.Name,
			Index:   attrs.Index,
			MTU:     attrs.MTU,
			HWAddr:  attrs.HardwareAddr,
			Flags:   attrs.Flags,
			Running: attrs.RawFlags&unix.IFF_RUNNING != 0,
		}

		addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
		if err != nil {
			return nil, fmt.Errorf("list addresses on %s: %w", attrs.Name, err)
		}
		for _, addr := range addrs {
			if addr.IP != nil {
				iface.Addrs = append(iface.Addrs, addr.IP)
			}
		}

		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}
