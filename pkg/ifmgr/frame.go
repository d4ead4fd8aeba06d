package ifmgr

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/sys/unix"

	"github.com/veesix-networks/dhcpkit/pkg/dhcp4"
	"github.com/veesix-networks/dhcpkit/pkg/ethernet"
)

// afPseudoHeaderLen is the 4-byte address-family header that replaces
// link-layer framing on loopback interfaces.
const afPseudoHeaderLen = 4

// BuildFrame constructs the full Ethernet+IPv4+UDP frame for a DHCPv4
// packet, checksums included. When the destination is a client that has no
// address yet, the caller must have filled RemoteHWAddr and RemoteAddr with
// the offered binding so the reply is unicast instead of broadcast.
func BuildFrame(iface *Iface, sock *SocketDescriptor, pkt *dhcp4.Packet) ([]byte, error) {
	payload, err := pkt.Pack()
	if err != nil {
		return nil, err
	}

	srcIP := pkt.LocalAddr
	if srcIP == nil {
		srcIP = sock.Addr
	}
	dstIP := pkt.RemoteAddr
	dstMAC := pkt.RemoteHWAddr
	if pkt.IsBroadcast() || dstIP == nil || dstIP.Equal(net.IPv4zero) || len(dstMAC) == 0 {
		dstIP = net.IPv4bcast
		dstMAC = ethernet.Broadcast
	}

	srcPort := pkt.LocalPort
	if srcPort == 0 {
		srcPort = sock.Port
	}
	dstPort := pkt.RemotePort
	if dstPort == 0 {
		dstPort = dhcp4.ClientPort
	}

	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    srcIP.To4(),
		DstIP:    dstIP.To4(),
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}

	if iface.IsLoopback() {
		// Loopback carries no link-layer framing; a 4-byte host-order
		// address-family header stands in for it.
		if err := gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload(payload)); err != nil {
			return nil, err
		}
		out := make([]byte, afPseudoHeaderLen, afPseudoHeaderLen+len(buf.Bytes()))
		binary.NativeEndian.PutUint32(out, unix.AF_INET)
		return append(out, buf.Bytes()...), nil
	}

	eth := &layers.Ethernet{
		SrcMAC:       iface.HWAddr,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFrame walks a received frame down to the DHCPv4 payload and returns
// the packet with its transport metadata filled in. A frame that is not UDP,
// or not addressed to the expected port, yields nil without error so the
// receive loop can move on.
func DecodeFrame(iface *Iface, sock *SocketDescriptor, frame []byte) (*dhcp4.Packet, error) {
	first := gopacket.LayerTypeZero
	if iface.IsLoopback() {
		if len(frame) < afPseudoHeaderLen {
			return nil, fmt.Errorf("loopback frame too short: %d bytes", len(frame))
		}
		frame = frame[afPseudoHeaderLen:]
		first = layers.LayerTypeIPv4
	} else {
		first = layers.LayerTypeEthernet
	}

	decoded := gopacket.NewPacket(frame, first, gopacket.Default)

	ipLayer, _ := decoded.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	udpLayer, _ := decoded.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if ipLayer == nil || udpLayer == nil {
		return nil, nil
	}
	if sock.Port != 0 && uint16(udpLayer.DstPort) != sock.Port {
		return nil, nil
	}

	pkt, err := dhcp4.Unpack(udpLayer.Payload)
	if err != nil {
		return nil, err
	}
	pkt.IfaceName = iface.Name
	pkt.IfaceIndex = iface.Index
	pkt.LocalAddr = ipLayer.DstIP
	pkt.RemoteAddr = ipLayer.SrcIP
	pkt.LocalPort = uint16(udpLayer.DstPort)
	pkt.RemotePort = uint16(udpLayer.SrcPort)
	return pkt, nil
}
