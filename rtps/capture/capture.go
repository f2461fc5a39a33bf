package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"time"

	"github.com/golang/glog"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/bringyour/rtps/rtps"
)

// Reads and writes RTPS-over-UDP traffic in the pcap file format.
// Only unfragmented IPv4 and IPv6 datagrams are considered.

const DefaultSnapLen = 65536

var rtpsProtocolId = []byte("RTPS")

var (
	sourceMac      = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	destinationMac = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
)

type CaptureSettings struct {
	// udp ports to consider, by source or destination.
	// empty means every udp datagram that starts with the RTPS protocol id.
	Ports []uint16
	// keep datagrams that start with the protocol id but fail to decode, with `Err` set
	KeepErrors bool
}

func DefaultCaptureSettings() *CaptureSettings {
	return &CaptureSettings{
		KeepErrors: true,
	}
}

func (self *CaptureSettings) matchesPort(sourcePort uint16, destinationPort uint16) bool {
	if len(self.Ports) == 0 {
		return true
	}
	for _, port := range self.Ports {
		if port == sourcePort || port == destinationPort {
			return true
		}
	}
	return false
}

// Datagram is one captured RTPS message.
// Exactly one of `Message` and `Err` is set.
type Datagram struct {
	Timestamp   time.Time
	Source      rtps.Locator
	Destination rtps.Locator
	Message     *rtps.Message
	Err         error
}

func (self *Datagram) String() string {
	if self.Err != nil {
		return fmt.Sprintf("%s %s->%s error: %s", self.Timestamp.Format(time.RFC3339Nano), self.Source, self.Destination, self.Err)
	}
	return fmt.Sprintf("%s %s->%s %s", self.Timestamp.Format(time.RFC3339Nano), self.Source, self.Destination, self.Message)
}

func ReadPcapWithDefaults(r io.Reader) ([]*Datagram, error) {
	return ReadPcap(r, DefaultCaptureSettings())
}

// ReadPcap decodes every RTPS datagram in the capture.
// Packets that are not udp, or whose payload is not RTPS, are skipped.
func ReadPcap(r io.Reader, settings *CaptureSettings) ([]*Datagram, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("Could not read pcap header: %w", err)
	}
	linkType := reader.LinkType()

	datagrams := []*Datagram{}
	for i := 0; ; i += 1 {
		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return datagrams, fmt.Errorf("Could not read packet %d: %w", i, err)
		}

		packet := gopacket.NewPacket(data, linkType, gopacket.NoCopy)
		datagram, ok := readDatagram(packet, settings)
		if !ok {
			glog.V(2).Infof("[capture]skip packet %d\n", i)
			continue
		}
		datagram.Timestamp = ci.Timestamp.UTC()
		if datagram.Err != nil {
			glog.V(1).Infof("[capture]packet %d %s->%s did not decode: %s\n", i, datagram.Source, datagram.Destination, datagram.Err)
			if !settings.KeepErrors {
				continue
			}
		} else {
			glog.V(2).Infof("[capture]packet %d %s\n", i, datagram)
		}
		datagrams = append(datagrams, datagram)
	}
	return datagrams, nil
}

func readDatagram(packet gopacket.Packet, settings *CaptureSettings) (*Datagram, bool) {
	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil, false
	}
	udp := udpLayer.(*layers.UDP)

	var sourceIp net.IP
	var destinationIp net.IP
	switch ip := packet.NetworkLayer().(type) {
	case *layers.IPv4:
		if ip.Flags&layers.IPv4MoreFragments != 0 || ip.FragOffset != 0 {
			return nil, false
		}
		sourceIp = ip.SrcIP
		destinationIp = ip.DstIP
	case *layers.IPv6:
		sourceIp = ip.SrcIP
		destinationIp = ip.DstIP
	default:
		return nil, false
	}

	if !settings.matchesPort(uint16(udp.SrcPort), uint16(udp.DstPort)) {
		return nil, false
	}
	if !bytes.HasPrefix(udp.Payload, rtpsProtocolId) {
		return nil, false
	}

	source, err := udpLocator(sourceIp, udp.SrcPort)
	if err != nil {
		return nil, false
	}
	destination, err := udpLocator(destinationIp, udp.DstPort)
	if err != nil {
		return nil, false
	}

	datagram := &Datagram{
		Source:      source,
		Destination: destination,
	}
	message, err := rtps.Decode(udp.Payload)
	if err != nil {
		datagram.Err = err
	} else {
		datagram.Message = message
	}
	return datagram, true
}

func udpLocator(ip net.IP, port layers.UDPPort) (rtps.Locator, error) {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return rtps.Locator{}, fmt.Errorf("Bad ip: %s", ip)
	}
	return rtps.UdpLocator(netip.AddrPortFrom(addr.Unmap(), uint16(port)))
}

// OutDatagram is one message to write into a capture.
// Source and destination must be udp locators of the same family.
type OutDatagram struct {
	Timestamp   time.Time
	Source      rtps.Locator
	Destination rtps.Locator
	Message     *rtps.Message
}

// WritePcap writes each datagram as an Ethernet frame.
func WritePcap(w io.Writer, datagrams []*OutDatagram) error {
	writer := pcapgo.NewWriter(w)
	if err := writer.WriteFileHeader(DefaultSnapLen, layers.LinkTypeEthernet); err != nil {
		return err
	}

	for i, datagram := range datagrams {
		frame, err := encodeFrame(datagram)
		if err != nil {
			return fmt.Errorf("Datagram %d: %w", i, err)
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     datagram.Timestamp,
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		if err := writer.WritePacket(ci, frame); err != nil {
			return err
		}
	}
	return nil
}

func encodeFrame(datagram *OutDatagram) ([]byte, error) {
	if !datagram.Source.IsUdp() || !datagram.Destination.IsUdp() {
		return nil, fmt.Errorf("Locators must be udp: %s->%s", datagram.Source, datagram.Destination)
	}
	source := datagram.Source.AddrPort()
	destination := datagram.Destination.AddrPort()
	if source.Addr().Is4() != destination.Addr().Is4() {
		return nil, fmt.Errorf("Locator families differ: %s->%s", datagram.Source, datagram.Destination)
	}

	udp := &layers.UDP{
		SrcPort: layers.UDPPort(source.Port()),
		DstPort: layers.UDPPort(destination.Port()),
	}
	ethernet := &layers.Ethernet{
		SrcMAC: sourceMac,
		DstMAC: destinationMacFor(destination.Addr()),
	}

	var ip gopacket.SerializableLayer
	if source.Addr().Is4() {
		ethernet.EthernetType = layers.EthernetTypeIPv4
		ipv4 := &layers.IPv4{
			Version:  4,
			TTL:      64,
			SrcIP:    source.Addr().AsSlice(),
			DstIP:    destination.Addr().AsSlice(),
			Protocol: layers.IPProtocolUDP,
		}
		udp.SetNetworkLayerForChecksum(ipv4)
		ip = ipv4
	} else {
		ethernet.EthernetType = layers.EthernetTypeIPv6
		ipv6 := &layers.IPv6{
			Version:    6,
			HopLimit:   64,
			SrcIP:      source.Addr().AsSlice(),
			DstIP:      destination.Addr().AsSlice(),
			NextHeader: layers.IPProtocolUDP,
		}
		udp.SetNetworkLayerForChecksum(ipv6)
		ip = ipv6
	}

	options := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	buffer := gopacket.NewSerializeBufferExpectedSize(128, 0)
	err := gopacket.SerializeLayers(buffer, options,
		ethernet,
		ip,
		udp,
		gopacket.Payload(rtps.Encode(datagram.Message)),
	)
	if err != nil {
		return nil, fmt.Errorf("Failed to serialize frame: %w", err)
	}
	return buffer.Bytes(), nil
}

// multicast groups map onto their well known mac addresses
func destinationMacFor(addr netip.Addr) net.HardwareAddr {
	if !addr.IsMulticast() {
		return destinationMac
	}
	b := addr.AsSlice()
	if addr.Is4() {
		return net.HardwareAddr{0x01, 0x00, 0x5e, b[1] & 0x7f, b[2], b[3]}
	}
	return net.HardwareAddr{0x33, 0x33, b[12], b[13], b[14], b[15]}
}
