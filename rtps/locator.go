package rtps

import (
	"fmt"
	"net"
	"net/netip"
)

type LocatorKind int32

const (
	LocatorKindUdpv4 LocatorKind = 1
	LocatorKindUdpv6 LocatorKind = 2
	LocatorKindTcpv4 LocatorKind = 4
	LocatorKindTcpv6 LocatorKind = 8
)

func (self LocatorKind) String() string {
	switch self {
	case LocatorKindUdpv4:
		return "udpv4"
	case LocatorKindUdpv6:
		return "udpv6"
	case LocatorKindTcpv4:
		return "tcpv4"
	case LocatorKindTcpv6:
		return "tcpv6"
	default:
		return fmt.Sprintf("LocatorKind(%d)", int32(self))
	}
}

func (self LocatorKind) isV4() bool {
	return self == LocatorKindUdpv4 || self == LocatorKindTcpv4
}

func (self LocatorKind) valid() bool {
	switch self {
	case LocatorKindUdpv4, LocatorKindUdpv6, LocatorKindTcpv4, LocatorKindTcpv6:
		return true
	default:
		return false
	}
}

// A transport address. The kind and the address family always agree,
// and the invalid/reserved wire kinds are never decoded into a locator.
// comparable
type Locator struct {
	kind     LocatorKind
	addrPort netip.AddrPort
}

func NewLocator(kind LocatorKind, addrPort netip.AddrPort) (Locator, error) {
	if !kind.valid() || !addrPort.IsValid() {
		return Locator{}, ErrBadLocator
	}
	addr := addrPort.Addr()
	if kind.isV4() {
		if !addr.Unmap().Is4() {
			return Locator{}, ErrBadLocator
		}
		addr = addr.Unmap()
	} else if addr.Is4() {
		addr = netip.AddrFrom16(addr.As16())
	}
	return Locator{
		kind:     kind,
		addrPort: netip.AddrPortFrom(addr.WithZone(""), addrPort.Port()),
	}, nil
}

func RequireLocator(kind LocatorKind, addrPort netip.AddrPort) Locator {
	locator, err := NewLocator(kind, addrPort)
	if err != nil {
		panic(err)
	}
	return locator
}

// the kind follows the address family
func UdpLocator(addrPort netip.AddrPort) (Locator, error) {
	if addrPort.Addr().Unmap().Is4() {
		return NewLocator(LocatorKindUdpv4, addrPort)
	}
	return NewLocator(LocatorKindUdpv6, addrPort)
}

func TcpLocator(addrPort netip.AddrPort) (Locator, error) {
	if addrPort.Addr().Unmap().Is4() {
		return NewLocator(LocatorKindTcpv4, addrPort)
	}
	return NewLocator(LocatorKindTcpv6, addrPort)
}

func LocatorFromUDPAddr(addr *net.UDPAddr) (Locator, error) {
	if addr == nil {
		return Locator{}, ErrBadLocator
	}
	return UdpLocator(addr.AddrPort())
}

func LocatorFromTCPAddr(addr *net.TCPAddr) (Locator, error) {
	if addr == nil {
		return Locator{}, ErrBadLocator
	}
	return TcpLocator(addr.AddrPort())
}

func (self Locator) Kind() LocatorKind {
	return self.kind
}

func (self Locator) AddrPort() netip.AddrPort {
	return self.addrPort
}

// false for the zero value, which has no wire form
func (self Locator) IsValid() bool {
	return self.kind.valid() && self.addrPort.IsValid()
}

func (self Locator) IsUdp() bool {
	return self.kind == LocatorKindUdpv4 || self.kind == LocatorKindUdpv6
}

func (self Locator) UDPAddr() *net.UDPAddr {
	return net.UDPAddrFromAddrPort(self.addrPort)
}

func (self Locator) TCPAddr() *net.TCPAddr {
	return net.TCPAddrFromAddrPort(self.addrPort)
}

func (self Locator) String() string {
	return fmt.Sprintf("%s://%s", self.kind, self.addrPort)
}

// kind int32, port uint32, 16 address bytes with ipv4 in the last four
func (self Locator) EncodeCdr(w *CdrWriter) {
	w.WriteInt32(int32(self.kind))
	w.WriteUint32(uint32(self.addrPort.Port()))
	var address [16]byte
	if self.kind.isV4() {
		v4 := self.addrPort.Addr().As4()
		copy(address[12:16], v4[:])
	} else {
		address = self.addrPort.Addr().As16()
	}
	w.WriteBytes(address[:])
}

func (self *Locator) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	kind, err := r.ReadInt32()
	if err != nil {
		return decodeError("locator", offset, err)
	}
	port, err := r.ReadUint32()
	if err != nil {
		return decodeError("locator", offset, err)
	}
	var address [16]byte
	if err := r.ReadInto(address[:]); err != nil {
		return decodeError("locator", offset, err)
	}
	if 0xffff < port {
		return decodeError("locator", offset, ErrBadLocator)
	}
	var addr netip.Addr
	if LocatorKind(kind).isV4() {
		addr = netip.AddrFrom4([4]byte(address[12:16]))
	} else {
		addr = netip.AddrFrom16(address)
	}
	locator, err := NewLocator(LocatorKind(kind), netip.AddrPortFrom(addr, uint16(port)))
	if err != nil {
		return decodeError("locator", offset, err)
	}
	*self = locator
	return nil
}

func validateLocatorList(locators []Locator) error {
	for i, locator := range locators {
		if !locator.IsValid() {
			return fmt.Errorf("%w: locator %d is not set", ErrBadLocator, i)
		}
	}
	return nil
}

func encodeLocatorList(w *CdrWriter, locators []Locator) {
	w.WriteUint32(uint32(len(locators)))
	for _, locator := range locators {
		locator.EncodeCdr(w)
	}
}

// each locator is 24 bytes on the wire
const locatorWireLen = 24

func decodeLocatorList(r *CdrReader) ([]Locator, error) {
	offset := r.Offset()
	n, err := r.ReadUint32()
	if err != nil {
		return nil, decodeError("locator_list", offset, err)
	}
	if uint64(r.Remaining()) < uint64(n)*locatorWireLen {
		return nil, decodeError("locator_list", offset, ErrTruncated)
	}
	locators := make([]Locator, 0, n)
	for i := uint32(0); i < n; i += 1 {
		var locator Locator
		if err := locator.DecodeCdr(r); err != nil {
			return nil, err
		}
		locators = append(locators, locator)
	}
	return locators, nil
}
