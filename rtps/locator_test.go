package rtps

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestLocatorConversions(t *testing.T) {
	locator, err := LocatorFromUDPAddr(&net.UDPAddr{IP: net.ParseIP("10.1.2.3"), Port: 7400})
	assert.Equal(t, nil, err)
	assert.Equal(t, LocatorKindUdpv4, locator.Kind())
	assert.Equal(t, netip.MustParseAddrPort("10.1.2.3:7400"), locator.AddrPort())
	assert.Equal(t, true, locator.IsUdp())
	assert.Equal(t, "udpv4://10.1.2.3:7400", locator.String())

	locator, err = LocatorFromTCPAddr(&net.TCPAddr{IP: net.ParseIP("fe80::1"), Port: 7410})
	assert.Equal(t, nil, err)
	assert.Equal(t, LocatorKindTcpv6, locator.Kind())
	assert.Equal(t, false, locator.IsUdp())
	assert.Equal(t, 7410, locator.TCPAddr().Port)

	// 4 in 6 is treated as ipv4
	locator, err = UdpLocator(netip.MustParseAddrPort("[::ffff:10.0.0.1]:80"))
	assert.Equal(t, nil, err)
	assert.Equal(t, LocatorKindUdpv4, locator.Kind())
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), locator.AddrPort().Addr())

	_, err = LocatorFromUDPAddr(nil)
	assert.Equal(t, ErrBadLocator, err)

	_, err = NewLocator(LocatorKindUdpv4, netip.MustParseAddrPort("[ff02::1]:7400"))
	assert.Equal(t, ErrBadLocator, err)

	_, err = NewLocator(LocatorKind(3), netip.MustParseAddrPort("10.0.0.1:7400"))
	assert.Equal(t, ErrBadLocator, err)

	_, err = NewLocator(LocatorKindUdpv6, netip.AddrPort{})
	assert.Equal(t, ErrBadLocator, err)
}

func TestLocatorWire(t *testing.T) {
	locator := RequireLocator(LocatorKindUdpv4, netip.MustParseAddrPort("239.255.0.1:7400"))

	b := EncodeCdr(locator, BigEndian)
	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x1c, 0xe8,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		239, 255, 0, 1,
	}, b)

	for _, order := range []ByteOrder{BigEndian, LittleEndian} {
		for _, l := range []Locator{
			locator,
			RequireLocator(LocatorKindUdpv6, netip.MustParseAddrPort("[2001:db8::7]:7401")),
			RequireLocator(LocatorKindTcpv4, netip.MustParseAddrPort("127.0.0.1:1")),
		} {
			var decoded Locator
			err := DecodeCdr(&decoded, order, EncodeCdr(l, order))
			assert.Equal(t, nil, err)
			assert.Equal(t, l, decoded)
		}
	}

	// invalid kind
	invalid := append([]byte{}, b...)
	invalid[3] = 0
	var decoded Locator
	err := DecodeCdr(&decoded, BigEndian, invalid)
	assert.Equal(t, true, errors.Is(err, ErrBadLocator))

	// port out of range
	invalid = append([]byte{}, b...)
	invalid[5] = 1
	err = DecodeCdr(&decoded, BigEndian, invalid)
	assert.Equal(t, true, errors.Is(err, ErrBadLocator))

	err = DecodeCdr(&decoded, BigEndian, b[:20])
	assert.Equal(t, true, errors.Is(err, ErrTruncated))
}
