package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"github.com/bringyour/rtps/rtps"
	"github.com/bringyour/rtps/rtps/capture"
)

const LocalVersion = "0.0.0-local"

const DefaultSampleCount = 16

func main() {
	usage := `RTPS control.

Usage:
    rtpsctl decode (--hex=<hex> | <file>) [--v=<level>] [--logtostderr]
    rtpsctl encode-acknack --base=<base> [--order=<order>] <sn>... [--v=<level>] [--logtostderr]
    rtpsctl pcap-read <pcap_file> [--port=<port>...] [--v=<level>] [--logtostderr]
    rtpsctl pcap-sample <pcap_file> [--count=<count>] [--snapshot=<snapshot_file>]
        [--v=<level>] [--logtostderr]

Options:
    -h --help                      Show this screen.
    --version                      Show version.
    --hex=<hex>                    Message bytes as hex.
    --base=<base>                  Base of the acknack reader state.
    --order=<order>                Submessage byte order, be or le [default: le].
    --port=<port>                  Only read datagrams to or from this udp port.
    --count=<count>                Number of changes to sample [default: 16].
    --snapshot=<snapshot_file>     Also write the sampled history cache.
    --v=<level>                    Log verbosity.
    --logtostderr                  Log to stderr.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], RequireVersion())
	if err != nil {
		panic(err)
	}

	setLogFlags(opts)
	defer glog.Flush()

	if decode_, _ := opts.Bool("decode"); decode_ {
		err = decode(opts)
	} else if encodeAckNack_, _ := opts.Bool("encode-acknack"); encodeAckNack_ {
		err = encodeAckNack(opts)
	} else if pcapRead_, _ := opts.Bool("pcap-read"); pcapRead_ {
		err = pcapRead(opts)
	} else if pcapSample_, _ := opts.Bool("pcap-sample"); pcapSample_ {
		err = pcapSample(opts)
	}
	if err != nil {
		glog.Errorf("[rtpsctl]%s\n", err)
		glog.Flush()
		os.Exit(1)
	}
}

// docopt owns the arguments, so the glog flags are set directly
func setLogFlags(opts docopt.Opts) {
	flag.CommandLine.Parse([]string{})
	if level, err := opts.String("--v"); err == nil && level != "" {
		flag.Set("v", level)
	}
	if logToStderr, _ := opts.Bool("--logtostderr"); logToStderr {
		flag.Set("logtostderr", "true")
	}
}

func decode(opts docopt.Opts) error {
	var b []byte
	if hexStr, err := opts.String("--hex"); err == nil && hexStr != "" {
		b, err = hex.DecodeString(strings.Join(strings.Fields(hexStr), ""))
		if err != nil {
			return err
		}
	} else {
		path, _ := opts.String("<file>")
		b, err = os.ReadFile(path)
		if err != nil {
			return err
		}
	}

	glog.V(1).Infof("[rtpsctl]decode %d bytes\n", len(b))
	message, err := rtps.Decode(b)
	if err != nil {
		fmt.Print(hexDump(b))
		return err
	}
	fmt.Printf("%s\n", message)
	return nil
}

func encodeAckNack(opts docopt.Opts) error {
	baseStr, _ := opts.String("--base")
	base, err := strconv.ParseUint(baseStr, 10, 64)
	if err != nil {
		return fmt.Errorf("Bad base: %w", err)
	}
	order, err := parseOrder(opts)
	if err != nil {
		return err
	}

	readerSnState, err := rtps.NewSequenceNumberSet(rtps.SequenceNumber(base))
	if err != nil {
		return err
	}
	for _, snStr := range opts["<sn>"].([]string) {
		sn, err := strconv.ParseUint(snStr, 10, 64)
		if err != nil {
			return fmt.Errorf("Bad sequence number: %w", err)
		}
		if _, err := readerSnState.InsertValue(rtps.SequenceNumber(sn)); err != nil {
			return err
		}
	}

	ackNack := &rtps.AckNack{
		ReaderId:      rtps.EntityIdSedpPublicationsReader,
		WriterId:      rtps.EntityIdSedpPublicationsWriter,
		ReaderSnState: readerSnState,
		Count:         1,
	}
	header := rtps.NewHeader(rtps.NewGuidPrefix(rtps.VendorIdUnknown), rtps.VendorIdUnknown)
	message, err := rtps.NewMessage(header, nil, rtps.NewSubMessage(order, ackNack))
	if err != nil {
		return err
	}

	glog.V(1).Infof("[rtpsctl]%s\n", message)
	fmt.Printf("%s\n", hex.EncodeToString(rtps.Encode(message)))
	return nil
}

func parseOrder(opts docopt.Opts) (rtps.ByteOrder, error) {
	orderStr, _ := opts.String("--order")
	switch strings.ToLower(orderStr) {
	case "", "le":
		return rtps.LittleEndian, nil
	case "be":
		return rtps.BigEndian, nil
	default:
		return 0, fmt.Errorf("Bad order: %s", orderStr)
	}
}

func pcapRead(opts docopt.Opts) error {
	path, _ := opts.String("<pcap_file>")
	settings := capture.DefaultCaptureSettings()
	portStrs, _ := opts["--port"].([]string)
	for _, portStr := range portStrs {
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return fmt.Errorf("Bad port: %w", err)
		}
		settings.Ports = append(settings.Ports, uint16(port))
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	datagrams, err := capture.ReadPcap(f, settings)
	for _, datagram := range datagrams {
		fmt.Printf("%s\n", datagram)
	}
	return err
}

// writes one data message and one heartbeat per change, sent by a single writer
func pcapSample(opts docopt.Opts) error {
	path, _ := opts.String("<pcap_file>")
	count, err := opts.Int("--count")
	if err != nil {
		count = DefaultSampleCount
	}

	prefix := rtps.NewGuidPrefix(rtps.VendorIdUnknown)
	writerId := rtps.NewEntityId([3]byte{0x00, 0x00, 0x01}, rtps.EntityKindWriterWithKey)
	readerId := rtps.NewEntityId([3]byte{0x00, 0x00, 0x01}, rtps.EntityKindReaderWithKey)
	writerGuid := rtps.NewGuid(prefix, writerId)

	participant := rtps.NewParticipant(rtps.NewGuid(prefix, rtps.EntityIdParticipant), &rtps.ParticipantSettings{
		DefaultUnicastLocators: []rtps.Locator{
			rtps.RequireLocator(rtps.LocatorKindUdpv4, netip.MustParseAddrPort("127.0.0.1:7411")),
		},
		DefaultMulticastLocators: []rtps.Locator{
			rtps.RequireLocator(rtps.LocatorKindUdpv4, netip.MustParseAddrPort("239.255.0.1:7401")),
		},
	})
	publisher := participant.Publisher(rtps.NewEntityId([3]byte{0x00, 0x00, 0x01}, rtps.EntityKindWriterGroup))
	writer, err := publisher.NewEndpointWithDefaults(writerId)
	if err != nil {
		return err
	}
	source := participant.UnicastLocatorsFor(writer)[0]
	destination := participant.MulticastLocatorsFor(writer)[0]

	cache := rtps.NewMemoryHistoryCacheWithDefaults()
	datagrams := []*capture.OutDatagram{}
	timestamp := time.Now()
	for i := 0; i < count; i += 1 {
		instanceGuid := rtps.NewGuid(prefix, rtps.NewEntityId([3]byte{0x00, 0x01, byte(i % 4)}, rtps.EntityKindUnknown))
		change := rtps.NewAliveChange(writerGuid, instanceGuid, []byte(fmt.Sprintf("\x00\x01\x00\x00sample %d", i)))
		sn, err := cache.Add(change)
		if err != nil {
			return err
		}

		message, err := rtps.NewMessage(
			participant.Header(),
			nil,
			rtps.NewSubMessage(rtps.LittleEndian, &rtps.InfoTimestamp{Timestamp: rtps.TimeFrom(timestamp)}),
			rtps.NewSubMessage(rtps.LittleEndian, change.ToData(readerId, sn)),
			rtps.NewSubMessage(rtps.LittleEndian, rtps.HeartbeatFor(cache, readerId, writerId, uint32(i+1))),
		)
		if err != nil {
			return err
		}
		datagrams = append(datagrams, &capture.OutDatagram{
			Timestamp:   timestamp,
			Source:      source,
			Destination: destination,
			Message:     message,
		})
		timestamp = timestamp.Add(10 * time.Millisecond)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := capture.WritePcap(f, datagrams); err != nil {
		return err
	}
	glog.V(1).Infof("[rtpsctl]wrote %d datagrams to %s\n", len(datagrams), path)

	if snapshotPath, err := opts.String("--snapshot"); err == nil && snapshotPath != "" {
		if err := os.WriteFile(snapshotPath, rtps.EncodeHistorySnapshot(cache), 0644); err != nil {
			return err
		}
		glog.V(1).Infof("[rtpsctl]wrote snapshot of %d changes to %s\n", cache.Len(), snapshotPath)
	}
	return nil
}

// the number of bytes per line fits the terminal when stdout is one
func hexDump(b []byte) string {
	bytesPerLine := 16
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if width, _, err := term.GetSize(fd); err == nil {
			// offset column plus three characters per byte
			bytesPerLine = max(4, ((width-10)/3)/4*4)
		}
	}

	var sb strings.Builder
	for i := 0; i < len(b); i += bytesPerLine {
		end := min(len(b), i+bytesPerLine)
		sb.WriteString(fmt.Sprintf("%08x  % x\n", i, b[i:end]))
	}
	return sb.String()
}

func RequireVersion() string {
	if version := os.Getenv("RTPSCTL_VERSION"); version != "" {
		return version
	}
	return LocalVersion
}
