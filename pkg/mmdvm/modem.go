package mmdvm

import (
	"time"

	"github.com/tarm/serial"

	"github.com/dbehnke/dmrcore/pkg/burst"
	"github.com/dbehnke/dmrcore/pkg/config"
	"github.com/dbehnke/dmrcore/pkg/dmr"
	"github.com/dbehnke/dmrcore/pkg/dmrerr"
	"github.com/dbehnke/dmrcore/pkg/logger"
	"github.com/dbehnke/dmrcore/pkg/metrics"
	"github.com/dbehnke/dmrcore/pkg/reactor"
)

// silenceThreshold is the gap after which a newly-arriving voice-sync
// burst is treated as the start of a fresh stream rather than a
// continuation, grounded on spec scenario S4 (120ms).
const silenceThreshold = 120 * time.Millisecond

// pollInterval is how often the reactor timer polls the serial port.
// tarm/serial has no usable raw fd for unix.Select, so reads are
// driven from the timer tick with a short read deadline instead of a
// blocking read inside a callback, per SPEC_FULL.md 4.6/4.7.
const pollInterval = 10 * time.Millisecond

// Transport is the serial-line MMDVM modem connection: framing,
// command/ACK bookkeeping, and DMR burst encode/decode to and from the
// modem's DMR_DATA1/DMR_DATA2 wire frames.
type Transport struct {
	cfg  config.MMDVMConfig
	port *serial.Port
	log  *logger.Logger

	reader *Reader

	lastActivity [2]time.Time
	sequence     [2]uint8

	onPacket func(*dmr.ParsedPacket)
	onFrame  func(Frame)

	metrics *metrics.Collector
}

// SetMetrics installs the optional counter collector; a nil collector (the
// default) disables counting, not delivery.
func (t *Transport) SetMetrics(c *metrics.Collector) { t.metrics = c }

// Name identifies this transport to the bridge router and routing rules;
// it is the key this Transport's MMDVMConfig was registered under.
func (t *Transport) Name() string { return t.cfg.Name }

// Open opens the serial line and performs the reference's start
// sequence (set mode DMR, set config), grounded on dmr_mmdvm_start.
func Open(cfg config.MMDVMConfig, log *logger.Logger) (*Transport, error) {
	if log == nil {
		log = logger.Discard()
	}
	sc := &serial.Config{Name: cfg.Port, Baud: cfg.BaudRate, ReadTimeout: pollInterval}
	port, err := serial.OpenPort(sc)
	if err != nil {
		return nil, dmrerr.Wrap(dmrerr.WriteFailure, "open mmdvm serial port", err)
	}

	t := &Transport{
		cfg:    cfg,
		port:   port,
		log:    log.WithComponent("mmdvm"),
		reader: NewReader(),
	}

	if err := t.setMode(modeDMR); err != nil {
		return nil, err
	}
	if err := t.setConfig(); err != nil {
		return nil, err
	}
	return t, nil
}

const (
	modeIdle = 0x00
	modeDMR  = 0x02
)

func (t *Transport) setMode(mode byte) error {
	return t.writeFrame(CmdSetMode, []byte{mode})
}

func (t *Transport) setConfig() error {
	payload := []byte{
		0,                  // invert flags
		modeDMR,            // mode
		0,                  // TX delay ms
		modeDMR,            // modem state
		t.cfg.RXLevel,
		t.cfg.TXLevel,
		t.cfg.ColorCode,
	}
	return t.writeFrame(CmdSetConfig, payload)
}

func (t *Transport) writeFrame(cmd Command, payload []byte) error {
	_, err := t.port.Write(Encode(cmd, payload))
	if err != nil {
		return dmrerr.Wrap(dmrerr.WriteFailure, "write mmdvm frame", err)
	}
	return nil
}

// OnPacket sets the callback invoked for every decoded DMR burst,
// including any synthesized leading VOICE_LC burst.
func (t *Transport) OnPacket(fn func(*dmr.ParsedPacket)) { t.onPacket = fn }

// Register wires a poll timer into loop; Open must be called first.
func (t *Transport) Register(loop *reactor.Loop) {
	loop.RegisterTimer(pollInterval, t.poll, false)
}

// poll performs one non-blocking read (bounded by the port's read
// deadline) and processes every complete frame it yields.
func (t *Transport) poll() error {
	buf := make([]byte, 255)
	n, err := t.port.Read(buf)
	if err != nil {
		return dmrerr.Wrap(dmrerr.ReadFailure, "read mmdvm serial port", err)
	}
	if n > 0 {
		t.reader.Feed(buf[:n])
	}
	for {
		frame, ok := t.reader.Next()
		if !ok {
			return nil
		}
		t.handleFrame(frame)
	}
}

func (t *Transport) handleFrame(f Frame) {
	switch f.Command {
	case CmdDMRData1:
		t.handleDMRData(burst.TS1, f.Payload)
	case CmdDMRData2:
		t.handleDMRData(burst.TS2, f.Payload)
	case CmdACK:
		t.log.Debug("modem ACK")
	case CmdNAK:
		reason := NAKReason(0)
		if len(f.Payload) > 0 {
			reason = NAKReason(f.Payload[0])
		}
		t.log.Warn("modem NAK", logger.String("reason", reason.String()))
	case CmdGetStatus:
		t.log.Debug("modem status reply")
	case CmdGetVersion:
		t.log.Debug("modem version reply")
	default:
		t.log.Debug("unhandled mmdvm frame", logger.String("command", f.Command.String()))
	}
}

// handleDMRData decodes one DMR_DATA frame's control byte and 33-byte
// burst, grounded on dmr_mmdvm_parse_frame's DMR_DATA1/DATA2 case and
// dmr_mmdvm_send's inverse control-byte construction. When a
// voice-sync burst arrives after more than silenceThreshold of
// inactivity on this timeslot, a synthesised VOICE_LC burst carrying
// the same Full LC is delivered first, per scenario S4.
func (t *Transport) handleDMRData(ts burst.Timeslot, payload []byte) {
	if len(payload) != 1+burst.Len {
		t.log.Debug("dropping malformed DMR data frame", logger.Int("len", len(payload)))
		return
	}
	control := payload[0]
	b, err := burst.FromBytes(payload[1:])
	if err != nil {
		t.log.Debug("dropping malformed DMR burst", logger.Error(err))
		return
	}

	slot := 0
	if ts == burst.TS2 {
		slot = 1
	}
	now := time.Now()
	freshStream := t.lastActivity[slot].IsZero() || now.Sub(t.lastActivity[slot]) > silenceThreshold
	t.lastActivity[slot] = now

	isVoiceSync := control&0x20 != 0
	if freshStream && isVoiceSync {
		if lc, ok := b.FullLC(burst.CRCMaskVoiceLC); ok {
			synth := burst.New()
			synth.SetSync(burst.SyncBSSourcedData)
			synth.SetSlotType(burst.SlotType{ColorCode: t.cfg.ColorCode, DataType: burst.DataTypeVoiceLC})
			synth.SetFullLC(lc, burst.CRCMaskVoiceLC)
			t.deliver(&dmr.ParsedPacket{
				Timeslot: ts,
				FLCO:     lc.FLCO,
				SrcID:    lc.SrcID,
				DstID:    lc.DstID,
				DataType: burst.DataTypeVoiceLC,
				Sequence: t.sequence[slot],
				Burst:    synth,
			})
			t.sequence[slot]++
		} else if t.metrics != nil {
			t.metrics.DropFEC()
		}
	}

	if t.metrics != nil {
		t.metrics.PacketIn(t.Name())
	}

	t.deliver(&dmr.ParsedPacket{
		Timeslot: ts,
		DataType: burst.DataType(control & 0x0f),
		Sequence: t.sequence[slot],
		Burst:    b,
	})
	t.sequence[slot]++
}

func (t *Transport) deliver(p *dmr.ParsedPacket) {
	if t.onPacket != nil {
		t.onPacket(p)
	}
}

// Send transmits p to the modem as a DMR_DATA1/DMR_DATA2 frame,
// grounded on dmr_mmdvm_send's control-byte-from-sync-pattern logic.
func (t *Transport) Send(p *dmr.ParsedPacket) error {
	var control byte
	switch p.Burst.Sync() {
	case burst.SyncBSSourcedVoice, burst.SyncMSSourcedVoice:
		control |= 0x20
	case burst.SyncBSSourcedData, burst.SyncMSSourcedData:
		control |= 0x40
		control |= uint8(p.DataType) & 0x0f
	}

	cmd := CmdDMRData1
	if p.Timeslot == burst.TS2 {
		cmd = CmdDMRData2
	}
	payload := make([]byte, 1+burst.Len)
	payload[0] = control
	copy(payload[1:], p.Burst.Bytes())
	if err := t.writeFrame(cmd, payload); err != nil {
		return err
	}
	if t.metrics != nil {
		t.metrics.PacketOut(t.Name())
	}
	return nil
}

// Close releases the serial port.
func (t *Transport) Close() error {
	return t.port.Close()
}
