package option

import (
	"strconv"
	"strings"

	"github.com/drake/telnetcore/capability"
	"github.com/drake/telnetcore/telnet"
)

// mttsExtendedColorClients bump color to xterm-256 on first-reply
// client identification.
var mttsExtendedColorClients = map[string]bool{
	"ATLANTIS": true, "CMUD": true, "KILDCLIENT": true, "MUDLET": true,
	"MUSHCLIENT": true, "PUTTY": true, "POTATO": true, "TINYFUGUE": true,
}

// MTTS implements the staged TTYPE/MTTS terminal-type probe (RFC 1091
// + the MTTS extension, option 24). Up to three SEND/IS round trips
// establish client_name/version, terminal type, and a capability
// bitmask; completion is deferred until the handshake concludes, one
// way or another.
type MTTS struct {
	Base
	stage     int // replies consumed so far: 0 to 3
	lastReply string
	seenColor int // highest color level raised so far, for monotonic raises
}

func NewMTTS() *MTTS {
	return &MTTS{Base: NewBase(telnet.OptMTTS, Caps{SupportRemote: true, StartRemote: true})}
}

func (m *MTTS) OnRemoteEnable(ctx Engine) {
	ctx.SetCapability("mtts", true)
	m.sendProbe(ctx)
}

func (m *MTTS) sendProbe(ctx Engine) {
	ctx.EnqueueSubNegotiate(telnet.OptMTTS, []byte{telnet.OpSEND})
}

// OnReceiveSubnegotiate advances the staged probe. Replies are framed
// as IS <text>; anything else is ignored.
func (m *MTTS) OnReceiveSubnegotiate(ctx Engine, data []byte) {
	if len(data) < 1 || data[0] != telnet.OpIS {
		return
	}
	text := string(data[1:])

	if m.stage > 0 && text == m.lastReply {
		// Client echoes the same reply back: no extended TTYPE support.
		m.Done().Set()
		return
	}
	m.lastReply = text

	switch m.stage {
	case 0:
		m.handleClientIdentification(ctx, text)
	case 1:
		m.handleTerminalType(ctx, text)
	case 2:
		m.handleBitmask(ctx, text)
	default:
		return
	}

	m.stage++
	if m.stage < 3 {
		m.sendProbe(ctx)
	} else {
		m.Done().Set()
	}
}

func (m *MTTS) handleClientIdentification(ctx Engine, text string) {
	name, version, _ := strings.Cut(text, " ")
	ctx.SetCapabilities(map[string]any{
		"client_name":    name,
		"client_version": version,
	})

	// Anything that speaks MTTS at all supports at least basic ANSI.
	m.raiseColor(ctx, capability.ColorANSI)

	upper := strings.ToUpper(name)
	switch {
	case upper == "BEIP":
		m.raiseColor(ctx, capability.ColorTrueColor)
	case mttsExtendedColorClients[upper]:
		m.raiseColor(ctx, capability.ColorXterm256)
	}
	if upper == "MUDLET" && strings.HasPrefix(version, "1.1") {
		m.raiseColor(ctx, capability.ColorXterm256)
	}
}

func (m *MTTS) handleTerminalType(ctx Engine, text string) {
	full := strings.ToUpper(text)
	first, _, _ := strings.Cut(full, "-")

	switch {
	case strings.HasSuffix(full, "-256COLOR"):
		m.raiseColor(ctx, capability.ColorXterm256)
	case strings.HasSuffix(full, "XTERM") && !strings.HasSuffix(full, "-COLOR"):
		m.raiseColor(ctx, capability.ColorXterm256)
	}

	switch first {
	case "VT100":
		ctx.SetCapability("vt100", true)
	case "XTERM":
		m.raiseColor(ctx, capability.ColorXterm256)
	case "DUMB", "ANSI":
		// No effect.
	}
}

// mttsBit flags, LSB to MSB, as reported in the stage-3 bitmask reply.
const (
	mttsBitANSI = 1 << iota
	mttsBitVT100
	mttsBitUTF8
	mttsBitXterm256
	mttsBitMouseTracking
	mttsBitOSCColorPalette
	mttsBitScreenReader
	mttsBitProxy
	mttsBitTrueColor
	mttsBitMNES
	mttsBitMSLP
	mttsBitEncryption
)

func (m *MTTS) handleBitmask(ctx Engine, text string) {
	const prefix = "MTTS "
	if !strings.HasPrefix(text, prefix) {
		return
	}
	bits, err := strconv.Atoi(strings.TrimSpace(text[len(prefix):]))
	if err != nil {
		return
	}

	if bits&mttsBitANSI != 0 {
		m.raiseColor(ctx, capability.ColorANSI)
	}
	if bits&mttsBitVT100 != 0 {
		ctx.SetCapability("vt100", true)
	}
	if bits&mttsBitUTF8 != 0 {
		ctx.SetCapability("encoding", "utf-8")
	}
	if bits&mttsBitXterm256 != 0 {
		m.raiseColor(ctx, capability.ColorXterm256)
	}
	if bits&mttsBitMouseTracking != 0 {
		ctx.SetCapability("mouse_tracking", true)
	}
	if bits&mttsBitOSCColorPalette != 0 {
		ctx.SetCapability("osc_color_palette", true)
	}
	if bits&mttsBitScreenReader != 0 {
		ctx.SetCapability("screen_reader", true)
	}
	if bits&mttsBitProxy != 0 {
		ctx.SetCapability("proxy", true)
	}
	if bits&mttsBitTrueColor != 0 {
		m.raiseColor(ctx, capability.ColorTrueColor)
	}
	if bits&mttsBitMNES != 0 {
		ctx.SetCapability("mnes", true)
	}
	if bits&mttsBitMSLP != 0 {
		ctx.SetCapability("mslp", true)
	}
	if bits&mttsBitEncryption != 0 {
		ctx.SetCapability("tls_support", true)
	}
}

// raiseColor mirrors capability.Record.RaiseColor for handlers, which
// only see the Engine interface and so can't read the record back
// directly: MTTS tracks the highest level it has raised itself and
// only ever pushes the value up across its three stages, never down.
func (m *MTTS) raiseColor(ctx Engine, level int) {
	ctx.SetCapability("color", raisedColor(m.seenColor, level))
	m.seenColor = raisedColor(m.seenColor, level)
}

func raisedColor(have, want int) int {
	if want > have {
		return want
	}
	return have
}
