package option

import "github.com/drake/telnetcore/telnet"

// NAWS implements Negotiate About Window Size (RFC 1073, option 31).
// We request it remotely; the client's subnegotiation payload is a
// fixed 4-byte big-endian (width, height) pair.
type NAWS struct{ Base }

func NewNAWS() *NAWS {
	return &NAWS{Base: NewBase(telnet.OptNAWS, Caps{SupportRemote: true, StartRemote: true})}
}

func (n *NAWS) OnRemoteEnable(ctx Engine) {
	ctx.SetCapability("naws", true)
	n.Base.OnRemoteEnable(ctx)
}

func (n *NAWS) OnRemoteDisable(ctx Engine) {
	ctx.SetCapability("naws", false)
}

// OnReceiveSubnegotiate decodes the 4-byte width/height payload.
// Payloads of any other length are silently dropped.
func (n *NAWS) OnReceiveSubnegotiate(ctx Engine, data []byte) {
	if len(data) != 4 {
		return
	}
	width := int(data[0])<<8 | int(data[1])
	height := int(data[2])<<8 | int(data[3])
	ctx.SetCapabilities(map[string]any{"width": width, "height": height})
}
