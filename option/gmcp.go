package option

import (
	"bytes"

	"github.com/drake/telnetcore/telnet"
)

// GMCP implements the Generic Mud Communication Protocol (option 201):
// a command name optionally followed by a JSON payload, carried in a
// single subnegotiation.
type GMCP struct{ Base }

func NewGMCP() *GMCP {
	return &GMCP{Base: NewBase(telnet.OptGMCP, Caps{SupportLocal: true, StartLocal: true})}
}

func (g *GMCP) OnLocalEnable(ctx Engine) {
	ctx.SetCapability("gmcp", true)
	g.Base.OnLocalEnable(ctx)
}

func (g *GMCP) OnLocalDisable(ctx Engine) {
	ctx.SetCapability("gmcp", false)
}

// Send encodes command, optionally followed by a space and the
// JSON-encoded data, and enqueues the subnegotiation.
func (g *GMCP) Send(ctx Engine, command string, data any) error {
	payload := []byte(command)
	if data != nil {
		encoded, err := ctx.EncodeJSON(data)
		if err != nil {
			return err
		}
		payload = append(payload, ' ')
		payload = append(payload, encoded...)
	}
	ctx.EnqueueSubNegotiate(telnet.OptGMCP, payload)
	return nil
}

// OnReceiveSubnegotiate splits the payload on the first space into a
// command name and a JSON text. A decode failure still fires the
// callback, with data set to nil.
func (g *GMCP) OnReceiveSubnegotiate(ctx Engine, payload []byte) {
	command := string(payload)
	var jsonText []byte
	if idx := bytes.IndexByte(payload, ' '); idx >= 0 {
		command = string(payload[:idx])
		jsonText = payload[idx+1:]
	}

	var data any
	if len(jsonText) > 0 {
		decoded, err := ctx.DecodeJSON(jsonText)
		if err == nil {
			data = decoded
		}
	}
	ctx.FireGMCP(command, data)
}
