package option

import "github.com/drake/telnetcore/telnet"

// msspVarByte/msspValByte delimit MSSP's variable/value pairs within
// a single subnegotiation payload.
const (
	msspVarByte byte = 0x01
	msspValByte byte = 0x02
)

// MSSP implements the Mud Server Status Protocol (option 70): the
// engine offers it locally and, once enabled, SendMSSP encodes a
// key/value map for the peer.
type MSSP struct{ Base }

func NewMSSP() *MSSP {
	return &MSSP{Base: NewBase(telnet.OptMSSP, Caps{SupportLocal: true, StartLocal: true})}
}

func (m *MSSP) OnLocalEnable(ctx Engine) {
	ctx.SetCapability("mssp", true)
	m.Base.OnLocalEnable(ctx)
}

func (m *MSSP) OnLocalDisable(ctx Engine) {
	ctx.SetCapability("mssp", false)
}

// Send encodes values as MSSP VAR/VAL pairs in map iteration order and
// enqueues the resulting subnegotiation.
func (m *MSSP) Send(ctx Engine, values map[string]string) {
	var payload []byte
	for k, v := range values {
		payload = append(payload, msspVarByte)
		payload = append(payload, k...)
		payload = append(payload, msspValByte)
		payload = append(payload, v...)
	}
	ctx.EnqueueSubNegotiate(telnet.OptMSSP, payload)
}
