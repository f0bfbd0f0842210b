package option

import "github.com/drake/telnetcore/telnet"

// charsetRequestVerb/charsetAcceptedVerb are RFC 2066's CHARSET
// subnegotiation operation bytes.
const (
	charsetRequestVerb  byte = 0x01
	charsetAcceptedVerb byte = 0x02
)

// defaultCharsetRequest is "REQUEST ascii utf-8": the REQUEST verb
// followed by a space-separated list of acceptable character sets,
// each preceded by its separator.
var defaultCharsetRequest = []byte{charsetRequestVerb, ' ', 'a', 's', 'c', 'i', 'i', ' ', 'u', 't', 'f', '-', '8'}

// Charset implements RFC 2066 CHARSET negotiation (option 42). Both
// sides are supported and offered at Start. Completion is deferred
// past the default WILL/DO handshake until the ACCEPTED subnegotiation
// arrives, since the encoding itself is only known then.
type Charset struct {
	Base
	requested bool // first local-or-remote enable wins the single request
}

func NewCharset() *Charset {
	return &Charset{Base: NewBase(telnet.OptCharset, Caps{
		SupportLocal: true, SupportRemote: true,
		StartLocal: true, StartRemote: true,
	})}
}

// OnLocalEnable and OnRemoteEnable both route through maybeRequest
// instead of Base's default (which would fire the completion signal
// immediately); CHARSET's handshake is not done until ACCEPTED arrives
// in a subsequent subnegotiation. Any other reply, REJECTED included,
// is ignored and leaves the completion signal unset.
func (c *Charset) OnLocalEnable(ctx Engine)  { c.maybeRequest(ctx) }
func (c *Charset) OnRemoteEnable(ctx Engine) { c.maybeRequest(ctx) }

func (c *Charset) maybeRequest(ctx Engine) {
	if c.requested {
		return
	}
	c.requested = true
	ctx.EnqueueSubNegotiate(telnet.OptCharset, defaultCharsetRequest)
}

// OnReceiveSubnegotiate handles the ACCEPTED reply: byte 0 is the
// verb, the remainder is the chosen character set name.
func (c *Charset) OnReceiveSubnegotiate(ctx Engine, data []byte) {
	if len(data) < 1 || data[0] != charsetAcceptedVerb {
		return
	}
	name := string(data[1:])
	if name == "" {
		return
	}
	ctx.SetCapability("encoding", name)
	c.Done().Set()
}
