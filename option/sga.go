package option

import "github.com/drake/telnetcore/telnet"

// SGA implements Suppress Go-Ahead (RFC 858, option 3). We offer it
// locally; there is no subnegotiation. Enabling it sets the sga
// capability (disabling clears it) besides the default completion
// signaling.
type SGA struct{ Base }

// NewSGA constructs the handler with Start-local-only capabilities.
func NewSGA() *SGA {
	return &SGA{Base: NewBase(telnet.OptSGA, Caps{SupportLocal: true, StartLocal: true})}
}

func (s *SGA) OnLocalEnable(ctx Engine) {
	ctx.SetCapability("sga", true)
	s.Base.OnLocalEnable(ctx)
}

func (s *SGA) OnLocalDisable(ctx Engine) {
	ctx.SetCapability("sga", false)
}
