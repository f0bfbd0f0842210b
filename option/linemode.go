package option

import "github.com/drake/telnetcore/telnet"

// Linemode declares LINEMODE (option 34). It is negotiable but carries
// no further semantics in this core; the capability flag is all a
// caller can observe.
type Linemode struct{ Base }

func NewLinemode() *Linemode {
	return &Linemode{Base: NewBase(telnet.OptLinemode, Caps{SupportRemote: true})}
}

func (l *Linemode) OnRemoteEnable(ctx Engine) {
	ctx.SetCapability("linemode", true)
	l.Base.OnRemoteEnable(ctx)
}

func (l *Linemode) OnRemoteDisable(ctx Engine) {
	ctx.SetCapability("linemode", false)
}
