package option

import "github.com/drake/telnetcore/telnet"

// EOR declares End-Of-Record (option 25). Like LINEMODE it is
// negotiable but carries no further semantics in this core beyond
// recording that the client supports it, so a caller can choose to
// mark prompts with EOR instead of a newline.
type EOR struct{ Base }

func NewEOR() *EOR {
	return &EOR{Base: NewBase(telnet.OptEOR, Caps{SupportLocal: true, StartLocal: true})}
}

func (e *EOR) OnLocalEnable(ctx Engine) {
	ctx.SetCapability("force_endline", true)
	e.Base.OnLocalEnable(ctx)
}

func (e *EOR) OnLocalDisable(ctx Engine) {
	ctx.SetCapability("force_endline", false)
}
