package option

import "github.com/drake/telnetcore/telnet"

// Dispatch applies the authoritative WILL/WONT/DO/DONT state table to
// a received negotiation verb for handler h. It is shared across every
// concrete handler so the four-state dance lives in one place instead
// of being reimplemented per option.
func Dispatch(h Handler, ctx Engine, verb byte) {
	caps := h.Caps()
	switch verb {
	case telnet.WILL:
		remote := h.Remote()
		if !caps.SupportRemote {
			ctx.EnqueueNegotiate(telnet.DONT, h.Option())
			return
		}
		if !remote.Enabled {
			remote.Enabled = true
			if !remote.Negotiating {
				ctx.EnqueueNegotiate(telnet.DO, h.Option())
			}
			h.OnRemoteEnable(ctx)
			remote.Negotiating = false
		}

	case telnet.DO:
		local := h.Local()
		if !caps.SupportLocal {
			ctx.EnqueueNegotiate(telnet.WONT, h.Option())
			return
		}
		if !local.Enabled {
			local.Enabled = true
			if !local.Negotiating {
				ctx.EnqueueNegotiate(telnet.WILL, h.Option())
			}
			h.OnLocalEnable(ctx)
			local.Negotiating = false
		}

	case telnet.WONT:
		if caps.SupportRemote {
			remote := h.Remote()
			if remote.Enabled {
				remote.Enabled = false
				h.OnRemoteDisable(ctx)
			}
			if remote.Negotiating {
				remote.Negotiating = false
				h.OnRemoteReject(ctx)
			}
		}

	case telnet.DONT:
		if caps.SupportLocal {
			local := h.Local()
			if local.Enabled {
				local.Enabled = false
				h.OnLocalDisable(ctx)
			}
			if local.Negotiating {
				local.Negotiating = false
				h.OnLocalReject(ctx)
			}
		}
	}

	h.OnReceiveNegotiate(ctx, verb)
}

// Refuse implements the polite-refusal rule for an option with no
// registered handler: WILL -> DONT, DO -> WONT, WONT/DONT -> nothing.
func Refuse(ctx Engine, verb, opt byte) {
	switch verb {
	case telnet.WILL:
		ctx.EnqueueNegotiate(telnet.DONT, opt)
	case telnet.DO:
		ctx.EnqueueNegotiate(telnet.WONT, opt)
	}
}
