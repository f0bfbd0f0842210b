// Package engine ties the frame parser, the transformer chain, and the
// option handler roster into a single per-connection protocol engine.
// It owns no socket and no goroutine of its own: a host feeds it bytes
// via ReceiveData and drains queued output via Drain, on whatever
// threading model the host prefers.
package engine

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/drake/telnetcore/capability"
	"github.com/drake/telnetcore/option"
	"github.com/drake/telnetcore/telnet"
)

// Callbacks are the host-settable hooks the engine invokes while
// dispatching inbound frames. Any of them may be nil.
type Callbacks struct {
	Line               func(line string)
	Command            func(code byte)
	ChangeCapabilities func(key string, value any)
	GMCP               func(command string, data any)
}

// Config holds the engine's construction-time dependencies: the
// handler roster, an optional logger, the initial text encoding, and
// an optional JSON codec for GMCP.
type Config struct {
	Handlers []option.Handler
	Logger   *log.Logger
	Encoding string
	Codec    JSONCodec
}

// Engine is the protocol engine for one connection. It holds no locks
// and is not safe for concurrent use; a host that drives it from more
// than one goroutine must serialize access itself.
type Engine struct {
	caps     *capability.Record
	handlers []option.Handler
	byOption map[byte]option.Handler
	chain    *telnet.Chain

	inbound []byte
	lineBuf []byte

	outbound []*telnet.Frame

	codec     JSONCodec
	logger    *log.Logger
	callbacks Callbacks
}

// New constructs an Engine from cfg. The returned Engine is passive:
// no negotiation happens until Start is called.
func New(cfg Config) *Engine {
	codec := cfg.Codec
	if codec == nil {
		codec = DefaultJSONCodec{}
	}

	caps := capability.New()
	if cfg.Encoding != "" {
		caps.SetOne("encoding", cfg.Encoding)
	}

	byOption := make(map[byte]option.Handler, len(cfg.Handlers))
	for _, h := range cfg.Handlers {
		byOption[h.Option()] = h
	}

	e := &Engine{
		caps:     caps,
		handlers: cfg.Handlers,
		byOption: byOption,
		chain:    &telnet.Chain{},
		codec:    codec,
		logger:   cfg.Logger,
	}
	caps.OnChange(func(key string, value any) {
		if e.callbacks.ChangeCapabilities != nil {
			e.callbacks.ChangeCapabilities(key, value)
		}
	})
	return e
}

// Capabilities returns the live capability record. Callers must not
// mutate it directly; use ChangeCapabilities.
func (e *Engine) Capabilities() *capability.Record { return e.caps }

// SetCallbacks installs the host's callback set, replacing any
// previous one.
func (e *Engine) SetCallbacks(cb Callbacks) { e.callbacks = cb }

// Start invokes every handler's Start hook, producing the initial
// WILL/DO salvo, and returns each handler's completion signal for the
// host to wait on.
func (e *Engine) Start() []*option.Signal {
	signals := make([]*option.Signal, 0, len(e.handlers))
	for _, h := range e.handlers {
		h.Start(e)
		signals = append(signals, h.Done())
	}
	return signals
}

// ReceiveData feeds bytes into the inbound transformer chain, appends
// the result to the inbound buffer, and dispatches every complete
// frame it can parse. It returns the size of the residual (unparsed)
// buffer. The loop re-reads the buffer's length each iteration because
// MCCP3 activation can replace it mid-loop.
func (e *Engine) ReceiveData(data []byte) (int, error) {
	decoded, err := e.chain.In(data)
	if err != nil {
		// The chain doesn't know which handler owns the failing
		// transformer, so every handler is notified; only the one that
		// actually installed an inbound transformer (MCCP3) does
		// anything with it.
		for _, h := range e.handlers {
			h.OnInTransformError(e, err)
		}
		return len(e.inbound), err
	}
	e.inbound = append(e.inbound, decoded...)

	for {
		consumed, frame := telnet.Parse(e.inbound)
		if frame == nil {
			break
		}
		e.inbound = e.inbound[consumed:]
		e.dispatch(frame)
	}
	return len(e.inbound), nil
}

func (e *Engine) dispatch(f *telnet.Frame) {
	switch f.Kind {
	case telnet.KindData:
		e.dispatchData(f.Data)
	case telnet.KindCommand:
		if e.callbacks.Command != nil {
			e.callbacks.Command(f.Code)
		}
	case telnet.KindNegotiate:
		if h, ok := e.byOption[f.Option]; ok {
			option.Dispatch(h, e, f.Verb)
		} else {
			option.Refuse(e, f.Verb, f.Option)
		}
	case telnet.KindSubNegotiate:
		if h, ok := e.byOption[f.Option]; ok {
			h.OnReceiveSubnegotiate(e, f.Payload)
		}
	}
}

// dispatchData appends to the partial-line buffer, then peels off and
// fires every complete line it now contains.
func (e *Engine) dispatchData(data []byte) {
	e.lineBuf = append(e.lineBuf, data...)
	for {
		idx := bytes.IndexByte(e.lineBuf, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSuffix(e.lineBuf[:idx], []byte("\r"))
		e.lineBuf = e.lineBuf[idx+1:]
		if e.callbacks.Line != nil {
			e.callbacks.Line(e.decodeText(line))
		}
	}
}

// decodeText applies the negotiated text encoding, falling back to a
// lossy UTF-8 interpretation for an unrecognized or absent charset.
func (e *Engine) decodeText(raw []byte) string {
	cm, ok := charmapsByName[strings.ToUpper(e.caps.Encoding)]
	if !ok {
		return strings.ToValidUTF8(string(raw), "")
	}
	decoded, _, err := transform.Bytes(cm.NewDecoder(), raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "")
	}
	return string(decoded)
}

// charmapsByName covers the single-byte character sets a CHARSET or
// MTTS negotiation might name; UTF-8 and ASCII need no decoder since
// ASCII is a subset of UTF-8.
var charmapsByName = map[string]*charmap.Charmap{
	"ISO-8859-1":   charmap.ISO8859_1,
	"ISO8859-1":    charmap.ISO8859_1,
	"LATIN1":       charmap.ISO8859_1,
	"CP437":        charmap.CodePage437,
	"WINDOWS-1252": charmap.Windows1252,
}

// Drain serializes and returns every queued outbound frame's bytes, in
// FIFO order, clearing the queue. Each frame's bytes are run through
// the outbound chain first, and only then does its owning handler's
// OnSendNegotiate/OnSendSubnegotiate hook run; the hook only affects
// the frames after it in the queue, so the frame that triggered it,
// MCCP2's empty activation subnegotiation in particular, reaches the
// wire through the chain as it stood before the hook ran.
func (e *Engine) Drain() []byte {
	var out []byte
	for _, f := range e.outbound {
		raw := telnet.Serialize(f)
		chunk := e.chain.Out(raw)

		switch f.Kind {
		case telnet.KindNegotiate:
			if h, ok := e.byOption[f.Option]; ok {
				h.OnSendNegotiate(e, f.Verb)
			}
		case telnet.KindSubNegotiate:
			if h, ok := e.byOption[f.Option]; ok {
				h.OnSendSubnegotiate(e, f.Payload)
			}
		}
		out = append(out, chunk...)
	}
	e.outbound = e.outbound[:0]
	return out
}

// SendText canonicalizes newlines (bare \n becomes \r\n, existing
// \r\n and isolated \r are preserved), escapes every 0xFF byte by
// doubling, and enqueues the result as a Data frame.
func (e *Engine) SendText(s string) {
	e.outbound = append(e.outbound, &telnet.Frame{
		Kind: telnet.KindData,
		Data: telnet.EscapeIAC(canonicalizeNewlines(s)),
	})
}

// SendLine ensures a trailing newline, then behaves as SendText.
func (e *Engine) SendLine(s string) {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	e.SendText(s)
}

func canonicalizeNewlines(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\n' && (i == 0 || s[i-1] != '\r') {
			out = append(out, '\r')
		}
		out = append(out, c)
	}
	return out
}

// SendGMCP delegates to the GMCP handler iff capabilities.gmcp is set.
func (e *Engine) SendGMCP(command string, data any) error {
	if !e.caps.GMCP {
		return nil
	}
	h, ok := e.byOption[telnet.OptGMCP].(*option.GMCP)
	if !ok {
		return fmt.Errorf("engine: no GMCP handler registered")
	}
	return h.Send(e, command, data)
}

// SendMSSP delegates to the MSSP handler iff capabilities.mssp is set.
func (e *Engine) SendMSSP(values map[string]string) error {
	if !e.caps.MSSP {
		return nil
	}
	h, ok := e.byOption[telnet.OptMSSP].(*option.MSSP)
	if !ok {
		return fmt.Errorf("engine: no MSSP handler registered")
	}
	h.Send(e, values)
	return nil
}

// ChangeCapabilities is the single mutation entry point exposed to the
// host; it sets each key and fires the change_capabilities callback
// once per key.
func (e *Engine) ChangeCapabilities(values map[string]any) {
	e.caps.Set(values)
}

// --- option.Engine implementation ---

func (e *Engine) EnqueueNegotiate(verb, opt byte) {
	e.outbound = append(e.outbound, &telnet.Frame{Kind: telnet.KindNegotiate, Verb: verb, Option: opt})
}

func (e *Engine) EnqueueSubNegotiate(opt byte, payload []byte) {
	e.outbound = append(e.outbound, &telnet.Frame{Kind: telnet.KindSubNegotiate, Option: opt, Payload: payload})
}

func (e *Engine) SetCapabilities(values map[string]any) { e.caps.Set(values) }
func (e *Engine) SetCapability(key string, value any)   { e.caps.SetOne(key, value) }

func (e *Engine) AppendInTransformer(t option.InTransformer)   { e.chain.AppendIn(t) }
func (e *Engine) AppendOutTransformer(t option.OutTransformer) { e.chain.AppendOut(t) }
func (e *Engine) RemoveInTransformer(t option.InTransformer)   { e.chain.RemoveIn(t) }

// DecompressResidue runs the engine's current unparsed inbound residue
// through t and replaces it with the result. MCCP3 calls this at
// activation, passing the inflater it just installed, so bytes already
// sitting in the buffer ahead of the parser are decompressed along
// with everything that follows — the residue, not the activating
// subnegotiation's own (typically empty) payload.
func (e *Engine) DecompressResidue(t option.InTransformer) error {
	decompressed, err := t.TransformIn(e.inbound)
	if err != nil {
		return err
	}
	e.inbound = decompressed
	return nil
}

func (e *Engine) EncodeJSON(v any) ([]byte, error) { return e.codec.Encode(v) }
func (e *Engine) DecodeJSON(data []byte) (any, error) {
	return e.codec.Decode(data)
}

func (e *Engine) FireGMCP(command string, data any) {
	if e.callbacks.GMCP != nil {
		e.callbacks.GMCP(command, data)
	}
}

var _ option.Engine = (*Engine)(nil)
