// Package option implements the per-option negotiation state machine
// and the concrete handler roster: SGA, NAWS, CHARSET, MTTS, MSSP,
// GMCP, MCCP2, MCCP3, LINEMODE, and EOR.
//
// A Handler is polymorphic over a fixed capability set
// (OnReceiveNegotiate, OnReceiveSubnegotiate, OnSendNegotiate,
// OnSendSubnegotiate, OnLocalEnable/Disable, OnRemoteEnable/Disable,
// OnLocalReject/OnRemoteReject, Start). Concrete handlers embed Base,
// which supplies every method as a no-op, and override only the ones
// their protocol needs — composition standing in for the "interface
// with default no-op methods, not inheritance chains" the design notes
// call for.
package option

import (
	"sync"

	"github.com/drake/telnetcore/telnet"
)

// Side models one direction (local or remote) of a single option's
// negotiation state: whether it is enabled, and whether an offer is
// currently in flight awaiting a reply.
type Side struct {
	Enabled     bool
	Negotiating bool
}

// Signal is a one-shot, level-triggered completion event: once Set is
// called, every past and future Wait() resolves immediately. This is
// deliberately not a channel send (which only one receiver observes)
// nor a condition variable (edge-triggered).
type Signal struct {
	once sync.Once
	done chan struct{}
	mu   sync.Mutex
}

// NewSignal returns a ready-to-use Signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Set fires the signal. Safe to call more than once; only the first
// call has any effect, since a handler's completion signal fires
// exactly once per lifetime.
func (s *Signal) Set() {
	s.once.Do(func() { close(s.done) })
}

// Fired reports whether Set has already been called.
func (s *Signal) Fired() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Wait returns a channel that is closed once Set has fired. Any number
// of callers may Wait concurrently or after the fact.
func (s *Signal) Wait() <-chan struct{} {
	return s.done
}

// Caps declares which negotiation roles a handler plays: whether it
// can ever be enabled on each side, and whether the engine should
// proactively offer it on Start().
type Caps struct {
	SupportLocal  bool
	SupportRemote bool
	StartLocal    bool
	StartRemote   bool
}

// Engine is the subset of the protocol engine a handler hook needs:
// enqueuing outbound frames, mutating capabilities, and reaching the
// inbound/outbound transformer chain. Handlers hold no back-reference
// of their own; the engine passes itself as ctx to every hook instead,
// which avoids a reference cycle between engine and handler. Implemented
// by *engine.Engine.
type Engine interface {
	EnqueueNegotiate(verb, opt byte)
	EnqueueSubNegotiate(opt byte, payload []byte)
	SetCapabilities(values map[string]any)
	SetCapability(key string, value any)
	AppendInTransformer(t InTransformer)
	AppendOutTransformer(t OutTransformer)
	RemoveInTransformer(t InTransformer)
	// DecompressResidue feeds the engine's own unparsed inbound residue
	// (the bytes already buffered ahead of the parser at this instant,
	// not the subnegotiation payload that triggered the call) through
	// t and replaces the residue with the result, atomically. MCCP3
	// uses this at activation so bytes already sitting in the parser
	// buffer are decompressed along with everything that arrives after.
	DecompressResidue(t InTransformer) error

	// EncodeJSON and DecodeJSON delegate to the engine's injected JSON
	// codec, so GMCP never imports an encoding package of its own.
	EncodeJSON(v any) ([]byte, error)
	DecodeJSON(data []byte) (any, error)

	// FireGMCP invokes the application's gmcp callback, if any.
	FireGMCP(command string, data any)
}

// InTransformer and OutTransformer mirror the telnet package's
// interfaces of the same names, so any handler-installed transformer
// satisfies both the option and the telnet form.
type InTransformer interface {
	TransformIn(data []byte) ([]byte, error)
}

type OutTransformer interface {
	TransformOut(data []byte) []byte
}

// Handler is the full polymorphic hook set. Base supplies every method
// as a no-op; concrete handlers embed Base and override selectively.
type Handler interface {
	Option() byte
	Caps() Caps
	Local() *Side
	Remote() *Side
	Done() *Signal

	Start(ctx Engine)
	OnReceiveNegotiate(ctx Engine, verb byte)
	OnReceiveSubnegotiate(ctx Engine, payload []byte)
	OnSendNegotiate(ctx Engine, verb byte)
	OnSendSubnegotiate(ctx Engine, payload []byte)
	OnLocalEnable(ctx Engine)
	OnLocalDisable(ctx Engine)
	OnRemoteEnable(ctx Engine)
	OnRemoteDisable(ctx Engine)
	OnLocalReject(ctx Engine)
	OnRemoteReject(ctx Engine)

	// OnInTransformError notifies a handler that its installed inbound
	// transformer failed. Only a handler that has appended one (MCCP3)
	// does anything with this; every other handler inherits Base's
	// no-op. The engine broadcasts this to the whole roster on a chain
	// error since it has no way to know which handler owns the failing
	// transformer.
	OnInTransformError(ctx Engine, err error)
}

// Base implements Handler with no-op hooks and the bookkeeping every
// concrete handler needs (option code, capability flags, sides,
// completion signal). Embed it, then override only the hooks that
// matter — e.g. NAWS overrides OnRemoteEnable, OnRemoteDisable and
// OnReceiveSubnegotiate and leaves the rest as Base's defaults.
type Base struct {
	OptionCode byte
	Capacity   Caps
	LocalSide  Side
	RemoteSide Side
	Signal     *Signal
}

// NewBase constructs a Base with a fresh completion signal.
func NewBase(opt byte, caps Caps) Base {
	return Base{OptionCode: opt, Capacity: caps, Signal: NewSignal()}
}

func (b *Base) Option() byte  { return b.OptionCode }
func (b *Base) Caps() Caps    { return b.Capacity }
func (b *Base) Local() *Side  { return &b.LocalSide }
func (b *Base) Remote() *Side { return &b.RemoteSide }
func (b *Base) Done() *Signal { return b.Signal }

// Start offers the option per Caps: WILL if StartLocal, DO if
// StartRemote. Most handlers use this default; override only to change
// what "offering" means (none in this roster do).
func (b *Base) Start(ctx Engine) {
	if b.Capacity.StartLocal {
		b.LocalSide.Negotiating = true
		ctx.EnqueueNegotiate(telnet.WILL, b.OptionCode)
	}
	if b.Capacity.StartRemote {
		b.RemoteSide.Negotiating = true
		ctx.EnqueueNegotiate(telnet.DO, b.OptionCode)
	}
}

func (b *Base) OnReceiveNegotiate(ctx Engine, verb byte)      {}
func (b *Base) OnReceiveSubnegotiate(ctx Engine, data []byte) {}
func (b *Base) OnSendNegotiate(ctx Engine, verb byte)         {}
func (b *Base) OnSendSubnegotiate(ctx Engine, data []byte)    {}

// OnLocalEnable, OnLocalDisable, OnRemoteEnable, OnRemoteDisable,
// OnLocalReject, and OnRemoteReject default to firing the completion
// signal on enable or reject. Handlers with a staged handshake (MTTS,
// CHARSET) override these to defer signaling.
func (b *Base) OnLocalEnable(ctx Engine)  { b.Signal.Set() }
func (b *Base) OnLocalDisable(ctx Engine) {}
func (b *Base) OnRemoteEnable(ctx Engine) { b.Signal.Set() }
func (b *Base) OnRemoteDisable(ctx Engine) {}
func (b *Base) OnLocalReject(ctx Engine)  { b.Signal.Set() }
func (b *Base) OnRemoteReject(ctx Engine) { b.Signal.Set() }

func (b *Base) OnInTransformError(ctx Engine, err error) {}
