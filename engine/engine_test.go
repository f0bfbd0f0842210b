package engine

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/drake/telnetcore/option"
	"github.com/drake/telnetcore/telnet"
)

func newTestEngine(handlers ...option.Handler) *Engine {
	return New(Config{Handlers: handlers})
}

// S1: NAWS negotiation and dimension decode.
func TestScenarioNAWS(t *testing.T) {
	e := newTestEngine(option.NewNAWS())
	var caps []string
	e.SetCallbacks(Callbacks{ChangeCapabilities: func(k string, v any) { caps = append(caps, k) }})

	_, err := e.ReceiveData(append([]byte{telnet.IAC, telnet.WILL, telnet.OptNAWS},
		telnet.IAC, telnet.SB, telnet.OptNAWS, 0x00, 0x50, 0x00, 0x18, telnet.IAC, telnet.SE))
	if err != nil {
		t.Fatalf("ReceiveData: %v", err)
	}

	out := e.Drain()
	want := []byte{telnet.IAC, telnet.DO, telnet.OptNAWS}
	if !bytes.Equal(out, want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
	if !e.caps.NAWS || e.caps.Width != 80 || e.caps.Height != 24 {
		t.Fatalf("unexpected capabilities: naws=%v width=%d height=%d", e.caps.NAWS, e.caps.Width, e.caps.Height)
	}
}

// S2: CHARSET REQUEST/ACCEPTED round trip.
func TestScenarioCharset(t *testing.T) {
	charsetHandler := option.NewCharset()
	e := newTestEngine(charsetHandler)

	signals := e.Start()
	out := e.Drain()
	want := []byte{telnet.IAC, telnet.WILL, telnet.OptCharset, telnet.IAC, telnet.DO, telnet.OptCharset}
	if !bytes.Equal(out, want) {
		t.Fatalf("expected %v, got %v", want, out)
	}

	e.ReceiveData([]byte{telnet.IAC, telnet.DO, telnet.OptCharset})
	reqOut := e.Drain()
	wantReq := []byte{telnet.IAC, telnet.SB, telnet.OptCharset, 0x01, ' ', 'a', 's', 'c', 'i', 'i', ' ', 'u', 't', 'f', '-', '8', telnet.IAC, telnet.SE}
	if !bytes.Equal(reqOut, wantReq) {
		t.Fatalf("expected CHARSET request %v, got %v", wantReq, reqOut)
	}

	accepted := append([]byte{telnet.IAC, telnet.SB, telnet.OptCharset, 0x02}, "utf-8"...)
	accepted = append(accepted, telnet.IAC, telnet.SE)
	e.ReceiveData(accepted)

	if e.caps.Encoding != "utf-8" {
		t.Fatalf("expected encoding utf-8, got %q", e.caps.Encoding)
	}
	select {
	case <-signals[0].Wait():
	default:
		t.Fatal("expected CHARSET completion signal to have fired")
	}
}

// S3: line framing.
func TestScenarioLineFraming(t *testing.T) {
	e := newTestEngine()
	var lines []string
	e.SetCallbacks(Callbacks{Line: func(l string) { lines = append(lines, l) }})

	e.ReceiveData([]byte("hello\r\nworld\n"))

	if len(lines) != 2 || lines[0] != "hello" || lines[1] != "world" {
		t.Fatalf("expected [hello world], got %v", lines)
	}
}

// S4: IAC escape inside data, no line callback fires.
func TestScenarioIACEscapeInData(t *testing.T) {
	e := newTestEngine()
	var lines []string
	e.SetCallbacks(Callbacks{Line: func(l string) { lines = append(lines, l) }})

	e.ReceiveData([]byte{0x41, telnet.IAC, telnet.IAC, 0x42})

	if len(lines) != 0 {
		t.Fatalf("expected no line callback, got %v", lines)
	}
	if !bytes.Equal(e.lineBuf, []byte{0x41, 0xFF, 0x42}) {
		t.Fatalf("expected partial-line buffer 0x41 0xFF 0x42, got %v", e.lineBuf)
	}
}

// S5: MTTS three-stage probe.
func TestScenarioMTTS(t *testing.T) {
	e := newTestEngine(option.NewMTTS())

	e.ReceiveData([]byte{telnet.IAC, telnet.WILL, telnet.OptMTTS})
	e.Drain()

	e.ReceiveData(subneg(telnet.OptMTTS, append([]byte{telnet.OpIS}, "MUDLET 4.10.0"...)))
	e.Drain()
	e.ReceiveData(subneg(telnet.OptMTTS, append([]byte{telnet.OpIS}, "XTERM-256COLOR"...)))
	e.Drain()
	e.ReceiveData(subneg(telnet.OptMTTS, append([]byte{telnet.OpIS}, "MTTS 2349"...)))

	if e.caps.ClientName != "MUDLET" || e.caps.ClientVersion != "4.10.0" {
		t.Fatalf("unexpected client identification: %q %q", e.caps.ClientName, e.caps.ClientVersion)
	}
	if e.caps.Color != 3 {
		t.Fatalf("expected truecolor (3), got %d", e.caps.Color)
	}
	if e.caps.Encoding != "utf-8" {
		t.Fatalf("expected utf-8 encoding, got %q", e.caps.Encoding)
	}
	if !e.caps.OSCPalette {
		t.Fatal("expected osc_color_palette=true")
	}

	h := e.byOption[telnet.OptMTTS]
	select {
	case <-h.Done().Wait():
	default:
		t.Fatal("expected MTTS completion signal to have fired after third reply")
	}
}

// S6: MCCP2 boundary, the activation frame is uncompressed and
// everything after it is a valid zlib sync-flushed stream.
func TestScenarioMCCP2Boundary(t *testing.T) {
	e := newTestEngine(option.NewMCCP2())
	e.Start()
	e.ReceiveData([]byte{telnet.IAC, telnet.DO, telnet.OptMCCP2})

	out := e.Drain()
	wantPrefix := []byte{telnet.IAC, telnet.WILL, telnet.OptMCCP2, telnet.IAC, telnet.SB, telnet.OptMCCP2, telnet.IAC, telnet.SE}
	if !bytes.HasPrefix(out, wantPrefix) {
		t.Fatalf("expected activation prefix %v, got %v", wantPrefix, out)
	}
	if len(out) != len(wantPrefix) {
		t.Fatalf("expected nothing queued after activation yet, got %d extra bytes", len(out)-len(wantPrefix))
	}

	e.SendText("hi")
	compressed := e.Drain()

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("compressed output is not a valid zlib stream: %v", err)
	}
	inflated, err := io.ReadAll(zr)
	if err != nil && err != io.ErrUnexpectedEOF {
		t.Fatalf("inflate failed: %v", err)
	}
	if string(inflated) != "hi" {
		t.Fatalf("expected inflated 'hi', got %q", inflated)
	}
}

// errTransformer always fails, standing in for a corrupted MCCP3
// inflater without needing to engineer a genuine zlib corruption.
type errTransformer struct{ err error }

func (t *errTransformer) TransformIn(data []byte) ([]byte, error) { return nil, t.err }

// recordingHandler embeds option.Base and records whether the engine
// routed a chain error to it, exercising ReceiveData's broadcast path
// independently of any concrete handler's own teardown logic.
type recordingHandler struct {
	option.Base
	gotErr error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{Base: option.NewBase(0xEE, option.Caps{})}
}

func (h *recordingHandler) OnInTransformError(ctx option.Engine, err error) { h.gotErr = err }

func TestReceiveDataBroadcastsInTransformError(t *testing.T) {
	h := newRecordingHandler()
	e := newTestEngine(h)

	wantErr := io.ErrClosedPipe
	e.AppendInTransformer(&errTransformer{err: wantErr})

	_, err := e.ReceiveData([]byte("anything"))
	if err != wantErr {
		t.Fatalf("expected ReceiveData to surface the transformer error, got %v", err)
	}
	if h.gotErr != wantErr {
		t.Fatalf("expected handler to observe the chain error, got %v", h.gotErr)
	}
}

// MCCP3 decompression failures arriving after activation (not just in
// the activating subnegotiation's own payload) must still tear the
// inflater down and notify the peer with WONT.
func TestMCCP3PostActivationCorruptionTearsDown(t *testing.T) {
	mccp3 := option.NewMCCP3()
	e := newTestEngine(mccp3)
	e.ReceiveData([]byte{telnet.IAC, telnet.DO, telnet.OptMCCP3})
	e.Drain()

	// Split a real zlib stream so the first half activates cleanly
	// (header-valid but incomplete, an expected io.ErrUnexpectedEOF)
	// and the corrupted second half triggers a genuine later inflate
	// error distinct from "just needs more bytes".
	var full bytes.Buffer
	zw := zlib.NewWriter(&full)
	zw.Write([]byte("a longer payload so there is a middle to corrupt"))
	zw.Close()
	raw := full.Bytes()
	firstHalf := raw[:len(raw)/2]
	corruptedSecondHalf := append([]byte(nil), raw[len(raw)/2:]...)
	for i := range corruptedSecondHalf {
		corruptedSecondHalf[i] ^= 0xFF
	}

	// The empty activation SB, directly followed (in the same read) by
	// the first half of the compressed stream sitting in the buffer
	// ahead of the parser at the moment MCCP3 activates: this residue,
	// not the SB's own (empty) payload, is what must be decompressed
	// in place.
	activation := append([]byte{telnet.IAC, telnet.SB, telnet.OptMCCP3, telnet.IAC, telnet.SE}, firstHalf...)
	e.ReceiveData(activation)
	if !e.caps.MCCP3Enabled {
		t.Fatal("expected mccp3_enabled after activation")
	}

	_, err := e.ReceiveData(corruptedSecondHalf)
	if err == nil {
		t.Skip("corrupted tail happened not to trigger a decode error for this input")
	}
	if e.caps.MCCP3Enabled {
		t.Fatal("expected mccp3_enabled cleared after inflate failure")
	}

	out := e.Drain()
	want := []byte{telnet.IAC, telnet.WONT, telnet.OptMCCP3}
	if !bytes.Equal(out, want) {
		t.Fatalf("expected WONT 87 sent to peer, got %v", out)
	}
}

func subneg(opt byte, payload []byte) []byte {
	out := []byte{telnet.IAC, telnet.SB, opt}
	out = append(out, telnet.EscapeIAC(payload)...)
	out = append(out, telnet.IAC, telnet.SE)
	return out
}
