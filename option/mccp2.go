package option

import (
	"bytes"
	"compress/zlib"

	"github.com/drake/telnetcore/telnet"
)

// MCCP2 implements server-to-client compression (option 86). Enabling
// it locally announces the capability; the compressor itself is only
// installed once the activating empty subnegotiation is observed on
// its way out, so the activation frame itself reaches the wire
// uncompressed.
type MCCP2 struct {
	Base
	compressor *mccp2Transformer
}

func NewMCCP2() *MCCP2 {
	return &MCCP2{Base: NewBase(telnet.OptMCCP2, Caps{SupportLocal: true, StartLocal: true})}
}

func (c *MCCP2) OnLocalEnable(ctx Engine) {
	ctx.SetCapability("mccp2", true)
	c.Base.OnLocalEnable(ctx)
	ctx.EnqueueSubNegotiate(telnet.OptMCCP2, nil)
}

func (c *MCCP2) OnLocalDisable(ctx Engine) {
	ctx.SetCapability("mccp2", false)
}

// OnSendSubnegotiate fires as the engine yields this handler's queued
// subnegotiation bytes. Only the activation frame (empty payload) has
// any effect: it installs the compressor for every frame after it.
func (c *MCCP2) OnSendSubnegotiate(ctx Engine, payload []byte) {
	if len(payload) != 0 || c.compressor != nil {
		return
	}
	c.compressor = newMCCP2Transformer()
	ctx.AppendOutTransformer(c.compressor)
	ctx.SetCapability("mccp2_enabled", true)
}

// mccp2Transformer is the outbound DEFLATE compressor installed once
// MCCP2 activates. Each TransformOut call writes its input then
// sync-flushes, so the peer can decompress incrementally rather than
// waiting for stream close.
type mccp2Transformer struct {
	buf *bytes.Buffer
	zw  *zlib.Writer
}

func newMCCP2Transformer() *mccp2Transformer {
	buf := &bytes.Buffer{}
	zw, _ := zlib.NewWriterLevel(buf, zlib.BestCompression)
	return &mccp2Transformer{buf: buf, zw: zw}
}

func (t *mccp2Transformer) TransformOut(data []byte) []byte {
	t.buf.Reset()
	t.zw.Write(data)
	t.zw.Flush()
	out := make([]byte, t.buf.Len())
	copy(out, t.buf.Bytes())
	return out
}
