package telnet

// InTransformer mutates inbound bytes before they reach the parser
// buffer. An error disables the transformer; the caller (the engine,
// via the owning option handler) decides how to notify the peer.
type InTransformer interface {
	TransformIn(data []byte) ([]byte, error)
}

// OutTransformer mutates outbound bytes after a Frame has been
// serialized, before it leaves the engine.
type OutTransformer interface {
	TransformOut(data []byte) []byte
}

// Chain holds the ordered inbound and outbound transformer pipelines.
// Transformers are appended by their owning option handler at
// activation time (see option.MCCP2/option.MCCP3) and applied in
// insertion order. Adding a transformer is append-only; removal is
// supported only because MCCP3 must be able to detach itself on
// stream-end or inflate error.
type Chain struct {
	in  []InTransformer
	out []OutTransformer
}

// AppendIn appends an inbound transformer to the end of the chain.
func (c *Chain) AppendIn(t InTransformer) { c.in = append(c.in, t) }

// AppendOut appends an outbound transformer to the end of the chain.
func (c *Chain) AppendOut(t OutTransformer) { c.out = append(c.out, t) }

// RemoveIn removes a previously appended inbound transformer. Used by
// MCCP3 to detach its inflater on an inflate error.
func (c *Chain) RemoveIn(t InTransformer) {
	for i, cur := range c.in {
		if cur == t {
			c.in = append(c.in[:i], c.in[i+1:]...)
			return
		}
	}
}

// In runs data through every inbound transformer in order. It stops
// at the first error and returns it with the input it was given; it
// does not say which transformer failed.
func (c *Chain) In(data []byte) ([]byte, error) {
	for _, t := range c.in {
		out, err := t.TransformIn(data)
		if err != nil {
			return data, err
		}
		data = out
	}
	return data, nil
}

// Out runs data through every outbound transformer in order.
func (c *Chain) Out(data []byte) []byte {
	for _, t := range c.out {
		data = t.TransformOut(data)
	}
	return data
}
