package engine

import "encoding/json"

// JSONCodec is the injected capability GMCP uses to encode and decode
// its payload. Hosts that want a different JSON implementation can
// supply their own; DefaultJSONCodec wraps the standard library.
type JSONCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// DefaultJSONCodec is the JSONCodec used when a constructor Config
// leaves Codec nil.
type DefaultJSONCodec struct{}

func (DefaultJSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (DefaultJSONCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
