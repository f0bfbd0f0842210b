package telnet

import (
	"bytes"
	"testing"
)

func TestParseData(t *testing.T) {
	consumed, f := Parse([]byte("hello"))
	if consumed != 5 || f.Kind != KindData || string(f.Data) != "hello" {
		t.Fatalf("got consumed=%d frame=%+v", consumed, f)
	}
}

func TestParseDataStopsAtIAC(t *testing.T) {
	consumed, f := Parse([]byte("hi\xff\xffmore"))
	if consumed != 2 || string(f.Data) != "hi" {
		t.Fatalf("got consumed=%d frame=%+v", consumed, f)
	}
}

func TestParseIACEscape(t *testing.T) {
	consumed, f := Parse([]byte{0x41, IAC, IAC, 0x42})
	if consumed != 1 || f.Kind != KindData || !bytes.Equal(f.Data, []byte{0x41}) {
		t.Fatalf("expected leading data byte, got consumed=%d frame=%+v", consumed, f)
	}
	consumed, f = Parse([]byte{IAC, IAC, 0x42})
	if consumed != 2 || !bytes.Equal(f.Data, []byte{0xFF}) {
		t.Fatalf("expected escaped 0xFF, got consumed=%d frame=%+v", consumed, f)
	}
}

func TestParseIACAtEndAwaitsMore(t *testing.T) {
	consumed, f := Parse([]byte{IAC})
	if consumed != 0 || f != nil {
		t.Fatalf("expected (0, nil) for trailing IAC, got (%d, %+v)", consumed, f)
	}
}

func TestParseNegotiate(t *testing.T) {
	consumed, f := Parse([]byte{IAC, WILL, OptNAWS})
	if consumed != 3 || f.Kind != KindNegotiate || f.Verb != WILL || f.Option != OptNAWS {
		t.Fatalf("got consumed=%d frame=%+v", consumed, f)
	}
}

func TestParseNegotiateSplitAcrossReads(t *testing.T) {
	consumed, f := Parse([]byte{IAC, DO})
	if consumed != 0 || f != nil {
		t.Fatalf("expected await-more, got (%d, %+v)", consumed, f)
	}
}

func TestParseCommand(t *testing.T) {
	consumed, f := Parse([]byte{IAC, NOP})
	if consumed != 2 || f.Kind != KindCommand || f.Code != NOP {
		t.Fatalf("got consumed=%d frame=%+v", consumed, f)
	}
}

func TestParseSubNegotiate(t *testing.T) {
	buf := []byte{IAC, SB, OptNAWS, 0x00, 0x50, 0x00, 0x18, IAC, SE}
	consumed, f := Parse(buf)
	if consumed != len(buf) || f.Kind != KindSubNegotiate || f.Option != OptNAWS {
		t.Fatalf("got consumed=%d frame=%+v", consumed, f)
	}
	want := []byte{0x00, 0x50, 0x00, 0x18}
	if !bytes.Equal(f.Payload, want) {
		t.Fatalf("payload = %v, want %v", f.Payload, want)
	}
}

func TestParseSubNegotiateWithEscapedIAC(t *testing.T) {
	buf := []byte{IAC, SB, OptGMCP, 0x41, IAC, IAC, 0x42, IAC, SE}
	consumed, f := Parse(buf)
	if consumed != len(buf) {
		t.Fatalf("consumed = %d, want %d", consumed, len(buf))
	}
	want := []byte{0x41, 0xFF, 0x42}
	if !bytes.Equal(f.Payload, want) {
		t.Fatalf("payload = %v, want %v", f.Payload, want)
	}
}

func TestParseSubNegotiateIncomplete(t *testing.T) {
	buf := []byte{IAC, SB, OptGMCP, 0x41, 0x42}
	consumed, f := Parse(buf)
	if consumed != 0 || f != nil {
		t.Fatalf("expected await-more, got (%d, %+v)", consumed, f)
	}
}

func TestParseSubNegotiateMalformedIACNonSE(t *testing.T) {
	// IAC inside the payload followed by neither IAC nor SE: the stray
	// IAC is skipped and the scan resumes.
	buf := []byte{IAC, SB, OptGMCP, 0x41, IAC, 0x01, 0x42, IAC, SE}
	consumed, f := Parse(buf)
	if consumed != len(buf) || f == nil {
		t.Fatalf("got consumed=%d frame=%+v", consumed, f)
	}
}

func TestParseCompletenessFuzzLike(t *testing.T) {
	inputs := [][]byte{
		[]byte("plain text"),
		{IAC, WILL, OptSGA},
		append([]byte("abc"), IAC, IAC),
		{IAC, SB, OptCharset, 0x01, ' ', 'u', 't', 'f', '-', '8', IAC, SE},
	}
	for _, in := range inputs {
		var total int
		for {
			n, f := Parse(in[total:])
			if n == 0 {
				break
			}
			total += n
			_ = f
		}
		rest := in[total:]
		// The residue must be a strict prefix of some valid frame start,
		// i.e. re-parsing it alone must also await more (0, nil).
		n, f := Parse(rest)
		if len(rest) > 0 && (n != 0 || f != nil) {
			t.Fatalf("residue %v should await more bytes, got (%d, %+v)", rest, n, f)
		}
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	frames := []*Frame{
		{Kind: KindData, Data: []byte("hello")},
		{Kind: KindData, Data: []byte{0xFF}},
		{Kind: KindCommand, Code: GA},
		{Kind: KindNegotiate, Verb: DO, Option: OptNAWS},
		{Kind: KindSubNegotiate, Option: OptGMCP, Payload: []byte("Core.Hello {}")},
	}
	for _, f := range frames {
		wire := Serialize(f)
		consumed, got := Parse(wire)
		if consumed != len(wire) {
			t.Fatalf("consumed=%d, want %d for frame %+v", consumed, len(wire), f)
		}
		if got.Kind != f.Kind {
			t.Fatalf("kind mismatch: got %v want %v", got.Kind, f.Kind)
		}
	}
}

func TestEscapeIACRoundTrip(t *testing.T) {
	data := []byte{0x41, 0xFF, 0x42, 0xFF}
	escaped := EscapeIAC(data)
	got := unescapeIAC(escaped)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %v want %v", got, data)
	}
}
