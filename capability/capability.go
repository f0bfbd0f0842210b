// Package capability holds the observable traits of a connected Telnet
// client. A Record is mutated only through Set, which fires a per-key
// change callback — handlers and the application never write fields
// directly.
package capability

// Color levels negotiated via MTTS or inferred from a TTYPE name.
const (
	ColorNone      = 0
	ColorANSI      = 1
	ColorXterm256  = 2
	ColorTrueColor = 3
)

// Record is the capability set tracked for one connection. Zero value
// is not ready for use; call New for the documented defaults.
type Record struct {
	ClientName    string
	ClientVersion string
	Encoding      string
	Color         int
	Width         int
	Height        int

	MCCP2        bool
	MCCP2Enabled bool
	MCCP3        bool
	MCCP3Enabled bool
	GMCP         bool
	MSDP         bool
	MSSP         bool
	MSLP         bool
	MTTS         bool
	NAWS         bool
	SGA          bool
	Linemode     bool
	ForceEndline bool
	ScreenReader bool
	MouseTrack   bool
	VT100        bool
	OSCPalette   bool
	Proxy        bool
	MNES         bool
	TLSSupport   bool

	onChange func(key string, value any)
}

// New returns a Record with the conservative pre-negotiation
// defaults: ASCII encoding, 78x24 screen.
func New() *Record {
	return &Record{
		Encoding: "ascii",
		Width:    78,
		Height:   24,
	}
}

// OnChange installs the callback fired once per key on every Set call.
// Passing nil disables notification.
func (r *Record) OnChange(fn func(key string, value any)) {
	r.onChange = fn
}

// Set is the single mutation entry point for the capability record.
// Each key/value pair is applied in iteration order and fires the
// change callback for that key; unrecognized keys are ignored (a host
// extending the record should do so by wrapping Record, not by adding
// untyped keys here).
func (r *Record) Set(values map[string]any) {
	for k, v := range values {
		if r.setField(k, v) {
			if r.onChange != nil {
				r.onChange(k, v)
			}
		}
	}
}

// SetOne mutates a single field and fires its change callback. It is
// the form option handlers use, since map iteration order is undefined
// in Go and several spec scenarios (MTTS staging, CHARSET) require a
// specific field to change before a specific callback fires.
func (r *Record) SetOne(key string, value any) {
	if r.setField(key, value) && r.onChange != nil {
		r.onChange(key, value)
	}
}

func (r *Record) setField(key string, value any) bool {
	switch key {
	case "client_name":
		r.ClientName, _ = value.(string)
	case "client_version":
		r.ClientVersion, _ = value.(string)
	case "encoding":
		r.Encoding, _ = value.(string)
	case "color":
		r.Color, _ = value.(int)
	case "width":
		r.Width, _ = value.(int)
	case "height":
		r.Height, _ = value.(int)
	case "mccp2":
		r.MCCP2, _ = value.(bool)
	case "mccp2_enabled":
		r.MCCP2Enabled, _ = value.(bool)
	case "mccp3":
		r.MCCP3, _ = value.(bool)
	case "mccp3_enabled":
		r.MCCP3Enabled, _ = value.(bool)
	case "gmcp":
		r.GMCP, _ = value.(bool)
	case "msdp":
		r.MSDP, _ = value.(bool)
	case "mssp":
		r.MSSP, _ = value.(bool)
	case "mslp":
		r.MSLP, _ = value.(bool)
	case "mtts":
		r.MTTS, _ = value.(bool)
	case "naws":
		r.NAWS, _ = value.(bool)
	case "sga":
		r.SGA, _ = value.(bool)
	case "linemode":
		r.Linemode, _ = value.(bool)
	case "force_endline":
		r.ForceEndline, _ = value.(bool)
	case "screen_reader":
		r.ScreenReader, _ = value.(bool)
	case "mouse_tracking":
		r.MouseTrack, _ = value.(bool)
	case "vt100":
		r.VT100, _ = value.(bool)
	case "osc_color_palette":
		r.OSCPalette, _ = value.(bool)
	case "proxy":
		r.Proxy, _ = value.(bool)
	case "mnes":
		r.MNES, _ = value.(bool)
	case "tls_support":
		r.TLSSupport, _ = value.(bool)
	default:
		return false
	}
	return true
}

// RaiseColor sets Color to level if that is higher than the current
// value. MTTS/TTYPE signals only ever raise the color ceiling, never
// lower it.
func (r *Record) RaiseColor(level int) {
	if level > r.Color {
		r.SetOne("color", level)
	}
}
