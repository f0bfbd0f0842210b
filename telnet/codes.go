// Package telnet implements the wire-level core of a Telnet engine:
// frame parsing (RFC 854 IAC framing, RFC 855 option negotiation) and
// the ordered inbound/outbound byte transformer chain that MCCP2/MCCP3
// install. The package performs no I/O; callers own the socket.
package telnet

// Command codes (op_command in libmudtelnet terms).
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	GA   byte = 249 // Go ahead
	SB   byte = 250 // Subnegotiation begin
	SE   byte = 240 // Subnegotiation end
	NOP  byte = 241
	EOR  byte = 239 // End of record
)

// Subnegotiation operation bytes shared by TTYPE/CHARSET-style options.
const (
	OpIS   byte = 0
	OpSEND byte = 1
)

// Option codes this engine recognizes (op_option in libmudtelnet terms).
// Unrecognized option bytes still round-trip through Frame as raw ints;
// they simply have no handler in the option package.
const (
	OptSGA      byte = 3
	OptMTTS     byte = 24 // a.k.a. TTYPE
	OptEOR      byte = 25
	OptNAWS     byte = 31
	OptLinemode byte = 34
	OptCharset  byte = 42
	OptMNES     byte = 39
	OptMSDP     byte = 69
	OptMSSP     byte = 70
	OptMCCP2    byte = 86
	OptMCCP3    byte = 87
	OptMXP      byte = 91
	OptGMCP     byte = 201
)

// IsNegotiationVerb reports whether b is one of WILL/WONT/DO/DONT.
func IsNegotiationVerb(b byte) bool {
	return b == WILL || b == WONT || b == DO || b == DONT
}
