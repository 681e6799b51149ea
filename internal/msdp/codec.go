package msdp

import (
	"fmt"
)

// Telnet framing bytes shared with the transport layer.
const (
	IAC byte = 255 // Interpret As Command
	SB  byte = 250 // Sub-negotiation Begin
	SE  byte = 240 // Sub-negotiation End

	// TeloptMSDP is the telnet option number assigned to MSDP.
	TeloptMSDP byte = 69
)

// MSDP payload markers per the protocol definition.
const (
	markVar        byte = 1
	markVal        byte = 2
	markTableOpen  byte = 3
	markTableClose byte = 4
	markArrayOpen  byte = 5
	markArrayClose byte = 6
)

// Pair is one (variable, value) update demultiplexed from a
// subnegotiation payload.
type Pair struct {
	Name  string
	Value Value
}

// ParseBody parses the raw bytes between "IAC SB 69" and "IAC SE" into
// the (name, value) pairs they carry. A single subnegotiation may carry
// several variables. Structural errors (unterminated table/array, value
// marker before any variable name) fail the whole payload; the caller
// drops it and keeps reading the stream.
func ParseBody(data []byte) ([]Pair, error) {
	p := &parser{data: data}
	var pairs []Pair
	for !p.done() {
		switch p.peek() {
		case markVar:
			p.next()
			name := p.scalar()
			if name == "" {
				return nil, fmt.Errorf("msdp: empty variable name at offset %d", p.pos)
			}
			if p.done() || p.peek() != markVal {
				return nil, fmt.Errorf("msdp: variable %q has no value", name)
			}
			p.next()
			v, err := p.value()
			if err != nil {
				return nil, fmt.Errorf("msdp: variable %q: %w", name, err)
			}
			pairs = append(pairs, Pair{Name: name, Value: v})
		default:
			return nil, fmt.Errorf("msdp: unexpected byte 0x%02x at offset %d", p.peek(), p.pos)
		}
	}
	return pairs, nil
}

type parser struct {
	data []byte
	pos  int
}

func (p *parser) done() bool { return p.pos >= len(p.data) }
func (p *parser) peek() byte { return p.data[p.pos] }
func (p *parser) next() byte { b := p.data[p.pos]; p.pos++; return b }

// scalar consumes bytes until the next structural marker or end of input.
func (p *parser) scalar() string {
	start := p.pos
	for !p.done() {
		b := p.peek()
		if b == markVar || b == markVal || b == markTableOpen || b == markTableClose ||
			b == markArrayOpen || b == markArrayClose {
			break
		}
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// value parses what follows a VAL marker: a nested table, a nested
// array, or a scalar run.
func (p *parser) value() (Value, error) {
	if p.done() {
		return String(""), nil
	}
	switch p.peek() {
	case markTableOpen:
		p.next()
		return p.table()
	case markArrayOpen:
		p.next()
		return p.array()
	default:
		return String(p.scalar()), nil
	}
}

func (p *parser) table() (Value, error) {
	fields := make(map[string]Value)
	for {
		if p.done() {
			return Value{}, fmt.Errorf("unterminated table")
		}
		switch p.peek() {
		case markTableClose:
			p.next()
			return Table(fields), nil
		case markVar:
			p.next()
			name := p.scalar()
			if name == "" {
				return Value{}, fmt.Errorf("empty field name in table")
			}
			if p.done() || p.peek() != markVal {
				return Value{}, fmt.Errorf("table field %q has no value", name)
			}
			p.next()
			v, err := p.value()
			if err != nil {
				return Value{}, err
			}
			fields[name] = v
		default:
			return Value{}, fmt.Errorf("unexpected byte 0x%02x in table", p.peek())
		}
	}
}

func (p *parser) array() (Value, error) {
	var items []Value
	for {
		if p.done() {
			return Value{}, fmt.Errorf("unterminated array")
		}
		switch p.peek() {
		case markArrayClose:
			p.next()
			return Array(items...), nil
		case markVal:
			p.next()
			v, err := p.value()
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		default:
			return Value{}, fmt.Errorf("unexpected byte 0x%02x in array", p.peek())
		}
	}
}

// Encode frames one (name, value) pair as a complete telnet
// subnegotiation: IAC SB 69 VAR name VAL value IAC SE. Literal 0xFF
// bytes inside scalars are escaped as IAC IAC.
func Encode(name string, v Value) []byte {
	buf := []byte{IAC, SB, TeloptMSDP}
	buf = appendPair(buf, name, v)
	return append(buf, IAC, SE)
}

// EncodeCommand frames a client request whose value is a single scalar
// or, with multiple args, an array. Typical uses are
// EncodeCommand("REPORT", "ROOM") and EncodeCommand("SEND", "AREA NAME").
func EncodeCommand(name string, args ...string) []byte {
	if len(args) == 1 {
		return Encode(name, String(args[0]))
	}
	items := make([]Value, len(args))
	for i, a := range args {
		items[i] = String(a)
	}
	return Encode(name, Array(items...))
}

func appendPair(buf []byte, name string, v Value) []byte {
	buf = append(buf, markVar)
	buf = appendEscaped(buf, name)
	buf = append(buf, markVal)
	return appendValue(buf, v)
}

func appendValue(buf []byte, v Value) []byte {
	switch v.kind {
	case KindTable:
		buf = append(buf, markTableOpen)
		for _, k := range v.Keys() {
			buf = appendPair(buf, k, v.tbl[k])
		}
		return append(buf, markTableClose)
	case KindArray:
		buf = append(buf, markArrayOpen)
		for _, item := range v.arr {
			buf = append(buf, markVal)
			buf = appendValue(buf, item)
		}
		return append(buf, markArrayClose)
	default:
		return appendEscaped(buf, v.str)
	}
}

func appendEscaped(buf []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		if s[i] == IAC {
			buf = append(buf, IAC, IAC)
			continue
		}
		buf = append(buf, s[i])
	}
	return buf
}
