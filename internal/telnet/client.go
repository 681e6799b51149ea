// Package telnet implements the client side of a MUD connection: line
// oriented text plus MSDP subnegotiations demultiplexed from the same
// byte stream.
package telnet

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mudtools/msdpmap/internal/msdp"
)

// Telnet IAC (Interpret As Command) constants per RFC 854.
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // Sub-negotiation Begin
	SE   byte = 240 // Sub-negotiation End
	GA   byte = 249 // Go Ahead
)

// MessageKind discriminates what ReadMessage returned.
type MessageKind int

const (
	// KindLine is one line of game text with telnet sequences filtered.
	KindLine MessageKind = iota
	// KindMSDP is one or more MSDP variable updates.
	KindMSDP
)

// Message is one inbound unit from the server.
type Message struct {
	Kind  MessageKind
	Line  string
	Pairs []msdp.Pair
}

// Client wraps a TCP connection to a game server. Reads must come from
// a single goroutine; writes are serialized internally and may come
// from any goroutine.
type Client struct {
	raw    net.Conn
	reader *bufio.Reader
	wmu    sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration

	// partial holds text accumulated before an MSDP subnegotiation
	// interrupted the line; the next ReadMessage resumes from it.
	partial bytes.Buffer

	msdpEnabled bool
}

// Dial connects to the game server.
//
// Precondition: addr must be a "host:port" string.
// Postcondition: Returns a connected Client or a non-nil error.
func Dial(addr string, readTimeout, writeTimeout time.Duration) (*Client, error) {
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("telnet: dialing %s: %w", addr, err)
	}
	return NewClient(raw, readTimeout, writeTimeout), nil
}

// NewClient wraps an established connection. Split from Dial so tests
// can drive a Client over a pipe.
func NewClient(raw net.Conn, readTimeout, writeTimeout time.Duration) *Client {
	return &Client{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// MSDPEnabled reports whether the server has offered MSDP and the
// client accepted it.
func (c *Client) MSDPEnabled() bool {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.msdpEnabled
}

// ReadMessage reads the next line or MSDP subnegotiation. Option
// negotiation is answered inline and never surfaces to the caller:
// the client accepts MSDP and declines everything else.
//
// Postcondition: Returns the next Message, or an error (including
// io.EOF when the server hangs up).
func (c *Client) ReadMessage() (Message, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	var line bytes.Buffer
	if c.partial.Len() > 0 {
		line.Write(c.partial.Bytes())
		c.partial.Reset()
	}
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return Message{}, err
		}

		if b == IAC {
			msg, handled, err := c.handleIAC()
			if err != nil {
				return Message{}, err
			}
			if handled {
				// An MSDP subnegotiation interrupts the text stream.
				// Park any half-read line so the next call finishes it
				// instead of dropping the bytes.
				if line.Len() > 0 {
					c.partial.Write(line.Bytes())
				}
				return msg, nil
			}
			continue
		}

		if b == '\n' {
			break
		}
		if b == '\r' {
			next, err := c.reader.Peek(1)
			if err == nil && len(next) > 0 && next[0] == '\n' {
				_, _ = c.reader.ReadByte()
			}
			break
		}
		if b < 32 && b != '\t' {
			continue
		}
		line.WriteByte(b)
	}

	return Message{Kind: KindLine, Line: line.String()}, nil
}

// handleIAC processes a sequence after the initial IAC byte. It returns
// (message, true, nil) when the sequence carried an MSDP payload.
func (c *Client) handleIAC() (Message, bool, error) {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return Message{}, false, err
	}

	switch cmd {
	case WILL:
		opt, err := c.reader.ReadByte()
		if err != nil {
			return Message{}, false, err
		}
		if opt == msdp.TeloptMSDP {
			c.wmu.Lock()
			first := !c.msdpEnabled
			c.msdpEnabled = true
			c.wmu.Unlock()
			if first {
				if err := c.writeRaw([]byte{IAC, DO, msdp.TeloptMSDP}); err != nil {
					return Message{}, false, err
				}
			}
			return Message{}, false, nil
		}
		return Message{}, false, c.writeRaw([]byte{IAC, DONT, opt})
	case DO:
		opt, err := c.reader.ReadByte()
		if err != nil {
			return Message{}, false, err
		}
		return Message{}, false, c.writeRaw([]byte{IAC, WONT, opt})
	case WONT, DONT:
		_, err := c.reader.ReadByte()
		return Message{}, false, err
	case SB:
		return c.readSubnegotiation()
	case IAC:
		// Escaped 0xFF in text context: ignore.
		return Message{}, false, nil
	default:
		// NOP, GA, and friends.
		return Message{}, false, nil
	}
}

// readSubnegotiation consumes bytes after IAC SB up to IAC SE,
// unescaping doubled IACs, and parses MSDP payloads.
func (c *Client) readSubnegotiation() (Message, bool, error) {
	opt, err := c.reader.ReadByte()
	if err != nil {
		return Message{}, false, err
	}

	var payload bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return Message{}, false, err
		}
		if b != IAC {
			payload.WriteByte(b)
			continue
		}
		next, err := c.reader.ReadByte()
		if err != nil {
			return Message{}, false, err
		}
		if next == SE {
			break
		}
		if next == IAC {
			payload.WriteByte(IAC)
			continue
		}
		// Unexpected command inside subnegotiation; keep scanning.
	}

	if opt != msdp.TeloptMSDP {
		return Message{}, false, nil
	}

	pairs, err := msdp.ParseBody(payload.Bytes())
	if err != nil {
		return Message{}, false, fmt.Errorf("telnet: %w", err)
	}
	return Message{Kind: KindMSDP, Pairs: pairs}, true, nil
}

// SendCommand writes one game command followed by \r\n. Implements the
// speedwalk sender contract.
//
// Precondition: cmd should not contain newline characters.
func (c *Client) SendCommand(cmd string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := fmt.Fprintf(c.raw, "%s\r\n", cmd)
	return err
}

// SendMSDP writes one MSDP request, e.g. SendMSDP("REPORT", "ROOM").
func (c *Client) SendMSDP(name string, args ...string) error {
	return c.writeRaw(msdp.EncodeCommand(name, args...))
}

func (c *Client) writeRaw(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(data)
	return err
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the server's network address.
func (c *Client) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}
