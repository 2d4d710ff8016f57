// Package client dials an arm daemon's control port and sends servo
// commands. It is the wire-level core of armctl; the protocol is
// fire-and-forget, so there is nothing to read back.
package client

import (
	"fmt"
	"net"
	"time"

	"github.com/robocleaner/armd/internal/protocol"
	"github.com/robocleaner/armd/internal/servo"
)

// Default timeouts for dialing and for a single line write. The daemon
// drops idle clients after 5 seconds, so writes are either fast or dead.
const (
	DefaultDialTimeout  = 3 * time.Second
	DefaultWriteTimeout = 2 * time.Second
)

// Client is one control connection to an arm.
type Client struct {
	conn         net.Conn
	writeTimeout time.Duration
}

// Dial connects to the arm's control port.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, DefaultDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to arm at %s: %w", addr, err)
	}
	return &Client{conn: conn, writeTimeout: DefaultWriteTimeout}, nil
}

// Send transmits one command line. Angles are clamped on encode, so any
// command that leaves here is one the daemon will accept.
func (c *Client) Send(cmd *protocol.Command) error {
	if cmd.NumPresent() == 0 {
		return fmt.Errorf("command has no fields to send")
	}
	line := protocol.EncodeCommand(cmd) + "\n"

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	return nil
}

// SendAngles is a convenience wrapper building a command from explicit
// channel/angle pairs.
func (c *Client) SendAngles(angles map[servo.Channel]int) error {
	cmd := &protocol.Command{}
	for ch, angle := range angles {
		if !ch.Valid() {
			return fmt.Errorf("invalid channel %d", int(ch))
		}
		cmd.Angles[ch] = angle
		cmd.Present[ch] = true
	}
	return c.Send(cmd)
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
