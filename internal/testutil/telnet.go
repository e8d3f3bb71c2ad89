package testutil

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// ConsoleWait bounds each read or write a TelnetClient performs.
const ConsoleWait = 5 * time.Second

// TelnetClient drives a battle console connection in integration tests. It
// keeps a transcript of everything the server sent and logs it when the
// test fails.
type TelnetClient struct {
	t    *testing.T
	conn net.Conn

	mu         sync.Mutex
	transcript strings.Builder
}

// NewTelnetClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, ConsoleWait)
	if err != nil {
		t.Fatalf("dialing battle console at %s: %v", addr, err)
	}
	c := &TelnetClient{t: t, conn: conn}
	t.Cleanup(func() {
		_ = conn.Close()
		if t.Failed() {
			t.Logf("console transcript:\n%s", c.Transcript())
		}
	})
	return c
}

// ReadUntil reads until substr has arrived or timeout elapses, returning
// everything read by this call. Bytes that arrived in the same read as the
// match are included.
//
// Precondition: substr must be non-empty.
// Postcondition: The returned text contains substr, or the test has failed.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	var got strings.Builder
	chunk := make([]byte, 1024)
	for {
		n, err := c.conn.Read(chunk)
		if n > 0 {
			got.Write(chunk[:n])
			c.mu.Lock()
			c.transcript.Write(chunk[:n])
			c.mu.Unlock()
			if strings.Contains(got.String(), substr) {
				return got.String()
			}
		}
		if err != nil {
			c.t.Fatalf("waiting for %q: %v (received %q)", substr, err, got.String())
		}
	}
}

// Send writes one line of input, terminated the way Telnet clients do.
//
// Precondition: text should not contain trailing newline characters.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(ConsoleWait))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
	c.mu.Lock()
	fmt.Fprintf(&c.transcript, "<<< %s\n", text)
	c.mu.Unlock()
}

// Command sends text and reads until want appears, returning everything read.
func (c *TelnetClient) Command(text, want string) string {
	c.t.Helper()
	c.Send(text)
	return c.ReadUntil(want, ConsoleWait)
}

// Login answers the console's name prompt and reads through the first
// turn prompt of the opening battle.
func (c *TelnetClient) Login(name string) string {
	c.t.Helper()
	c.ReadUntil("What name do you fight under?", ConsoleWait)
	c.Send(name)
	return c.ReadUntil("T1]> ", ConsoleWait)
}

// Transcript returns all server output so far, interleaved with the lines sent.
func (c *TelnetClient) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.String()
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}
