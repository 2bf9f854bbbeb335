// Package client implements the terminal client: a synchronous line
// relay that ships each typed command to the server and prints the
// reply with the protocol's | separators expanded onto their own lines.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
)

// DefaultPort is where examhall-server listens unless configured
// otherwise.
const DefaultPort = "9000"

type Config struct {
	// Addr is the server's host:port. Empty dials localhost on the
	// default port.
	Addr string
}

// Run relays lines from in until EOF, the server hangs up, or the user
// sends EXIT. Blank input lines are swallowed locally; the protocol
// would answer them with an error and leading/trailing whitespace would
// change how ANSWER is parsed, so they never reach the wire.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	addr := cfg.Addr
	if addr == "" {
		addr = net.JoinHostPort("127.0.0.1", DefaultPort)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	fmt.Fprintf(out, "connected to %s\n", addr)

	input := bufio.NewScanner(in)
	replies := bufio.NewScanner(conn)
	replies.Buffer(make([]byte, 0, 4096), 64*1024)

	for input.Scan() {
		line := strings.TrimSpace(input.Text())
		if line == "" {
			continue
		}

		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		if !replies.Scan() {
			if err := replies.Err(); err != nil {
				return fmt.Errorf("receive: %w", err)
			}
			fmt.Fprintln(out, "server closed the connection")
			return nil
		}
		for _, part := range strings.Split(replies.Text(), "|") {
			fmt.Fprintln(out, part)
		}
		if strings.EqualFold(line, "EXIT") {
			return nil
		}
	}
	return input.Err()
}
