package heos

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"
)

// Client performs single request/reply exchanges with a device.
type Client struct {
	Port        int
	DialTimeout time.Duration
	// ReadTimeout of zero leaves the reply read unbounded.
	ReadTimeout time.Duration
	Logger      *slog.Logger
}

// NewClient returns a client for the default control port.
func NewClient(logger *slog.Logger) *Client {
	return &Client{Port: DefaultPort, DialTimeout: 3 * time.Second, Logger: logger}
}

// Exchange dials address, writes line, and returns the text of one read of at most limit bytes.
func (c *Client) Exchange(ctx context.Context, address string, line string, limit int) (string, error) {
	port := c.Port
	if port <= 0 {
		port = DefaultPort
	}

	dialer := net.Dialer{Timeout: c.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", address, err)
	}
	defer conn.Close()

	if c.ReadTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.ReadTimeout)); err != nil {
			return "", fmt.Errorf("set deadline: %w", err)
		}
	}

	if _, err := conn.Write([]byte(line)); err != nil {
		return "", fmt.Errorf("send to %s: %w", address, err)
	}

	buf := make([]byte, limit)
	n, err := conn.Read(buf)
	if n > 0 {
		return string(buf[:n]), nil
	}
	if err != nil {
		return "", fmt.Errorf("receive from %s: %w", address, err)
	}
	return "", nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
