package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"
	"time"
)

var (
	// ErrDaemonUnavailable means nothing is listening on the control socket.
	ErrDaemonUnavailable = errors.New("heosctl daemon not running")
	// ErrEmptyCommand rejects a request before it is dialed.
	ErrEmptyCommand = errors.New("empty command")
	// ErrMalformedResponse marks a reply that decodes but breaks the protocol.
	ErrMalformedResponse = errors.New("malformed daemon response")
)

// maxResponseBytes bounds one reply line; a snapshot fits well within it.
const maxResponseBytes = 64 << 10

// Client talks to the daemon socket at Path.
type Client struct {
	Path    string
	Timeout time.Duration
}

// NewClient returns a client whose exchanges are bounded by timeout.
func NewClient(path string, timeout time.Duration) Client {
	return Client{Path: path, Timeout: timeout}
}

// Do sends req and waits for its reply.
//
// Dial failures that mean no daemon is listening wrap ErrDaemonUnavailable.
// Canceling ctx aborts a pending read.
func (c Client) Do(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Command) == "" {
		return Response{}, ErrEmptyCommand
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.Path)
	if err != nil {
		if unavailable(err) {
			return Response{}, fmt.Errorf("%w at %s: %w", ErrDaemonUnavailable, c.Path, err)
		}
		return Response{}, fmt.Errorf("dial %s: %w", c.Path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return Response{}, fmt.Errorf("set deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return Response{}, ioFailure(ctx, "write request", err)
	}

	line, err := bufio.NewReader(io.LimitReader(conn, maxResponseBytes)).ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) >= maxResponseBytes {
			return Response{}, fmt.Errorf("read response: %w: exceeds %d bytes", ErrMalformedResponse, maxResponseBytes)
		}
		return Response{}, ioFailure(ctx, "read response", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if !resp.OK && resp.Error == "" {
		return Response{}, fmt.Errorf("%w: failure without error text", ErrMalformedResponse)
	}
	return resp, nil
}

// Running reports whether a daemon answers a status request.
//
// An absent or refusing socket is "not running"; other failures are
// returned because the socket may still belong to a live process.
func (c Client) Running(ctx context.Context) (bool, error) {
	_, err := c.Do(ctx, Request{Command: "status"})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrDaemonUnavailable):
		return false, nil
	default:
		return false, fmt.Errorf("status check: %w", err)
	}
}

// ioFailure reports the context error in place of the deadline it forced.
func ioFailure(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func unavailable(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED)
}
