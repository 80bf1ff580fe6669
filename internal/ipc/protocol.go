// Package ipc carries CLI commands to the running daemon over a unix socket.
package ipc

import "github.com/rbright/heosctl/internal/device"

// Request is one newline-terminated JSON command.
type Request struct {
	Command string `json:"command"`
	Arg     string `json:"arg,omitempty"`
}

// Response answers a Request. State is the connection state name.
type Response struct {
	OK      bool             `json:"ok"`
	State   string           `json:"state,omitempty"`
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
	Device  *device.Snapshot `json:"device,omitempty"`
}
