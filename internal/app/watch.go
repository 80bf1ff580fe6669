package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rbright/heosctl/internal/config"
)

// commandWatch prints daemon events from the status surface as JSON lines.
func (r Runner) commandWatch(ctx context.Context, cfg config.Config) int {
	listen := strings.TrimSpace(cfg.Control.HTTPListen)
	if listen == "" {
		fmt.Fprintln(r.Stderr, "error: watch requires control.http_listen in the config")
		return 1
	}

	watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.Dial(watchCtx, "ws://"+listen+"/events", nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: connect to daemon events: %v\n", err)
		return 1
	}
	defer conn.CloseNow()

	for {
		var evt json.RawMessage
		if err := wsjson.Read(watchCtx, conn, &evt); err != nil {
			if watchCtx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return 0
			}
			fmt.Fprintf(r.Stderr, "error: read event: %v\n", err)
			return 1
		}
		fmt.Fprintln(r.Stdout, string(evt))
	}
}
