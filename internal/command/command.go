// Package command dispatches device commands on supervised goroutines.
package command

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/heosctl/internal/device"
	"github.com/rbright/heosctl/internal/heos"
	"github.com/sourcegraph/conc"
)

// ErrUnbound is returned when no device address is bound.
var ErrUnbound = errors.New("no device bound")

// Exchanger performs one request/reply round trip with a device.
type Exchanger interface {
	Exchange(ctx context.Context, address string, line string, limit int) (string, error)
}

// Channel sends commands to the device bound in State.
type Channel struct {
	ctx      context.Context
	state    *device.State
	exchange Exchanger
	logger   *slog.Logger
	wg       conc.WaitGroup
}

// NewChannel returns a channel whose exchanges dial under ctx.
func NewChannel(ctx context.Context, state *device.State, exchange Exchanger, logger *slog.Logger) *Channel {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Channel{ctx: ctx, state: state, exchange: exchange, logger: logger}
}

// Send formats and dispatches one player command.
//
// The identity is captured when Send is called. With no bound device Send
// returns ErrUnbound and onResponse is never invoked. A line that cannot be
// framed fails with heos.ErrMalformedCommand before any dial. Otherwise onResponse,
// if set, runs exactly once on the exchange goroutine with the reply or ""
// on failure.
func (c *Channel) Send(name string, params string, onResponse func(string)) error {
	identity := c.state.Identity()
	if !identity.Bound() {
		c.logger.Debug("command skipped; no device bound", "command", name)
		return ErrUnbound
	}

	line, err := heos.FormatCommand(name, identity.PlayerID, params)
	if err != nil {
		c.logger.Warn("command rejected", "command", name, "error", err.Error())
		return err
	}

	id := uuid.NewString()
	log := c.logger.With("dispatch_id", id, "command", name, "address", identity.Address)

	c.wg.Go(func() {
		started := time.Now()
		log.Debug("command sent", "params", params)

		reply, err := c.exchange.Exchange(c.ctx, identity.Address, line, heos.CommandReplyLimit)
		if err != nil {
			log.Warn("command failed", "error", err.Error())
			reply = ""
		} else {
			log.Debug("command reply", "reply", reply, "elapsed_ms", time.Since(started).Milliseconds())
		}

		if onResponse != nil {
			onResponse(reply)
		}
	})
	return nil
}

// Wait blocks until every in-flight exchange has finished.
//
// A panic raised by an exchange or continuation is logged and swallowed.
func (c *Channel) Wait() {
	if recovered := c.wg.WaitAndRecover(); recovered != nil {
		c.logger.Error("command goroutine panicked", "panic", recovered.String())
	}
}
