package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rbright/heosctl/internal/config"
	"github.com/rbright/heosctl/internal/heos"
)

type discoverResult struct {
	Address string        `json:"address"`
	Players []heos.Player `json:"players"`
}

// commandDiscover runs one search and lists the players behind the selected address.
func (r Runner) commandDiscover(ctx context.Context, cfg config.Config, logger *slog.Logger, asJSON bool) int {
	address := newDiscoveryService(cfg.Discovery, logger).Discover(ctx)
	result := discoverResult{Address: address, Players: []heos.Player{}}
	if address != "" {
		if players := newHEOSClient(cfg.Device, logger).FetchPlayers(ctx, address); players != nil {
			result.Players = players
		}
	}

	if asJSON {
		_ = json.NewEncoder(r.Stdout).Encode(result)
	} else if address != "" {
		fmt.Fprintf(r.Stdout, "device %s\n", address)
		for _, player := range result.Players {
			fmt.Fprintf(r.Stdout, "  pid=%s name=%q ip=%s\n", player.PlayerID, player.Name, player.Address)
		}
	}

	if address == "" {
		fmt.Fprintln(r.Stderr, "error: no device found")
		return 1
	}
	return 0
}
