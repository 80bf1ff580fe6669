package heos

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Player is one controllable endpoint reported by a device.
type Player struct {
	Name     string `json:"name"`
	Address  string `json:"ip"`
	PlayerID string `json:"pid"`
}

// FetchPlayers asks the device at address for its player directory.
//
// Connection and parse failures are logged and yield an empty result.
func (c *Client) FetchPlayers(ctx context.Context, address string) []Player {
	log := c.logger().With("address", address)

	line, _ := FormatCommand(CmdGetPlayers, "", "")
	reply, err := c.Exchange(ctx, address, line, DirectoryReplyLimit)
	if err != nil {
		log.Warn("player directory unreachable", "error", err.Error())
		return nil
	}

	players, err := ParsePlayers(reply)
	if err != nil {
		log.Warn("player directory unreadable", "error", err.Error())
		return nil
	}
	log.Debug("player directory", "count", len(players))
	return players
}

// ParsePlayers extracts the payload array from a get_players reply.
//
// Text before the first '{' is ignored. Missing fields become empty strings
// and numeric fields are rendered in decimal.
func ParsePlayers(reply string) ([]Player, error) {
	start := strings.IndexByte(reply, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var envelope struct {
		Payload []map[string]any `json:"payload"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply[start:])), &envelope); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}

	players := make([]Player, 0, len(envelope.Payload))
	for _, entry := range envelope.Payload {
		players = append(players, Player{
			Name:     fieldText(entry, "name"),
			Address:  fieldText(entry, "ip"),
			PlayerID: fieldText(entry, "pid"),
		})
	}
	return players, nil
}

func fieldText(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
