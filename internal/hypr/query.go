package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Client is one toplevel window reported by `hyprctl -j clients`.
type Client struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Title   string `json:"title"`
	Mapped  bool   `json:"mapped"`
	Hidden  bool   `json:"hidden"`
}

// Visible reports whether the window is on screen.
func (c Client) Visible() bool {
	return c.Mapped && !c.Hidden
}

// QueryClients lists every toplevel window.
func QueryClients(ctx context.Context) ([]Client, error) {
	output, err := runHyprctlOutput(ctx, "-j", "clients")
	if err != nil {
		return nil, err
	}

	var clients []Client
	if err := json.Unmarshal(output, &clients); err != nil {
		return nil, fmt.Errorf("decode hyprctl clients json: %w", err)
	}
	return clients, nil
}

// Windows lists visible window titles through hyprctl.
type Windows struct{}

// Titles returns the titles of visible windows, in compositor order.
func (Windows) Titles(ctx context.Context) ([]string, error) {
	clients, err := QueryClients(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(clients))
	for _, client := range clients {
		if !client.Visible() {
			continue
		}
		if title := strings.TrimSpace(client.Title); title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

// Notify sends a Hyprland notification payload.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = "rgb(89b4fa)"
	}
	return runHyprctl(ctx, "--quiet", "dispatch", "notify",
		strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text)
}

// DismissNotify dismisses active Hyprland notifications.
func DismissNotify(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
}
