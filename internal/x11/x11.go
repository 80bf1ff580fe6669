// Package x11 lists visible toplevel window titles through EWMH root properties.
package x11

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// maxPropertyWords bounds property reads, in 32-bit units.
const maxPropertyWords = 1 << 16

// Windows reads titles from an X display. Empty Display means $DISPLAY.
type Windows struct {
	Display string
}

// Titles returns the titles of viewable client windows.
func (w Windows) Titles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := xgb.NewConnDisplay(w.Display)
	if err != nil {
		return nil, fmt.Errorf("connect x display: %w", err)
	}
	defer conn.Close()

	root := xproto.Setup(conn).DefaultScreen(conn).Root

	clientList, err := internAtom(conn, "_NET_CLIENT_LIST")
	if err != nil {
		return nil, err
	}
	netWMName, err := internAtom(conn, "_NET_WM_NAME")
	if err != nil {
		return nil, err
	}

	prop, err := xproto.GetProperty(conn, false, root, clientList, xproto.AtomWindow, 0, maxPropertyWords).Reply()
	if err != nil {
		return nil, fmt.Errorf("read _NET_CLIENT_LIST: %w", err)
	}

	titles := make([]string, 0)
	for _, win := range decodeWindowList(prop.Value) {
		attrs, err := xproto.GetWindowAttributes(conn, win).Reply()
		if err != nil || attrs.MapState != xproto.MapStateViewable {
			continue
		}
		if title := windowTitle(conn, win, netWMName); title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern %s: %w", name, err)
	}
	if reply.Atom == xproto.AtomNone {
		return 0, fmt.Errorf("window manager does not publish %s", name)
	}
	return reply.Atom, nil
}

// windowTitle prefers the UTF-8 EWMH name and falls back to WM_NAME.
func windowTitle(conn *xgb.Conn, win xproto.Window, netWMName xproto.Atom) string {
	for _, atom := range []xproto.Atom{netWMName, xproto.AtomWmName} {
		prop, err := xproto.GetProperty(conn, false, win, atom, xproto.GetPropertyTypeAny, 0, maxPropertyWords).Reply()
		if err != nil || len(prop.Value) == 0 {
			continue
		}
		if title := strings.TrimSpace(string(prop.Value)); title != "" {
			return title
		}
	}
	return ""
}

func decodeWindowList(value []byte) []xproto.Window {
	windows := make([]xproto.Window, 0, len(value)/4)
	for i := 0; i+4 <= len(value); i += 4 {
		windows = append(windows, xproto.Window(xgb.Get32(value[i:])))
	}
	return windows
}
