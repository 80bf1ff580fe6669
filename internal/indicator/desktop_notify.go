package indicator

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest      = "org.freedesktop.Notifications"
	notifyPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyInterface = "org.freedesktop.Notifications"
)

func sessionNotifications(ctx context.Context) (*dbus.Conn, dbus.BusObject, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("connect session bus: %w", err)
	}
	return conn, conn.Object(notifyDest, notifyPath), nil
}

// desktopNotify sends a freedesktop notification and returns the server-assigned ID.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error) {
	conn, obj, err := sessionNotifications(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var id uint32
	call := obj.CallWithContext(ctx, notifyInterface+".Notify", 0,
		appName,
		replaceID,
		"audio-speakers",
		summary,
		"",
		[]string{},
		map[string]dbus.Variant{"transient": dbus.MakeVariant(true)},
		int32(timeoutMS),
	)
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("desktop notify failed: %w", err)
	}
	return id, nil
}

// desktopDismiss closes a notification by ID.
func desktopDismiss(ctx context.Context, id uint32) error {
	conn, obj, err := sessionNotifications(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if call := obj.CallWithContext(ctx, notifyInterface+".CloseNotification", 0, id); call.Err != nil {
		return fmt.Errorf("desktop dismiss failed: %w", call.Err)
	}
	return nil
}
