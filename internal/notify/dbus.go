//go:build linux

package notify

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/llehouerou/ytm/internal/playlist"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"
	notifyMethod      = notificationsName + ".Notify"
	closeMethod       = notificationsName + ".CloseNotification"
)

const (
	trackIcon     = "audio-x-generic"
	trackCategory = "x-ytm.track"
	trackTimeout  = int32(4000) // ms
	urgencyLow    = byte(0)
)

// busObject is the part of dbus.BusObject the notifier uses.
type busObject interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
}

// dbusNotifier shows track notifications through the session bus
// notification server.
type dbusNotifier struct {
	obj     busObject
	appName string
}

// New creates a Notifier on the session bus on behalf of appName, which is
// also sent as the desktop entry. Without a session bus it returns a no-op
// notifier.
func New(appName string) (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return &stubNotifier{}, nil //nolint:nilerr // notifications are optional
	}
	return &dbusNotifier{obj: conn.Object(notificationsName, notificationsPath), appName: appName}, nil
}

// Track calls Notify(app_name, replaces_id, app_icon, summary, body,
// actions, hints, expire_timeout).
func (n *dbusNotifier) Track(track playlist.Track, replaces uint32) (uint32, error) {
	call := n.obj.Call(notifyMethod, 0,
		n.appName,
		replaces,
		trackIcon,
		track.DisplayTitle(),
		trackBody(track),
		[]string{},
		n.trackHints(),
		trackTimeout,
	)

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify %q: %w", track.DisplayTitle(), err)
	}
	return id, nil
}

func (n *dbusNotifier) trackHints() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"urgency":        dbus.MakeVariant(urgencyLow),
		"desktop-entry":  dbus.MakeVariant(n.appName),
		"category":       dbus.MakeVariant(trackCategory),
		"suppress-sound": dbus.MakeVariant(true),
	}
}

var bodyEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// trackBody is "uploader · m:ss", escaped for servers that render body markup.
func trackBody(track playlist.Track) string {
	var parts []string
	if track.Uploader != "" {
		parts = append(parts, bodyEscaper.Replace(track.Uploader))
	}
	if track.Duration > 0 {
		parts = append(parts, playlist.FormatDuration(track.Duration))
	}
	return strings.Join(parts, " · ")
}

// Close closes a notification by ID.
func (n *dbusNotifier) Close(id uint32) error {
	return n.obj.Call(closeMethod, 0, id).Err
}

// stubNotifier is used when the session bus is unavailable.
type stubNotifier struct{}

func (s *stubNotifier) Track(playlist.Track, uint32) (uint32, error) {
	return 0, nil
}

func (s *stubNotifier) Close(uint32) error {
	return nil
}
