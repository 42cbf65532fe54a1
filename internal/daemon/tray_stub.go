// +build !windows

package daemon

import (
	"errors"

	"go.uber.org/zap"
)

// TrayApp is the notifier's tray presence. On non-Windows platforms it is a
// stub and the daemon falls back to console mode.
type TrayApp struct {
	logger *zap.Logger
}

// NewTrayApp always fails here; the tray build exists only for Windows
func NewTrayApp(daemon *Daemon, logger *zap.Logger) (*TrayApp, error) {
	return nil, errors.New("system tray is only supported on Windows")
}

// Run is a no-op without a tray
func (t *TrayApp) Run() {
}

// Stop is a no-op without a tray
func (t *TrayApp) Stop() {
}

// ShowNotification is a no-op without a tray
func (t *TrayApp) ShowNotification(title, message string) {
}
