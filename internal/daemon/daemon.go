// Package daemon runs the scheduled flextime notification loop: every
// working day at a configured local time, each subscriber gets their current
// flex balance pushed to Slack.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/username/flextime-bot/internal/calendar"
	"github.com/username/flextime-bot/internal/report"
	"github.com/username/flextime-bot/pkg/dateutil"
)

// Notifier delivers a flextime result to one user.
type Notifier interface {
	PostToUser(userID, header string, messages []string) error
}

// Daemon wakes up once a day and notifies every subscriber.
type Daemon struct {
	service     *report.Service
	notifier    Notifier
	store       *SubscriberStore
	calendar    calendar.Calendar
	location    *time.Location
	dailyHour   int // Hour to run notifications (0-23)
	dailyMinute int // Minute to run notifications (0-59)
	systemTray  bool
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	trayApp     *TrayApp
	mu          sync.Mutex // Protect against concurrent runs
	running     bool
}

func NewDaemon(
	service *report.Service,
	notifier Notifier,
	store *SubscriberStore,
	cal calendar.Calendar,
	location *time.Location,
	dailyHour, dailyMinute int,
	systemTray bool,
	logger *zap.Logger,
) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		service:     service,
		notifier:    notifier,
		store:       store,
		calendar:    cal,
		location:    location,
		dailyHour:   dailyHour,
		dailyMinute: dailyMinute,
		systemTray:  systemTray,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs the daemon until stopped.
func (d *Daemon) Start() error {
	if d.systemTray {
		d.logger.Info("Initializing system tray")
		trayApp, err := NewTrayApp(d, d.logger)
		if err != nil {
			d.logger.Warn("Failed to initialize system tray", zap.Error(err))
			return d.startWithoutTray()
		}
		d.trayApp = trayApp
		// Run tray (blocks until Quit)
		d.trayApp.Run()
		return nil
	}

	d.logger.Info("Running without system tray")
	return d.startWithoutTray()
}

func (d *Daemon) startWithoutTray() error {
	d.logger.Info("Starting console mode")
	d.runScheduledLogic()
	return nil
}

// runScheduledLogic is the daily loop (called from tray or standalone).
func (d *Daemon) runScheduledLogic() {
	d.logger.Info("Daemon scheduled logic started",
		zap.Int("daily_hour", d.dailyHour),
		zap.Int("daily_minute", d.dailyMinute),
		zap.String("timezone", d.location.String()))

	// Catch up immediately if the scheduled time already passed today.
	now := time.Now().In(d.location)
	today := now.Format("2006-01-02")
	scheduledToday := time.Date(now.Year(), now.Month(), now.Day(),
		d.dailyHour, d.dailyMinute, 0, 0, d.location)

	if now.After(scheduledToday) && d.store.LastNotifyDate() != today {
		d.logger.Info("Scheduled time already passed today, notifying now",
			zap.Time("scheduled_time", scheduledToday),
			zap.Time("current_time", now))
		d.notifyAndReport()
	}

	nextRun := d.calculateNextRun()
	d.logger.Info("Next notification run scheduled",
		zap.Time("next_run", nextRun),
		zap.Duration("wait_duration", time.Until(nextRun)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Check every minute if it's time to run
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("Daemon stopped")
			if d.trayApp != nil {
				d.trayApp.Stop()
			}
			return

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			if d.trayApp != nil {
				d.trayApp.Stop()
			}
			d.Stop()
			return

		case tick := <-ticker.C:
			if !d.shouldRunAt(tick) {
				continue
			}
			if d.store.LastNotifyDate() == tick.In(d.location).Format("2006-01-02") {
				d.logger.Debug("Already notified today, skipping")
				continue
			}

			d.logger.Info("Starting scheduled notification run", zap.Time("time", tick))
			d.notifyAndReport()

			nextRun = d.calculateNextRun()
			d.logger.Info("Next notification run scheduled",
				zap.Time("next_run", nextRun),
				zap.Duration("wait_duration", time.Until(nextRun)))
		}
	}
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) notifyAndReport() {
	if err := d.runNotify(); err != nil {
		d.logger.Error("Notification run failed", zap.Error(err))
		if d.trayApp != nil {
			d.trayApp.ShowNotification("Notifications Failed", fmt.Sprintf("Error: %v", err))
		}
		return
	}
	if d.trayApp != nil {
		d.trayApp.ShowNotification("Notifications Sent", "Flextime balances delivered")
	}
}

// runNotify delivers the flex balance to every subscriber. Protected with a
// mutex so a manual trigger cannot overlap the scheduled run.
func (d *Daemon) runNotify() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		d.logger.Warn("Notification run already in progress, skipping")
		return fmt.Errorf("notification run already in progress")
	}

	today := dateutil.Today()
	todayStr := today.Format("2006-01-02")
	if d.store.LastNotifyDate() == todayStr {
		d.logger.Info("Already notified today, skipping",
			zap.String("last_notify_date", d.store.LastNotifyDate()))
		return nil
	}

	if !d.calendar.IsWorkingDay(today) {
		d.logger.Info("Not a working day, skipping notifications", zap.Time("date", today))
		// Mark the day done so weekends are not retried every minute.
		return d.store.SetLastNotifyDate(todayStr)
	}

	d.running = true
	defer func() {
		d.running = false
	}()

	subscribers := d.store.List()
	d.logger.Info("Notifying subscribers", zap.Int("count", len(subscribers)))

	failures := 0
	for _, sub := range subscribers {
		result := d.service.CalcFlextime(sub.Email)
		if err := d.notifier.PostToUser(sub.ID, result.Header, result.Messages); err != nil {
			d.logger.Error("Failed to notify subscriber",
				zap.String("email", sub.Email),
				zap.Error(err))
			failures++
			continue
		}
		d.logger.Info("Subscriber notified", zap.String("email", sub.Email))
	}

	if failures > 0 {
		return fmt.Errorf("failed to notify %d of %d subscribers", failures, len(subscribers))
	}
	return d.store.SetLastNotifyDate(todayStr)
}

// NotifyNow triggers an immediate run (called from tray menu).
func (d *Daemon) NotifyNow() {
	d.logger.Info("Manual notification run triggered")
	d.notifyAndReport()
}

// GetStatus returns daemon status for the tray.
func (d *Daemon) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"running":          true,
		"subscribers":      len(d.store.List()),
		"last_notify_date": d.store.LastNotifyDate(),
		"next_run":         d.calculateNextRun().Format("2006-01-02 15:04"),
	}
}

// calculateNextRun returns the next scheduled run in the daemon's timezone.
func (d *Daemon) calculateNextRun() time.Time {
	now := time.Now().In(d.location)

	today := time.Date(now.Year(), now.Month(), now.Day(),
		d.dailyHour, d.dailyMinute, 0, 0, d.location)

	if now.After(today) || now.Equal(today) {
		return today.AddDate(0, 0, 1)
	}
	return today
}

// shouldRunAt checks if notifications should run at the given time.
func (d *Daemon) shouldRunAt(now time.Time) bool {
	local := now.In(d.location)
	return local.Hour() == d.dailyHour && local.Minute() == d.dailyMinute
}
