// Package notify surfaces the outcome of unattended login attempts to the
// desktop user.
//
// The daemon has no window of its own, so notifications are the only way a
// failed overnight re-login becomes visible. On Linux the sink shells out
// to notify-send; on platforms without it, outcomes fall back to the log.
// Marshaling into any UI event loop is the consumer's job, not this
// package's.
package notify

import (
	"log/slog"
	"os/exec"
	"runtime"
)

// Severity classifies a notification for urgency mapping and icon choice.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityError
)

// String returns the display name of the severity.
func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// urgency maps a severity to a notify-send urgency level.
func (s Severity) urgency() string {
	if s == SeverityError {
		return "critical"
	}
	return "normal"
}

// Notifier is the outcome sink consumed by the session daemon. The daemon
// emits exactly one notification per finished unattended login run.
type Notifier interface {
	Notify(title, body string, severity Severity)
}

// ///////////////////////////////////////////////
// Desktop
// ///////////////////////////////////////////////

// Desktop sends notifications through the notify-send command. Failures
// degrade to the log; a missing notification must never affect the login
// schedule.
type Desktop struct {
	// AppName is the application name shown by the notification daemon.
	AppName string
}

// Notify displays a desktop notification, falling back to the log when the
// platform has no notify-send.
func (d Desktop) Notify(title, body string, severity Severity) {
	if runtime.GOOS != "linux" {
		Log{}.Notify(title, body, severity)
		return
	}

	cmd := exec.Command("notify-send",
		"--app-name="+d.AppName,
		"--urgency="+severity.urgency(),
		title,
		body,
	)
	if err := cmd.Run(); err != nil {
		slog.Warn("failed to show notification", "title", title, "error", err)
		Log{}.Notify(title, body, severity)
	}
}

// ///////////////////////////////////////////////
// Log
// ///////////////////////////////////////////////

// Log writes notifications to the structured log. Used directly when
// notifications are disabled in config, and as the fallback sink.
type Log struct{}

// Notify records the notification in the daemon log.
func (Log) Notify(title, body string, severity Severity) {
	if severity == SeverityError {
		slog.Warn("notification", "title", title, "body", body)
		return
	}
	slog.Info("notification", "title", title, "body", body)
}
