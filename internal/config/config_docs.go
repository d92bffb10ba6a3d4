package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation for a single config field. The genconfig tool
// uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "schedule.retry_budget")
// to their [FieldDoc] entries. The genconfig tool uses this map to annotate the
// generated config.default.toml with inline comments.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version — do not edit.",
	},

	// ── Gateway ──────────────────────────────────────────────────
	"gateway.base_url": {
		Comment: "Campus portal gateway root.",
	},
	"gateway.timeout_seconds": {
		Comment: "Per-request HTTP timeout in seconds.",
	},

	// ── Schedule ─────────────────────────────────────────────────
	"schedule.intervals_minutes": {
		Comment: "Allowed periodic re-login intervals, in minutes.\nThe active entry is selected by the intervalIndex preference.",
	},
	"schedule.retry_budget": {
		Comment: "Extra attempts after a failed scheduled login.",
	},
	"schedule.wake_retry_budget": {
		Comment: "Extra attempts after a failed login triggered by wake-from-sleep.\nThe network stack is often still down right after resume, so this\nbudget is deeper than retry_budget.",
	},
	"schedule.retry_delay_seconds": {
		Comment: "Pause between attempts of one login run, in seconds.",
	},

	// ── Idle ─────────────────────────────────────────────────────
	"idle.poll_interval_seconds": {
		Comment: "How often the sleep detector samples the wall clock, in seconds.",
	},
	"idle.tolerance_ms": {
		Comment: "Scheduler jitter margin in milliseconds. A clock gap counts as a\nsleep/resume only when it exceeds the poll interval by more than this.",
	},

	// ── Notify ───────────────────────────────────────────────────
	"notify.enabled": {
		Comment: "Desktop notifications for unattended login outcomes.",
	},
	"notify.app_name": {
		Comment: "Application name shown by the notification daemon.",
	},

	// ── Log ──────────────────────────────────────────────────────
	"log.level": {
		Comment: "Minimum log level: debug, info, warn, error.",
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},
}
