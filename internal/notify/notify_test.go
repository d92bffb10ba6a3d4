package notify

import "testing"

func TestSeverityString(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityInfo, "info"},
		{SeveritySuccess, "success"},
		{SeverityError, "error"},
		{Severity(99), "info"},
	}

	for _, tt := range tests {
		if got := tt.severity.String(); got != tt.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func TestSeverityUrgency(t *testing.T) {
	if got := SeverityError.urgency(); got != "critical" {
		t.Errorf("error urgency = %q, want critical", got)
	}
	if got := SeveritySuccess.urgency(); got != "normal" {
		t.Errorf("success urgency = %q, want normal", got)
	}
	if got := SeverityInfo.urgency(); got != "normal" {
		t.Errorf("info urgency = %q, want normal", got)
	}
}

func TestLogNotifyDoesNotPanic(t *testing.T) {
	Log{}.Notify("title", "body", SeverityError)
	Log{}.Notify("title", "body", SeverityInfo)
}
