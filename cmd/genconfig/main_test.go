package main

import (
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/nuistin/nuistind/internal/config"
)

func TestRenderRoundTrips(t *testing.T) {
	out := render(config.DefaultConfig())

	var got config.Config
	if _, err := toml.Decode(out, &got); err != nil {
		t.Fatalf("generated TOML does not parse: %v", err)
	}
	want := config.DefaultConfig()
	if got.Version != want.Version {
		t.Errorf("version = %d, want %d", got.Version, want.Version)
	}
	if got.Gateway != want.Gateway {
		t.Errorf("gateway = %+v, want %+v", got.Gateway, want.Gateway)
	}
	if got.Idle != want.Idle || got.Notify != want.Notify || got.Log != want.Log {
		t.Error("generated TOML diverges from DefaultConfig")
	}
	if len(got.Schedule.IntervalsMinutes) != len(want.Schedule.IntervalsMinutes) {
		t.Errorf("intervals = %v, want %v", got.Schedule.IntervalsMinutes, want.Schedule.IntervalsMinutes)
	}
}

func TestRenderIncludesDocComments(t *testing.T) {
	out := render(config.DefaultConfig())

	for path, doc := range config.ConfigDocs {
		if doc.Comment == "" {
			continue
		}
		first := "# " + strings.SplitN(doc.Comment, "\n", 2)[0]
		if !strings.Contains(out, first) {
			t.Errorf("missing comment for %s: %q", path, first)
		}
	}
}

func TestRenderSectionSeparators(t *testing.T) {
	out := render(config.DefaultConfig())

	for _, section := range []string{"Gateway", "Schedule", "Idle", "Notify", "Log"} {
		sep := "# ///// " + section + " /////"
		if !strings.Contains(out, sep) {
			t.Errorf("missing section separator %q", sep)
		}
	}
}

func TestSectionName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"gateway", "Gateway"},
		{"log", "Log"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sectionName(tt.in); got != tt.want {
			t.Errorf("sectionName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
