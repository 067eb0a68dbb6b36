package resource

import (
	"testing"
	"time"
)

func TestClampRefreshMinutes(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultRefreshMinutes},
		{-3, MinRefreshMinutes},
		{1, MinRefreshMinutes},
		{5, 5},
		{7, 5},
		{8, 10},
		{10, 10},
		{13, 15},
		{15, 15},
		{60, MaxRefreshMinutes},
	}
	for _, tt := range tests {
		if got := ClampRefreshMinutes(tt.in); got != tt.want {
			t.Errorf("ClampRefreshMinutes(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTTLPolicy(t *testing.T) {
	p := TTLPolicy{TasksMinutes: 15, NotificationsMinutes: 5}

	if got := p.TTL(Tasks); got != 15*time.Minute {
		t.Fatalf("TTL(Tasks) = %v, want 15m", got)
	}
	if got := p.TTL(Notifications); got != 5*time.Minute {
		t.Fatalf("TTL(Notifications) = %v, want 5m", got)
	}
	if got := p.TTL(Actions); got != time.Hour {
		t.Fatalf("TTL(Actions) = %v, want 1h", got)
	}
	if got := p.TTL(Conversations); got != 5*time.Minute {
		t.Fatalf("TTL(Conversations) = %v, want 5m", got)
	}
	if got := p.TTL(ConversationHistory); got != 5*time.Minute {
		t.Fatalf("TTL(ConversationHistory) = %v, want 5m", got)
	}
	if p.RefreshInterval(Tasks) != p.TTL(Tasks) {
		t.Fatalf("refresh interval and TTL disagree for tasks")
	}

	updated := p.WithMinutes(Tasks, 6).WithMinutes(Actions, 15)
	if updated.TasksMinutes != 5 {
		t.Fatalf("TasksMinutes = %d, want 5", updated.TasksMinutes)
	}
	if updated.TTL(Actions) != time.Hour {
		t.Fatalf("fixed TTL changed: %v", updated.TTL(Actions))
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range All {
		got, err := ParseKind(kind.String())
		if err != nil {
			t.Fatalf("ParseKind(%q) returned error: %v", kind.String(), err)
		}
		if got != kind {
			t.Fatalf("ParseKind(%q) = %v, want %v", kind.String(), got, kind)
		}
	}
	if got, err := ParseKind(" History "); err != nil || got != ConversationHistory {
		t.Fatalf("ParseKind(history) = %v, %v", got, err)
	}
	if _, err := ParseKind("widgets"); err == nil {
		t.Fatalf("ParseKind(widgets) returned nil error")
	}
}

func TestParseTime(t *testing.T) {
	if _, ok := ParseTime(""); ok {
		t.Fatalf("empty string parsed")
	}
	got, ok := ParseTime("2026-03-01T10:20:30Z")
	if !ok || got.Year() != 2026 || got.Minute() != 20 {
		t.Fatalf("RFC3339 parse = %v, %v", got, ok)
	}
	got, ok = ParseTime("2026-03-01 10:20:30")
	if !ok || got.Hour() != 10 {
		t.Fatalf("alternate layout parse = %v, %v", got, ok)
	}
	if _, ok := ParseTime("yesterday"); ok {
		t.Fatalf("garbage parsed")
	}
}

func TestTaskOpen(t *testing.T) {
	if !(Task{Status: "pending"}).Open() {
		t.Fatalf("pending task should be open")
	}
	if (Task{Status: "Closed"}).Open() {
		t.Fatalf("closed task should not be open")
	}
	if (Task{Status: "pending", Synthetic: true}).Open() {
		t.Fatalf("synthetic task should not count")
	}
}
