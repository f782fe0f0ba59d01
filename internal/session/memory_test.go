package session

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAddExchangeAndGetContext(t *testing.T) {
	m := NewDefault()

	m.AddExchange("s1", "حکم روزه مسافر چیست", "روزه مسافر صحیح نیست.")

	got := m.GetContext("s1")
	want := "سوال قبلی: حکم روزه مسافر چیست\nپاسخ قبلی: روزه مسافر صحیح نیست."
	if got != want {
		t.Errorf("GetContext = %q, want %q", got, want)
	}

	if m.GetContext("other") != "" {
		t.Error("unknown session must yield empty context")
	}
	if m.GetContext("") != "" {
		t.Error("empty session id must yield empty context")
	}
}

func TestTurnBound(t *testing.T) {
	m := New(3, time.Minute, time.Minute)

	for i := 1; i <= 5; i++ {
		m.AddExchange("s1", fmt.Sprintf("سوال %d", i), fmt.Sprintf("پاسخ %d", i))
	}

	ctx := m.GetContext("s1")
	if strings.Contains(ctx, "سوال 1") || strings.Contains(ctx, "سوال 2") {
		t.Errorf("oldest exchanges must be evicted, got %q", ctx)
	}
	for i := 3; i <= 5; i++ {
		if !strings.Contains(ctx, fmt.Sprintf("سوال %d", i)) {
			t.Errorf("exchange %d missing from context %q", i, ctx)
		}
	}
	if got := strings.Count(ctx, "سوال قبلی"); got != 3 {
		t.Errorf("expected 3 retained exchanges, got %d", got)
	}
}

func TestTruncation(t *testing.T) {
	m := NewDefault()

	longQ := strings.Repeat("س", 250)
	longA := strings.Repeat("پ", 400)
	m.AddExchange("s1", longQ, longA)

	ctx := m.GetContext("s1")
	lines := strings.Split(ctx, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	q := strings.TrimPrefix(lines[0], "سوال قبلی: ")
	a := strings.TrimPrefix(lines[1], "پاسخ قبلی: ")
	if n := len([]rune(q)); n != 200 {
		t.Errorf("question truncates to 200 runes, got %d", n)
	}
	if n := len([]rune(a)); n != 300 {
		t.Errorf("answer truncates to 300 runes, got %d", n)
	}
}

func TestTTLExpiry(t *testing.T) {
	m := New(5, 30*time.Millisecond, time.Hour)

	m.AddExchange("s1", "سوال", "پاسخ")
	if m.GetContext("s1") == "" {
		t.Fatal("fresh session must be readable")
	}

	time.Sleep(60 * time.Millisecond)

	if got := m.GetContext("s1"); got != "" {
		t.Errorf("expired session must read as empty, got %q", got)
	}
}

func TestTTLRefreshOnWrite(t *testing.T) {
	m := New(5, 100*time.Millisecond, time.Hour)

	m.AddExchange("s1", "سوال اول", "پاسخ اول")
	time.Sleep(60 * time.Millisecond)

	// A write inside the TTL window restarts the idle clock
	m.AddExchange("s1", "سوال دوم", "پاسخ دوم")
	time.Sleep(60 * time.Millisecond)

	ctx := m.GetContext("s1")
	if ctx == "" {
		t.Fatal("session active within the TTL must survive")
	}
	if !strings.Contains(ctx, "سوال اول") || !strings.Contains(ctx, "سوال دوم") {
		t.Errorf("both exchanges expected, got %q", ctx)
	}
}

func TestClearSession(t *testing.T) {
	m := NewDefault()

	m.AddExchange("s1", "سوال", "پاسخ")
	m.AddExchange("s2", "سوال", "پاسخ")

	m.ClearSession("s1")

	if m.GetContext("s1") != "" {
		t.Error("cleared session must be gone")
	}
	if m.GetContext("s2") == "" {
		t.Error("clearing one session must not touch another")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}
