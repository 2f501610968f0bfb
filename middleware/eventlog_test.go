package middleware

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

func TestEventLogRecordsLifecycleInOrder(t *testing.T) {
	t.Parallel()

	l := NewEventLog(zerolog.Nop())
	ctx := context.Background()
	inv := &Invocation{InvocationID: "inv-1"}

	if _, err := l.BeforeModel(ctx, inv, &ModelRequest{
		Contents: []*genai.Content{genai.NewContentFromText("prompt", genai.RoleUser)},
	}); err != nil {
		t.Fatalf("BeforeModel() error = %v", err)
	}
	if _, err := l.AfterModel(ctx, inv, textResponse("answer")); err != nil {
		t.Fatalf("AfterModel() error = %v", err)
	}
	if _, err := l.BeforeAgent(ctx, inv, "agent1"); err != nil {
		t.Fatalf("BeforeAgent() error = %v", err)
	}
	if _, err := l.AfterAgent(ctx, inv, "agent1"); err != nil {
		t.Fatalf("AfterAgent() error = %v", err)
	}

	entries := l.Entries()
	if len(entries) != 4 {
		t.Fatalf("Entries() returned %d entries, want 4", len(entries))
	}
	wantHooks := []string{"before_model", "after_model", "before_agent", "after_agent"}
	for i, want := range wantHooks {
		if entries[i].Hook != want {
			t.Fatalf("entry %d hook = %q, want %q", i, entries[i].Hook, want)
		}
	}
	if entries[2].Agent != "agent1" {
		t.Fatalf("entry 2 agent = %q, want agent1", entries[2].Agent)
	}
	if entries[0].Detail != "prompt" || entries[1].Detail != "answer" {
		t.Fatalf("details = %q / %q, want prompt / answer", entries[0].Detail, entries[1].Detail)
	}
}

func TestEventLogNeverOverrides(t *testing.T) {
	t.Parallel()

	l := NewEventLog(zerolog.Nop())
	ctx := context.Background()
	inv := &Invocation{}

	out, err := l.BeforeTool(ctx, inv, "search", map[string]any{"q": "go"})
	if err != nil || out != nil {
		t.Fatalf("BeforeTool() = (%v, %v), want (nil, nil)", out, err)
	}
	recovered, err := l.OnToolError(ctx, inv, "search", nil, errors.New("down"))
	if err != nil || recovered != nil {
		t.Fatalf("OnToolError() = (%v, %v), want (nil, nil)", recovered, err)
	}
	resp, err := l.OnModelError(ctx, inv, &ModelRequest{}, errors.New("down"))
	if err != nil || resp != nil {
		t.Fatalf("OnModelError() = (%v, %v), want (nil, nil)", resp, err)
	}
}

func TestEventLogTruncatesLongDetails(t *testing.T) {
	t.Parallel()

	l := NewEventLog(zerolog.Nop())
	long := strings.Repeat("x", detailLimit+50)
	if _, err := l.AfterModel(context.Background(), &Invocation{}, textResponse(long)); err != nil {
		t.Fatalf("AfterModel() error = %v", err)
	}

	entries := l.Entries()
	if len(entries) != 1 {
		t.Fatalf("Entries() returned %d entries, want 1", len(entries))
	}
	if got := len(entries[0].Detail); got != detailLimit {
		t.Fatalf("detail length = %d, want %d", got, detailLimit)
	}
}

func TestEventLogTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	l := NewEventLog(zerolog.Nop())
	long := strings.Repeat("é", detailLimit) // two bytes per rune
	if _, err := l.AfterModel(context.Background(), &Invocation{}, textResponse(long)); err != nil {
		t.Fatalf("AfterModel() error = %v", err)
	}

	entries := l.Entries()
	if len(entries) != 1 {
		t.Fatalf("Entries() returned %d entries, want 1", len(entries))
	}
	detail := entries[0].Detail
	if !utf8.ValidString(detail) {
		t.Fatalf("detail is not valid UTF-8: %q", detail)
	}
	if len(detail) > detailLimit {
		t.Fatalf("detail length = %d, want at most %d", len(detail), detailLimit)
	}
}

func TestEventLogEntriesReturnsSnapshot(t *testing.T) {
	t.Parallel()

	l := NewEventLog(zerolog.Nop())
	if _, err := l.BeforeAgent(context.Background(), &Invocation{}, "agent1"); err != nil {
		t.Fatalf("BeforeAgent() error = %v", err)
	}

	snapshot := l.Entries()
	if _, err := l.BeforeAgent(context.Background(), &Invocation{}, "agent2"); err != nil {
		t.Fatalf("BeforeAgent() error = %v", err)
	}
	if len(snapshot) != 1 {
		t.Fatalf("snapshot grew to %d entries, want it unchanged at 1", len(snapshot))
	}
}
