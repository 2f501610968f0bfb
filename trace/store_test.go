package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/metalagman/adkfluent/middleware"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestStoreAppendAndList(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	defer store.Close()
	ctx := context.Background()

	records := []Record{
		{AppName: "demo", SessionID: "sess-1", InvocationID: "inv-1", Hook: "before_agent", Agent: "echo"},
		{AppName: "demo", SessionID: "sess-1", InvocationID: "inv-1", Hook: "after_agent", Agent: "echo"},
		{AppName: "demo", SessionID: "sess-1", InvocationID: "inv-1", Hook: "on_event", Detail: "echo: hi"},
	}
	for _, rec := range records {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append %s: %v", rec.Hook, err)
		}
	}

	got, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("List() returned %d records, want %d", len(got), len(records))
	}
	for i, rec := range got {
		if rec.Hook != records[i].Hook {
			t.Fatalf("record %d hook = %q, want %q", i, rec.Hook, records[i].Hook)
		}
		if rec.ID <= 0 || rec.CreatedAt == "" {
			t.Fatalf("record %d missing id or timestamp: %+v", i, rec)
		}
	}
	if got[2].Detail != "echo: hi" {
		t.Fatalf("record 2 detail = %q, want %q", got[2].Detail, "echo: hi")
	}
}

func TestStoreListHonorsLimit(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, Record{AppName: "demo", Hook: "on_event"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(got))
	}
}

func TestRecorderPersistsHookInvocations(t *testing.T) {
	t.Parallel()

	rec := NewRecorder(openTestStore(t))
	ctx := context.Background()
	inv := &middleware.Invocation{AppName: "demo", SessionID: "sess-1", InvocationID: "inv-1"}

	if _, err := rec.BeforeAgent(ctx, inv, "echo"); err != nil {
		t.Fatalf("BeforeAgent() error = %v", err)
	}
	if _, err := rec.BeforeTool(ctx, inv, "search", nil); err != nil {
		t.Fatalf("BeforeTool() error = %v", err)
	}
	if _, err := rec.AfterTool(ctx, inv, "search", nil, nil); err != nil {
		t.Fatalf("AfterTool() error = %v", err)
	}

	got, err := rec.Store().List(ctx, 10)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(got))
	}
	if got[0].Hook != "before_agent" || got[0].Agent != "echo" {
		t.Fatalf("record 0 = %+v, want before_agent for echo", got[0])
	}
	if got[1].Tool != "search" || got[2].Tool != "search" {
		t.Fatalf("tool records = %+v / %+v, want search", got[1], got[2])
	}
	if got[0].AppName != "demo" || got[0].SessionID != "sess-1" || got[0].InvocationID != "inv-1" {
		t.Fatalf("record 0 identity = %+v, want invocation fields copied", got[0])
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("close recorder: %v", err)
	}
}

func TestOpenCreatesSchemaIdempotently(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trace.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Append(context.Background(), Record{AppName: "demo", Hook: "on_event"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	got, err := second.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list after reopen: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() after reopen returned %d records, want 1", len(got))
	}
}
