package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory(24 * time.Hour)
	ctx := context.Background()
	key := Key{Cantina: "gau", Date: "2024-01-15"}

	if _, ok, _ := m.Get(ctx, key); ok {
		t.Fatal("expected miss on empty cache")
	}

	if err := m.Put(ctx, key, []byte("first")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entry, ok, err := m.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(entry.PDF) != "first" {
		t.Errorf("expected first, got %q", entry.PDF)
	}
	if entry.FetchedAt.IsZero() {
		t.Error("expected fetch timestamp")
	}
}

func TestMemory_LastWriteWins(t *testing.T) {
	m := NewMemory(24 * time.Hour)
	ctx := context.Background()
	key := Key{Cantina: "gau", Date: "2024-01-15"}

	m.Put(ctx, key, []byte("first"))
	m.Put(ctx, key, []byte("second"))

	entry, _, _ := m.Get(ctx, key)
	if string(entry.PDF) != "second" {
		t.Errorf("expected second, got %q", entry.PDF)
	}
	if m.Len() != 1 {
		t.Errorf("expected single entry per key, got %d", m.Len())
	}
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	m := NewMemory(24 * time.Hour)
	ctx := context.Background()

	m.Put(ctx, Key{Cantina: "gau", Date: "2024-01-15"}, []byte("gau"))
	m.Put(ctx, Key{Cantina: "titu", Date: "2024-01-15"}, []byte("titu"))
	m.Put(ctx, Key{Cantina: "gau", Date: "2024-01-16"}, []byte("gau-16"))

	if m.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", m.Len())
	}
	entry, ok, _ := m.Get(ctx, Key{Cantina: "titu", Date: "2024-01-15"})
	if !ok || string(entry.PDF) != "titu" {
		t.Errorf("expected titu entry, got %q ok=%v", entry.PDF, ok)
	}
}

func TestMemory_CopiesData(t *testing.T) {
	m := NewMemory(24 * time.Hour)
	ctx := context.Background()
	key := Key{Cantina: "gau", Date: "2024-01-15"}

	data := []byte("original")
	m.Put(ctx, key, data)
	data[0] = 'X'

	entry, _, _ := m.Get(ctx, key)
	if string(entry.PDF) != "original" {
		t.Errorf("cache aliased caller's slice: %q", entry.PDF)
	}
}

func TestMemory_PrunesOldEntries(t *testing.T) {
	m := NewMemory(time.Millisecond)
	ctx := context.Background()

	m.Put(ctx, Key{Cantina: "gau", Date: "2024-01-12"}, []byte("old"))
	time.Sleep(5 * time.Millisecond)
	m.Put(ctx, Key{Cantina: "gau", Date: "2024-01-15"}, []byte("new"))

	if _, ok, _ := m.Get(ctx, Key{Cantina: "gau", Date: "2024-01-12"}); ok {
		t.Error("expected old entry pruned")
	}
	if _, ok, _ := m.Get(ctx, Key{Cantina: "gau", Date: "2024-01-15"}); !ok {
		t.Error("expected fresh entry retained")
	}
}

func TestKeyString(t *testing.T) {
	key := Key{Cantina: "aka", Date: "2024-02-01"}
	if key.String() != "aka:2024-02-01" {
		t.Errorf("unexpected key %q", key.String())
	}
}
