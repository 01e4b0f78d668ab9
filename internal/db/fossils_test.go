package db

import (
	"errors"
	"testing"
	"time"

	"fossilbed/strata/internal/fossil"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func mustInsert(t *testing.T, d *DB, r fossil.Record) string {
	t.Helper()
	id, err := d.InsertFossil(r)
	if err != nil {
		t.Fatalf("InsertFossil(%s): %v", r.ID, err)
	}
	return id
}

func strPtr(s string) *string { return &s }

func TestInsertAndGetFossil_RoundTrip(t *testing.T) {
	d := openTestDB(t)
	revisited := int64(1_700_000_500_000)
	in := fossil.Record{
		ID:              "f1",
		Invariant:       "  wal mode allows concurrent readers ",
		ProbeIntent:     "why is sqlite fast",
		Primitives:      []string{"wal", "sqlite"},
		CreatedAt:       1_700_000_000_000,
		LastRevisitedAt: &revisited,
		Quality:         5,
		ReuseCount:      2,
		ReentryOf:       strPtr("f0"),
	}
	mustInsert(t, d, fossil.Record{ID: "f0", Invariant: "root", CreatedAt: 1})
	mustInsert(t, d, in)

	got, err := d.GetFossil("f1")
	if err != nil {
		t.Fatalf("GetFossil: %v", err)
	}
	if got.Invariant != "wal mode allows concurrent readers" {
		t.Errorf("invariant not trimmed: %q", got.Invariant)
	}
	if len(got.Primitives) != 2 || got.Primitives[1] != "sqlite" {
		t.Errorf("primitives = %v", got.Primitives)
	}
	if got.DayKey != "2023-11-14" {
		t.Errorf("day key = %q, want 2023-11-14", got.DayKey)
	}
	if got.LastRevisitedAt == nil || *got.LastRevisitedAt != revisited {
		t.Errorf("last revisited = %v", got.LastRevisitedAt)
	}
	if got.ReentryOf == nil || *got.ReentryOf != "f0" {
		t.Errorf("reentry_of = %v", got.ReentryOf)
	}
	if got.SupersededBy != nil || got.DismissedUntil != nil {
		t.Error("NULL columns should scan to nil")
	}
	if got.Quality != 5 || got.ReuseCount != 2 || got.Deleted {
		t.Errorf("counters = %+v", got)
	}
}

func TestInsertFossil_Defaults(t *testing.T) {
	d := openTestDB(t)
	before := time.Now().UnixMilli()
	id := mustInsert(t, d, fossil.Record{Invariant: "no id given"})
	if id == "" {
		t.Fatal("expected generated id")
	}
	got, err := d.GetFossil(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.CreatedAt < before {
		t.Errorf("created_at %d before insert time %d", got.CreatedAt, before)
	}
	if got.Quality != 3 {
		t.Errorf("quality = %d, want 3", got.Quality)
	}
	if got.Primitives != nil && len(got.Primitives) != 0 {
		t.Errorf("primitives = %v", got.Primitives)
	}
}

func TestInsertFossil_DuplicateID(t *testing.T) {
	d := openTestDB(t)
	mustInsert(t, d, fossil.Record{ID: "dup", Invariant: "a", CreatedAt: 1})
	if _, err := d.InsertFossil(fossil.Record{ID: "dup", Invariant: "b", CreatedAt: 2}); err == nil {
		t.Fatal("expected primary key error")
	}
}

func TestGetFossil_NotFound(t *testing.T) {
	d := openTestDB(t)
	_, err := d.GetFossil("missing")
	if !errors.Is(err, ErrFossilNotFound) {
		t.Fatalf("err = %v, want ErrFossilNotFound", err)
	}
}

func TestAllFossils_NewestFirstIncludingHidden(t *testing.T) {
	d := openTestDB(t)
	mustInsert(t, d, fossil.Record{ID: "old", Invariant: "a", CreatedAt: 100})
	mustInsert(t, d, fossil.Record{ID: "new", Invariant: "b", CreatedAt: 300})
	mustInsert(t, d, fossil.Record{ID: "gone", Invariant: "c", CreatedAt: 200, Deleted: true})

	all, err := d.AllFossils()
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	want := []string{"new", "gone", "old"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if !all[1].Deleted {
		t.Error("deleted flag lost")
	}
}

func TestSearchByIDPrefix(t *testing.T) {
	d := openTestDB(t)
	mustInsert(t, d, fossil.Record{ID: "abc123", Invariant: "a", CreatedAt: 1})
	mustInsert(t, d, fossil.Record{ID: "abc456", Invariant: "b", CreatedAt: 2})
	mustInsert(t, d, fossil.Record{ID: "abd789", Invariant: "c", CreatedAt: 3})
	mustInsert(t, d, fossil.Record{ID: "abc999", Invariant: "d", CreatedAt: 4, Deleted: true})
	mustInsert(t, d, fossil.Record{ID: "a_c000", Invariant: "e", CreatedAt: 5})

	got, err := d.SearchByIDPrefix("abc", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "abc123" || got[1].ID != "abc456" {
		t.Errorf("got %v", got)
	}

	got, _ = d.SearchByIDPrefix("abc", 1)
	if len(got) != 1 {
		t.Errorf("limit ignored: %d results", len(got))
	}

	// underscore is literal, not a LIKE wildcard
	got, _ = d.SearchByIDPrefix("a_", 10)
	if len(got) != 1 || got[0].ID != "a_c000" {
		t.Errorf("got %v", got)
	}
}
