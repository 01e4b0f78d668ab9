package db

import (
	"reflect"
	"testing"

	"fossilbed/strata/internal/fossil"
)

func TestSearchTerms_StopwordRemoval(t *testing.T) {
	got := SearchTerms("Add the flag to a function for parsing")
	want := []string{"add", "flag", "function", "parsing"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSearchTerms_ShortWords(t *testing.T) {
	got := SearchTerms("go do run fast")
	want := []string{"run", "fast"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSearchTerms_PunctuationTrimming(t *testing.T) {
	got := SearchTerms("write_ahead() logging, (sqlite.c)")
	want := []string{"write_ahead", "logging", "sqlite.c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSearchTerms_AllStopwordsAndRepeats(t *testing.T) {
	if got := SearchTerms("the a an in on at"); len(got) != 0 {
		t.Errorf("expected empty, got %q", got)
	}
	if got := SearchTerms("Cache cache CACHE"); !reflect.DeepEqual(got, []string{"cache"}) {
		t.Errorf("got %q", got)
	}
	if got := SearchTerms(""); len(got) != 0 {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestSearchFossils(t *testing.T) {
	d := openTestDB(t)
	mustInsert(t, d, fossil.Record{ID: "a", Invariant: "sqlite write ahead logging", CreatedAt: 1})
	mustInsert(t, d, fossil.Record{ID: "b", Invariant: "logging levels", CreatedAt: 2})
	mustInsert(t, d, fossil.Record{ID: "c", Invariant: "sourdough", ProbeIntent: "why does SQLite bread rise", CreatedAt: 3})
	mustInsert(t, d, fossil.Record{ID: "d", Invariant: "sqlite logging", CreatedAt: 4, SupersededBy: strPtr("a")})

	got, err := d.SearchFossils("the sqlite logging")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	// a matches both terms; c and b match one, newest first; d is superseded
	want := []string{"a", "c", "b"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}

	got, err = d.SearchFossils("of the")
	if err != nil || len(got) != 0 {
		t.Errorf("stopword query: %v, %v", got, err)
	}
}
