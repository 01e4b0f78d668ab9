package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fossilbed/strata/internal/db"
	"fossilbed/strata/internal/fossil"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	for _, r := range []fossil.Record{
		{ID: "3f2a9c10-0001", Invariant: "sqlite write ahead logging", CreatedAt: 1},
		{ID: "3f2a9c10-0002", Invariant: "sqlite checkpoint starvation", CreatedAt: 2},
		{ID: "7b11e4d0-0003", Invariant: "sourdough starter needs feeding", CreatedAt: 3},
		{ID: "gone-0004", Invariant: "sourdough hydration", CreatedAt: 4, Deleted: true},
	} {
		if _, err := d.InsertFossil(r); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func TestResolveFossil_ExactID(t *testing.T) {
	d := testDB(t)
	r, err := ResolveFossil(d, "3f2a9c10-0002")
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != "3f2a9c10-0002" {
		t.Errorf("got %s", r.ID)
	}
}

func TestResolveFossil_Prefix(t *testing.T) {
	d := testDB(t)
	r, err := ResolveFossil(d, "7b11")
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != "7b11e4d0-0003" {
		t.Errorf("got %s", r.ID)
	}

	_, err = ResolveFossil(d, "3f2a9c10")
	if !errors.Is(err, db.ErrAmbiguousReference) {
		t.Fatalf("err = %v, want ErrAmbiguousReference", err)
	}
	if !strings.Contains(err.Error(), "2 matches") {
		t.Errorf("error should list matches: %v", err)
	}
}

func TestResolveFossil_TextSearch(t *testing.T) {
	d := testDB(t)
	r, err := ResolveFossil(d, "sourdough")
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != "7b11e4d0-0003" {
		t.Errorf("deleted fossils must not match, got %s", r.ID)
	}

	if _, err := ResolveFossil(d, "sqlite"); !errors.Is(err, db.ErrAmbiguousReference) {
		t.Errorf("err = %v, want ErrAmbiguousReference", err)
	}
}

func TestResolveFossil_NotFound(t *testing.T) {
	d := testDB(t)
	for _, ref := range []string{"gone-0004", "zzzz", "the of"} {
		if _, err := ResolveFossil(d, ref); !errors.Is(err, db.ErrFossilNotFound) {
			t.Errorf("%q: err = %v, want ErrFossilNotFound", ref, err)
		}
	}
}

func TestDiscoverDB_Env(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STRATA_DB", path)

	got, err := DiscoverDB()
	if err != nil {
		t.Fatal(err)
	}
	if got != path {
		t.Errorf("got %s, want %s", got, path)
	}
}

func TestDiscoverDB_MissingFlagPath(t *testing.T) {
	t.Setenv("STRATA_DB", "")
	old := dbPath
	dbPath = filepath.Join(t.TempDir(), "missing.db")
	defer func() { dbPath = old }()

	if _, err := DiscoverDB(); err == nil || !strings.Contains(err.Error(), "--db") {
		t.Errorf("err = %v, want --db not found", err)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger("debug"); err != nil {
		t.Errorf("debug: %v", err)
	}
	if _, err := newLogger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestTruncTitle(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title", 8, "a longer..."},
		{"héllo wörld", 2, "h..."},
	}
	for _, tt := range tests {
		if got := truncTitle(tt.in, tt.max); got != tt.want {
			t.Errorf("truncTitle(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
