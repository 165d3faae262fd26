package countries

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	c, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 12 {
		t.Fatalf("Len() = %d, want 12", c.Len())
	}
	for _, id := range []string{"Estonia", "UK", "US"} {
		if !c.IsKnown(id) {
			t.Errorf("IsKnown(%q) = false", id)
		}
	}
	if got := c.DisplayName("France"); got != "France" {
		t.Errorf("DisplayName(France) = %q", got)
	}
}

func TestParseSkipsCommentsAndDuplicates(t *testing.T) {
	c := Parse([]string{
		"# header",
		"",
		"UK|United Kingdom",
		"  France  ",
		"UK|Britain",
		"|Nameless",
		"Spain",
	})
	want := []string{"UK", "France", "Spain"}
	got := c.IDs()
	if len(got) != len(want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if n := c.DisplayName("UK"); n != "United Kingdom" {
		t.Errorf("DisplayName(UK) = %q, want first occurrence", n)
	}
	if n := c.DisplayName("Atlantis"); n != "Atlantis" {
		t.Errorf("unknown DisplayName = %q", n)
	}
}

func TestLoadPrefersInlineThenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "countries.txt")
	if err := os.WriteFile(path, []byte("Chile\nPeru\nBolivia\nBrazil\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load(file): %v", err)
	}
	if c.Len() != 4 || !c.IsKnown("Peru") {
		t.Fatalf("file catalog = %v", c.IDs())
	}

	c, err = Load(path, []string{"Japan", "Korea", "China"})
	if err != nil {
		t.Fatalf("Load(inline): %v", err)
	}
	if c.Len() != 3 || c.IsKnown("Peru") {
		t.Fatalf("inline catalog = %v", c.IDs())
	}
}

func TestLoadRejectsSmallOrMissing(t *testing.T) {
	if _, err := Load("", []string{"A", "B", "A"}); !errors.Is(err, ErrTooFew) {
		t.Fatalf("err = %v, want ErrTooFew", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Fatalf("missing file should error")
	}
}

func TestIDsReturnsCopy(t *testing.T) {
	c := Parse([]string{"A", "B", "C"})
	ids := c.IDs()
	ids[0] = "Z"
	if c.IDs()[0] != "A" {
		t.Fatalf("IDs() exposed internal slice")
	}
}
