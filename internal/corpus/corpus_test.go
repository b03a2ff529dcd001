package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSkipsCommentsAndDuplicates(t *testing.T) {
	input := "# header\n\nthe cat  sat\nthe cat sat\n  a dog  \n"
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Phrases) != 2 {
		t.Fatalf("expected 2 phrases, got %v", c.Phrases)
	}
	if c.Phrases[0] != "the cat sat" || c.Phrases[1] != "a dog" {
		t.Fatalf("unexpected phrases: %q", c.Phrases)
	}
	if c.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %d", c.Duplicates)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(strings.NewReader("# nothing\n\n")); err == nil {
		t.Fatalf("expected error for empty phrase list")
	}
}

func TestDefaultFillsTwoBlocks(t *testing.T) {
	c := Default()
	if len(c.Phrases) < 40 {
		t.Fatalf("default corpus too small: %d", len(c.Phrases))
	}
	if c.Duplicates != 0 {
		t.Fatalf("default corpus has %d duplicates", c.Duplicates)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.txt")
	if err := os.WriteFile(path, []byte("one two\nthree four\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Phrases) != 2 {
		t.Fatalf("expected 2 phrases, got %d", len(c.Phrases))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
