package predict

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildScenario(t *testing.T) {
	d := Build([]string{"cat dog", "dog runs fast"})
	tests := []struct {
		prefix string
		want   []string
	}{
		{"d", []string{"dog"}},
		{"do", []string{"dog"}},
		{"dog", []string{"dog"}},
		{"r", []string{"runs"}},
		{"f", []string{"fast"}},
		{"c", []string{"cat"}},
		{"x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, d.Lookup(tt.prefix)); diff != "" {
				t.Fatalf("Lookup(%q) mismatch (-want +got):\n%s", tt.prefix, diff)
			}
		})
	}
}

func TestBuildFirstOccurrenceOrder(t *testing.T) {
	d := Build([]string{"the tower", "take the train", "Tea time"})
	want := []string{"the", "tower", "take", "train", "tea", "time"}
	if diff := cmp.Diff(want, d.Lookup("t")); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"take"}, d.Lookup("TA")); diff != "" {
		t.Fatalf("case-insensitive lookup mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCleansTokens(t *testing.T) {
	d := Build([]string{"Don't stop -- 42 café, co-op!"})
	tests := map[string][]string{
		"dont": {"dont"},
		"stop": {"stop"},
		"caf":  {"caf"},
		"cafe": nil,
		"coop": {"coop"},
	}
	for prefix, want := range tests {
		if diff := cmp.Diff(want, d.Lookup(prefix)); diff != "" {
			t.Fatalf("Lookup(%q) mismatch (-want +got):\n%s", prefix, diff)
		}
	}
	if d.Words() != 4 {
		t.Fatalf("expected 4 words, got %d", d.Words())
	}
}

func TestBuildInvariants(t *testing.T) {
	phrases := []string{
		"my watch fell in the water",
		"the water was not clear enough",
		"Flashing red light means STOP",
		"what you see is what you get",
		"a, b; c: d!",
	}
	d := Build(phrases)
	for _, prefix := range d.Prefixes() {
		if prefix == "" {
			t.Fatalf("empty prefix key")
		}
		for _, r := range prefix {
			if r < 'a' || r > 'z' {
				t.Fatalf("prefix %q is not lowercase alphabetic", prefix)
			}
		}
		seen := map[string]struct{}{}
		for _, word := range d.Lookup(prefix) {
			if !strings.HasPrefix(word, prefix) {
				t.Fatalf("candidate %q does not start with %q", word, prefix)
			}
			if _, ok := seen[word]; ok {
				t.Fatalf("duplicate candidate %q under %q", word, prefix)
			}
			seen[word] = struct{}{}
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	phrases := []string{"every apple from every tree", "take a coffee break", "the trains are always late"}
	a := Build(phrases)
	b := Build(phrases)
	if diff := cmp.Diff(a.Entries(), b.Entries()); diff != "" {
		t.Fatalf("builds differ (-a +b):\n%s", diff)
	}
}

func TestSuggestLimit(t *testing.T) {
	d := Build([]string{"aa ab ac ad ae af ag ah ai aj ak"})
	got := d.Suggest("a", MaxSuggestions)
	if len(got) != MaxSuggestions {
		t.Fatalf("expected %d suggestions, got %d", MaxSuggestions, len(got))
	}
	if got[0] != "aa" || got[8] != "ai" {
		t.Fatalf("unexpected suggestions: %v", got)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	d := Build([]string{"dog dad"})
	got := d.Lookup("d")
	got[0] = "changed"
	if d.Lookup("d")[0] != "dog" {
		t.Fatalf("Lookup exposed internal slice")
	}
}

func TestEmptyPrefix(t *testing.T) {
	d := Build([]string{"dog"})
	if got := d.Lookup(""); got != nil {
		t.Fatalf("expected no candidates for empty prefix, got %v", got)
	}
}

func TestBuildDropsAccentedLetters(t *testing.T) {
	d := Build([]string{"Café Über naïve"})
	tests := []struct {
		prefix string
		want   []string
	}{
		{"caf", []string{"caf"}},
		{"cafe", nil},
		{"b", []string{"ber"}},
		{"u", nil},
		{"nav", []string{"nave"}},
		{"café", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, d.Lookup(tt.prefix)); diff != "" {
			t.Fatalf("Lookup(%q) mismatch (-want +got):\n%s", tt.prefix, diff)
		}
	}
}

func TestBuildFoldAccents(t *testing.T) {
	d := Build([]string{"Café Über naïve"}, FoldAccents())
	tests := []struct {
		prefix string
		want   []string
	}{
		{"caf", []string{"cafe"}},
		{"café", []string{"cafe"}},
		{"Ü", []string{"uber"}},
		{"naï", []string{"naive"}},
		{"ber", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, d.Lookup(tt.prefix)); diff != "" {
			t.Fatalf("Lookup(%q) mismatch (-want +got):\n%s", tt.prefix, diff)
		}
	}
}

func TestNilDictionary(t *testing.T) {
	var d *Dictionary
	if d.Entries() != nil || d.Lookup("a") != nil || d.Prefixes() != nil || d.Len() != 0 || d.Words() != 0 {
		t.Fatalf("nil dictionary must behave as empty")
	}
}
