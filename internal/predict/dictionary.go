// Package predict builds block-local prefix dictionaries for word suggestions.
package predict

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSuggestions is the number of candidates reachable with digit keys 1-9.
const MaxSuggestions = 9

// Dictionary maps lowercase letter prefixes to the words that start with them.
// Candidate order is first occurrence across the phrases it was built from.
type Dictionary struct {
	entries map[string][]string
	words   int
	fold    bool
}

// Option customizes Build.
type Option func(*Dictionary)

// FoldAccents indexes accented letters under their base letter (café as cafe)
// and folds typed prefixes the same way. Without it accented letters are
// dropped like any other non a-z character.
func FoldAccents() Option {
	return func(d *Dictionary) { d.fold = true }
}

// Build registers every cleaned word of phrases under each of its prefixes.
func Build(phrases []string, opts ...Option) *Dictionary {
	d := &Dictionary{entries: map[string][]string{}}
	for _, opt := range opts {
		opt(d)
	}
	// A word is always added under all of its prefixes at once, so one seen-set
	// keeps every prefix list free of duplicates.
	seen := map[string]struct{}{}
	for _, phrase := range phrases {
		for _, token := range strings.Fields(phrase) {
			if d.fold {
				token = foldAccents(token)
			}
			word := CleanWord(token)
			if word == "" {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			d.words++
			for i := 1; i <= len(word); i++ {
				prefix := word[:i]
				d.entries[prefix] = append(d.entries[prefix], word)
			}
		}
	}
	return d
}

// CleanWord lowercases token and drops everything outside a-z.
func CleanWord(token string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(token) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func foldAccents(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		return s
	}
	return folded
}

// Lookup returns all candidates for prefix, matched case-insensitively.
func (d *Dictionary) Lookup(prefix string) []string {
	if d == nil || prefix == "" {
		return nil
	}
	if d.fold {
		prefix = foldAccents(prefix)
	}
	list := d.entries[strings.ToLower(prefix)]
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Suggest returns at most limit candidates for prefix in dictionary order.
func (d *Dictionary) Suggest(prefix string, limit int) []string {
	list := d.Lookup(prefix)
	if limit >= 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

// Prefixes returns every key in sorted order.
func (d *Dictionary) Prefixes() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns a copy of the full mapping.
func (d *Dictionary) Entries() map[string][]string {
	if d == nil {
		return nil
	}
	out := make(map[string][]string, len(d.entries))
	for k, v := range d.entries {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Len is the number of prefixes.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Words is the number of distinct words.
func (d *Dictionary) Words() int {
	if d == nil {
		return 0
	}
	return d.words
}
