// Package corpus loads phrase sets and samples study blocks from them.
package corpus

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed phrases.txt
var defaultPhrases string

// Corpus is a deduplicated phrase pool in file order.
type Corpus struct {
	Phrases    []string
	Duplicates int
}

// Default returns the embedded phrase set.
func Default() Corpus {
	c, err := Parse(strings.NewReader(defaultPhrases))
	if err != nil {
		panic(fmt.Sprintf("embedded phrase set is invalid: %v", err))
	}
	return c
}

// Load reads one phrase per line from path. An empty path selects the embedded set.
func Load(path string) (Corpus, error) {
	if path == "" {
		return Default(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return Corpus{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only phrase file.
			_ = cerr
		}
	}()
	return Parse(file)
}

// Parse reads phrases from r. Blank lines and lines starting with '#' are skipped,
// internal whitespace is collapsed and repeated phrases are dropped.
func Parse(r io.Reader) (Corpus, error) {
	var c Corpus
	seen := map[string]struct{}{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			c.Duplicates++
			continue
		}
		seen[line] = struct{}{}
		c.Phrases = append(c.Phrases, line)
	}
	if err := scanner.Err(); err != nil {
		return Corpus{}, err
	}
	if len(c.Phrases) == 0 {
		return Corpus{}, fmt.Errorf("phrase list is empty")
	}
	return c, nil
}
