package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// styleText splits text into wrappable runes sharing one style.
func styleText(text string, style lipgloss.Style) []styledRune {
	out := make([]styledRune, 0, len(text))
	for _, r := range text {
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	return out
}

// buildChips lays out numbered suggestions. The part of each candidate that
// matches the typed word is highlighted, and lines only break between chips.
func buildChips(suggestions []string, word string) []styledRune {
	matched := len([]rune(strings.ToLower(word)))
	out := make([]styledRune, 0, len(suggestions)*8)
	for i, candidate := range suggestions {
		if i > 0 {
			out = append(out, styledRune{s: "  ", width: 2, isSpace: true})
		}
		for _, r := range fmt.Sprintf("(%d) ", i+1) {
			out = append(out, styledRune{s: chipKeyStyle.Render(string(r)), width: runewidth.RuneWidth(r)})
		}
		for j, r := range []rune(candidate) {
			style := chipStyle
			if j < matched {
				style = chipMatchStyle
			}
			out = append(out, styledRune{s: style.Render(string(r)), width: runewidth.RuneWidth(r)})
		}
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
