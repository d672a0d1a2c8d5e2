// Package diff computes line diffs between existing and incoming content,
// shown when a conflict needs a human decision.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type LineType string

const (
	LineContext LineType = "context"
	LineAdded   LineType = "added"
	LineRemoved LineType = "removed"
)

type Line struct {
	Type    LineType `json:"type"`
	Text    string   `json:"text"`
	OldLine int      `json:"old_line,omitempty"`
	NewLine int      `json:"new_line,omitempty"`
}

// MaxLines bounds the input size a diff is computed for.
const MaxLines = 2000

// Lines returns the line diff from before to after.
func Lines(before, after string) []Line {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []Line
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		chunk := strings.Split(d.Text, "\n")
		if len(chunk) > 0 && chunk[len(chunk)-1] == "" {
			chunk = chunk[:len(chunk)-1]
		}
		for _, text := range chunk {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, Line{Type: LineContext, Text: text, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				lines = append(lines, Line{Type: LineRemoved, Text: text, OldLine: oldLine})
				oldLine++
			case diffmatchpatch.DiffInsert:
				lines = append(lines, Line{Type: LineAdded, Text: text, NewLine: newLine})
				newLine++
			}
		}
	}
	return lines
}

// Stats counts added and removed lines.
func Stats(lines []Line) (added, removed int) {
	for _, l := range lines {
		switch l.Type {
		case LineAdded:
			added++
		case LineRemoved:
			removed++
		}
	}
	return added, removed
}

// Unified renders lines in a compact unified style, keeping context
// lines around each change. truncated is true when the input exceeded
// MaxLines and no diff was computed.
func Unified(before, after string, context int) (text string, truncated bool) {
	if lineCount(before)+lineCount(after) > MaxLines {
		return "", true
	}
	lines := Lines(before, after)

	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.Type == LineContext {
			continue
		}
		for j := i - context; j <= i+context; j++ {
			if j >= 0 && j < len(lines) {
				keep[j] = true
			}
		}
	}

	var b strings.Builder
	gap := false
	for i, l := range lines {
		if !keep[i] {
			gap = true
			continue
		}
		if gap && b.Len() > 0 {
			b.WriteString("@@\n")
		}
		gap = false
		switch l.Type {
		case LineAdded:
			b.WriteString("+ ")
		case LineRemoved:
			b.WriteString("- ")
		default:
			b.WriteString("  ")
		}
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String(), false
}

func lineCount(value string) int {
	if value == "" {
		return 0
	}
	return strings.Count(value, "\n") + 1
}
