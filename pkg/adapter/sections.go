package adapter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arthur-debert/devsync/pkg/errors"
)

// Section is one marked region of a shared file.
type Section struct {
	Name string
	Body string
	// Start and End delimit the whole block, markers included.
	Start, End int
}

// Markers returns the start and end marker lines for a section.
func Markers(prefix, name string) (string, string) {
	return fmt.Sprintf("<!-- %s:start:%s -->", prefix, name),
		fmt.Sprintf("<!-- %s:end:%s -->", prefix, name)
}

// FindSection locates the section called name. A start marker without its
// end marker is reported as an ADAPTATION error rather than guessed at.
func FindSection(content []byte, prefix, name string) (Section, bool, error) {
	text := string(content)
	startMarker, endMarker := Markers(prefix, name)

	start := strings.Index(text, startMarker)
	if start < 0 {
		return Section{}, false, nil
	}
	rel := strings.Index(text[start:], endMarker)
	if rel < 0 {
		return Section{}, false, errors.Newf(errors.ErrAdaptation,
			"section %q has a start marker but no end marker", name).
			WithDetail("section", name)
	}
	end := start + rel + len(endMarker)

	body := text[start+len(startMarker) : start+rel]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimSuffix(body, "\n")

	return Section{Name: name, Body: body, Start: start, End: end}, true, nil
}

var startMarkerRe = regexp.MustCompile(`<!-- ([A-Za-z0-9_.-]+):start:(.+?) -->`)

// ListSections returns the names of every section carrying prefix, in file
// order.
func ListSections(content []byte, prefix string) []string {
	var names []string
	for _, m := range startMarkerRe.FindAllStringSubmatch(string(content), -1) {
		if m[1] == prefix {
			names = append(names, m[2])
		}
	}
	return names
}

func sectionBlock(prefix, name, body string) string {
	startMarker, endMarker := Markers(prefix, name)
	return startMarker + "\n" + strings.TrimRight(body, "\n") + "\n" + endMarker
}

// UpsertSection inserts or replaces the section called name. Replacement
// touches only the byte range of that section. A new section is appended
// after a blank line when the file already has content. Bytes outside the
// affected block are preserved exactly.
func UpsertSection(existing []byte, prefix, name, body string) ([]byte, error) {
	block := sectionBlock(prefix, name, body)

	sec, found, err := FindSection(existing, prefix, name)
	if err != nil {
		return nil, err
	}
	text := string(existing)
	if found {
		return []byte(text[:sec.Start] + block + text[sec.End:]), nil
	}

	switch {
	case text == "":
	case strings.HasSuffix(text, "\n\n"):
	case strings.HasSuffix(text, "\n"):
		text += "\n"
	default:
		text += "\n\n"
	}
	return []byte(text + block + "\n"), nil
}

// RemoveSection deletes the section called name and the blank-line
// separator that UpsertSection added, so that removing a section restores
// the surrounding text. found is false when there was nothing to remove.
func RemoveSection(existing []byte, prefix, name string) (out []byte, found bool, err error) {
	sec, found, err := FindSection(existing, prefix, name)
	if err != nil || !found {
		return existing, false, err
	}

	text := string(existing)
	before := text[:sec.Start]
	after := strings.TrimPrefix(text[sec.End:], "\n")

	if after == "" {
		before = strings.TrimRight(before, "\n")
		if before == "" {
			return []byte{}, true, nil
		}
		return []byte(before + "\n"), true, nil
	}
	return []byte(collapseSeam(before, after)), true, nil
}

// collapseSeam joins two halves, reducing the newline run at the join to at
// most one blank line. A section at the top of the file takes its
// separator with it.
func collapseSeam(before, after string) string {
	trimmedBefore := strings.TrimRight(before, "\n")
	trimmedAfter := strings.TrimLeft(after, "\n")
	if trimmedBefore == "" {
		return trimmedAfter
	}
	n := (len(before) - len(trimmedBefore)) + (len(after) - len(trimmedAfter))
	if n <= 2 {
		return before + after
	}
	return trimmedBefore + "\n\n" + trimmedAfter
}
