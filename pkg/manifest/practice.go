package manifest

import (
	"strings"

	"github.com/arthur-debert/devsync/pkg/types"
)

// Content returns the bytes a component installs: its file when it has one,
// otherwise the markdown rendering of a declarative practice.
func (c Component) Content(fs types.FS, root string) ([]byte, error) {
	if c.File != "" {
		return c.Source(fs, root)
	}
	if c.Kind == types.KindPractice {
		return []byte(RenderPractice(c)), nil
	}
	return nil, nil
}

// RenderPractice turns a file-less practice into a markdown document.
func RenderPractice(c Component) string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(titleCase(c.Name))
	b.WriteString("\n")

	if c.Description != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(c.Description))
		b.WriteString("\n")
	}
	if c.Intent != "" {
		b.WriteString("\n## Intent\n\n")
		b.WriteString(strings.TrimSpace(c.Intent))
		b.WriteString("\n")
	}
	writeList(&b, "Principles", c.Principles)
	writeList(&b, "Enforcement", c.EnforcementPatterns)

	if len(c.Examples) > 0 {
		b.WriteString("\n## Examples\n")
		for _, ex := range c.Examples {
			b.WriteString("\n")
			b.WriteString(strings.TrimSpace(ex))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n## ")
	b.WriteString(title)
	b.WriteString("\n\n")
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(item))
		b.WriteString("\n")
	}
}

// titleCase turns "code-style" into "Code Style".
func titleCase(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return name
	}
	return strings.Join(words, " ")
}
