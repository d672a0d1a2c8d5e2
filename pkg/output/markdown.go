package output

import (
	"github.com/charmbracelet/glamour"
)

// MarkdownStyle selects the glamour style: "auto", "dark", "light",
// "notty" or a path to a custom style.
var MarkdownStyle = "auto"

// Markdown renders markdown content. Terminals get glamour output; plain text
// prints the source unchanged and JSON wraps it with its name.
func (r *Renderer) Markdown(name, content string, width int) error {
	switch r.format {
	case FormatJSON:
		return r.json(map[string]string{"name": name, "content": content})
	case FormatTerminal:
		r.printf("%s", renderMarkdown(content, MarkdownStyle, width))
	default:
		r.printf("%s", content)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			r.printf("\n")
		}
	}
	return nil
}

func renderMarkdown(content, style string, width int) string {
	var options []glamour.TermRendererOption
	if style != "" && style != "auto" {
		options = append(options, glamour.WithStylePath(style))
	} else {
		options = append(options, glamour.WithAutoStyle())
	}
	if width > 0 {
		options = append(options, glamour.WithWordWrap(width))
	}

	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
