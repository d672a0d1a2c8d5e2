package adapter

import (
	"bytes"

	"github.com/arthur-debert/devsync/pkg/errors"
	"gopkg.in/yaml.v3"
)

// HasFrontMatter reports whether content starts with a YAML front matter
// block.
func HasFrontMatter(content []byte) bool {
	return bytes.HasPrefix(content, []byte("---\n")) || bytes.HasPrefix(content, []byte("---\r\n"))
}

// AddFrontMatter prepends fields as YAML front matter. Content that already
// carries front matter is returned unchanged.
func AddFrontMatter(content []byte, fields map[string]interface{}) ([]byte, error) {
	if len(fields) == 0 || HasFrontMatter(content) {
		return content, nil
	}
	header, err := yaml.Marshal(fields)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAdaptation, "cannot encode front matter")
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.Write(content)
	return b.Bytes(), nil
}
