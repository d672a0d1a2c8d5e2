package registry

import "fmt"

// InstallRule describes where and how a component kind is materialized for
// a tool. The set of rule shapes is closed: OneFilePerItem,
// SectionInSingleFile, ConfigEntry and DeclaredPath.
type InstallRule interface {
	// Describe returns a short human readable form for listings.
	Describe() string
	installRule()
}

// OneFilePerItem writes each component to Directory/<name><Extension>.
// An empty Extension keeps the extension of the component's source file.
type OneFilePerItem struct {
	Directory string
	Extension string
}

func (r OneFilePerItem) Describe() string {
	ext := r.Extension
	if ext == "" {
		ext = "<source ext>"
	}
	return fmt.Sprintf("%s/<name>%s", r.Directory, ext)
}

func (OneFilePerItem) installRule() {}

// SectionInSingleFile amends a shared file, carving one marked section per
// component.
type SectionInSingleFile struct {
	Path         string
	MarkerPrefix string
}

func (r SectionInSingleFile) Describe() string {
	return fmt.Sprintf("%s [section]", r.Path)
}

func (SectionInSingleFile) installRule() {}

// ConfigFormat is the document format of a ConfigEntry target.
type ConfigFormat string

const (
	FormatJSON ConfigFormat = "json"
	FormatTOML ConfigFormat = "toml"
)

// ConfigEntry merges a component as a keyed entry under Key in a structured
// config file. Used for MCP server definitions.
type ConfigEntry struct {
	Path   string
	Key    string
	Format ConfigFormat
}

func (r ConfigEntry) Describe() string {
	return fmt.Sprintf("%s [%s.<name>]", r.Path, r.Key)
}

func (ConfigEntry) installRule() {}

// DeclaredPath installs a component at the path its manifest declares.
type DeclaredPath struct{}

func (DeclaredPath) Describe() string { return "<install_path>" }

func (DeclaredPath) installRule() {}
