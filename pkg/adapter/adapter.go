// Package adapter turns a component into the bytes written for one tool.
// Rendering is a pure transform: it receives the existing destination
// content and returns the full new content, never touching the disk.
package adapter

import (
	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/manifest"
	"github.com/arthur-debert/devsync/pkg/paths"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/arthur-debert/devsync/pkg/types"
)

// Strategy names how content was produced.
type Strategy string

const (
	StrategyVerbatim    Strategy = "verbatim"
	StrategySection     Strategy = "section"
	StrategyConfigEntry Strategy = "config-entry"
	StrategyMerged      Strategy = "merged"
)

// Request carries everything Render needs.
type Request struct {
	Component   manifest.Component
	Tool        types.ToolID
	Destination paths.Destination
	// Source is the component's content (file bytes or rendered practice).
	Source []byte
	// Existing is the current destination file content, nil when absent.
	Existing []byte
	// Env holds the MCP env values, credentials included.
	Env map[string]string
}

// Rendered is the outcome of Render.
type Rendered struct {
	// Content is the complete file content to write.
	Content []byte
	// Fingerprint is what the tracker checksums: the whole file for
	// one-file destinations, the section body or the redacted entry for
	// shared ones.
	Fingerprint []byte
	Strategy    Strategy
}

// Render produces the destination content for one (component, tool) pair.
func Render(req Request) (Rendered, error) {
	switch rule := req.Destination.Rule.(type) {
	case registry.OneFilePerItem, registry.DeclaredPath:
		content := req.Source
		if isRuleFile(req.Component.Kind) {
			var err error
			content, err = AddFrontMatter(req.Source, registry.FrontMatterFor(req.Tool))
			if err != nil {
				return Rendered{}, err
			}
		}
		return Rendered{Content: content, Fingerprint: content, Strategy: StrategyVerbatim}, nil

	case registry.SectionInSingleFile:
		body := SectionBody(req.Source)
		content, err := UpsertSection(req.Existing, rule.MarkerPrefix, req.Destination.Section, body)
		if err != nil {
			return Rendered{}, err
		}
		return Rendered{Content: content, Fingerprint: []byte(body), Strategy: StrategySection}, nil

	case registry.ConfigEntry:
		if req.Component.Kind != types.KindMCPServer {
			return Rendered{}, errors.Newf(errors.ErrUnsupported,
				"config entries only hold MCP servers, got %s", req.Component.Kind)
		}
		entry := MCPEntry(req.Component, req.Env)
		content, err := UpsertEntry(req.Existing, rule.Format, rule.Key, req.Destination.Section, entry)
		if err != nil {
			return Rendered{}, err
		}
		return Rendered{Content: content, Fingerprint: EntryFingerprint(entry), Strategy: StrategyConfigEntry}, nil
	}

	return Rendered{}, errors.Newf(errors.ErrUnsupported, "unknown install rule %T", req.Destination.Rule)
}

// SectionBody is the text stored between a section's markers.
func SectionBody(source []byte) string {
	return trimTrailingNewlines(string(source))
}

func trimTrailingNewlines(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func isRuleFile(kind types.Kind) bool {
	return kind == types.KindPractice || kind == types.KindInstruction
}

// Fingerprint extracts, from current destination content, the part the
// tracker checksums for dest. ok is false when the section or entry is gone.
func Fingerprint(content []byte, dest paths.Destination) (fp []byte, ok bool, err error) {
	switch rule := dest.Rule.(type) {
	case registry.SectionInSingleFile:
		sec, found, err := FindSection(content, rule.MarkerPrefix, dest.Section)
		if err != nil || !found {
			return nil, false, err
		}
		return []byte(sec.Body), true, nil
	case registry.ConfigEntry:
		entry, found, err := GetEntry(content, rule.Format, rule.Key, dest.Section)
		if err != nil || !found {
			return nil, false, err
		}
		return EntryFingerprint(entry), true, nil
	default:
		return content, true, nil
	}
}

// Remove strips dest's region from content. For whole-file destinations it
// returns empty content. empty reports that nothing meaningful remains and
// the file can be deleted.
func Remove(content []byte, dest paths.Destination) (out []byte, found, empty bool, err error) {
	switch rule := dest.Rule.(type) {
	case registry.SectionInSingleFile:
		out, found, err = RemoveSection(content, rule.MarkerPrefix, dest.Section)
		if err != nil {
			return nil, false, false, err
		}
		return out, found, len(trimTrailingNewlines(string(out))) == 0, nil
	case registry.ConfigEntry:
		return RemoveEntry(content, rule.Format, rule.Key, dest.Section)
	default:
		return nil, true, true, nil
	}
}
