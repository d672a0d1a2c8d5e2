package adapter

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/arthur-debert/devsync/pkg/errors"
	"github.com/arthur-debert/devsync/pkg/manifest"
	"github.com/arthur-debert/devsync/pkg/registry"
	"github.com/pelletier/go-toml/v2"
)

// RedactedValue replaces credential values in tracked checksums and
// displayed entries.
const RedactedValue = "<redacted>"

func decodeDocument(existing []byte, format registry.ConfigFormat) (map[string]interface{}, error) {
	doc := make(map[string]interface{})
	if len(bytes.TrimSpace(existing)) == 0 {
		return doc, nil
	}

	switch format {
	case registry.FormatTOML:
		if err := toml.Unmarshal(existing, &doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrAdaptation, "existing TOML config is malformed")
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(existing))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrAdaptation, "existing JSON config is malformed")
		}
	}
	return doc, nil
}

func encodeDocument(doc map[string]interface{}, format registry.ConfigFormat) ([]byte, error) {
	switch format {
	case registry.FormatTOML:
		out, err := toml.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrAdaptation, "cannot encode TOML config")
		}
		return out, nil
	default:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrAdaptation, "cannot encode JSON config")
		}
		return append(out, '\n'), nil
	}
}

func entryTable(doc map[string]interface{}, key string, create bool) (map[string]interface{}, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		if !create {
			return nil, nil
		}
		table := make(map[string]interface{})
		doc[key] = table
		return table, nil
	}
	table, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.Newf(errors.ErrAdaptation, "config key %q is not an object", key).
			WithDetail("key", key)
	}
	return table, nil
}

// GetEntry returns the entry called name under key, if present.
func GetEntry(existing []byte, format registry.ConfigFormat, key, name string) (map[string]interface{}, bool, error) {
	doc, err := decodeDocument(existing, format)
	if err != nil {
		return nil, false, err
	}
	table, err := entryTable(doc, key, false)
	if err != nil || table == nil {
		return nil, false, err
	}
	entry, ok := table[name].(map[string]interface{})
	return entry, ok, nil
}

// ListEntries returns the sorted entry names under key.
func ListEntries(existing []byte, format registry.ConfigFormat, key string) ([]string, error) {
	doc, err := decodeDocument(existing, format)
	if err != nil {
		return nil, err
	}
	table, err := entryTable(doc, key, false)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// UpsertEntry sets key.name to entry, keeping every other key of the
// document.
func UpsertEntry(existing []byte, format registry.ConfigFormat, key, name string, entry map[string]interface{}) ([]byte, error) {
	doc, err := decodeDocument(existing, format)
	if err != nil {
		return nil, err
	}
	table, err := entryTable(doc, key, true)
	if err != nil {
		return nil, err
	}
	table[name] = entry
	return encodeDocument(doc, format)
}

// RemoveEntry deletes key.name. An emptied key is dropped, and empty is
// true when nothing remains in the document.
func RemoveEntry(existing []byte, format registry.ConfigFormat, key, name string) (out []byte, found, empty bool, err error) {
	doc, err := decodeDocument(existing, format)
	if err != nil {
		return nil, false, false, err
	}
	table, err := entryTable(doc, key, false)
	if err != nil {
		return nil, false, false, err
	}
	if _, ok := table[name]; !ok {
		return existing, false, false, nil
	}
	delete(table, name)
	if len(table) == 0 {
		delete(doc, key)
	}
	if len(doc) == 0 {
		return []byte{}, true, true, nil
	}
	out, err = encodeDocument(doc, format)
	return out, true, false, err
}

// MCPEntry builds the config entry of an MCP server. env holds declared
// env values plus resolved credentials.
func MCPEntry(c manifest.Component, env map[string]string) map[string]interface{} {
	entry := map[string]interface{}{
		"command": c.Command,
	}
	if len(c.Args) > 0 {
		args := make([]interface{}, len(c.Args))
		for i, a := range c.Args {
			args[i] = a
		}
		entry["args"] = args
	}
	if len(env) > 0 {
		e := make(map[string]interface{}, len(env))
		for k, v := range env {
			e[k] = v
		}
		entry["env"] = e
	}
	return entry
}

// EntryFingerprint is the canonical form of an entry used for checksums:
// JSON with sorted keys and env values redacted, so credential values never
// reach tracked state.
func EntryFingerprint(entry map[string]interface{}) []byte {
	redacted := make(map[string]interface{}, len(entry))
	for k, v := range entry {
		redacted[k] = v
	}
	if env, ok := entry["env"].(map[string]interface{}); ok {
		masked := make(map[string]interface{}, len(env))
		for k := range env {
			masked[k] = RedactedValue
		}
		redacted["env"] = masked
	}
	out, err := json.Marshal(normalize(redacted))
	if err != nil {
		return nil
	}
	return out
}

// normalize converts decoded values into the shapes MCPEntry produces so
// fingerprints match across JSON and TOML round trips.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	case map[string]string:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out
	default:
		return v
	}
}
