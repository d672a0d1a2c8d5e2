package types

import "sort"

// ToolID identifies an AI coding tool that consumes installed configuration.
type ToolID string

const (
	ToolCursor      ToolID = "cursor"
	ToolClaude      ToolID = "claude"
	ToolWindsurf    ToolID = "windsurf"
	ToolKiro        ToolID = "kiro"
	ToolCline       ToolID = "cline"
	ToolRoo         ToolID = "roo"
	ToolCodex       ToolID = "codex"
	ToolGemini      ToolID = "gemini"
	ToolAntigravity ToolID = "antigravity"
	ToolAmazonQ     ToolID = "amazonq"
	ToolJetBrains   ToolID = "jetbrains"
	ToolJunie       ToolID = "junie"
	ToolZed         ToolID = "zed"
	ToolContinue    ToolID = "continue"
	ToolAider       ToolID = "aider"
	ToolTrae        ToolID = "trae"
	ToolAugment     ToolID = "augment"
	ToolTabnine     ToolID = "tabnine"
	ToolOpenHands   ToolID = "openhands"
	ToolAmp         ToolID = "amp"
	ToolOpenCode    ToolID = "opencode"
	ToolAnteroom    ToolID = "anteroom"
	ToolCopilot     ToolID = "copilot"
)

// ParseTools converts raw names to tool IDs, sorted and de-duplicated.
// Validation against the registry happens in the registry package.
func ParseTools(names []string) []ToolID {
	seen := make(map[ToolID]bool, len(names))
	var out []ToolID
	for _, n := range names {
		id := ToolID(n)
		if n == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t ToolID) String() string { return string(t) }
