package registry

import (
	"github.com/arthur-debert/devsync/pkg/types"
)

// DefaultMarkerPrefix is the marker namespace for single-file sections:
// <!-- devsync:start:NAME --> ... <!-- devsync:end:NAME -->.
const DefaultMarkerPrefix = "devsync"

// Capability is the registry entry of one tool.
type Capability struct {
	ID   types.ToolID
	Name string

	// Markers are project-relative paths whose presence means the tool is
	// in use in a project.
	Markers []string

	// Rules maps each supported kind to its install rule. A kind missing
	// from the map is unsupported.
	Rules map[types.Kind]InstallRule

	// FrontMatter is prepended as YAML front matter to rule files that do
	// not carry their own.
	FrontMatter map[string]interface{}
}

// Supports reports whether the tool accepts the kind.
func (c Capability) Supports(kind types.Kind) bool {
	_, ok := c.Rules[kind]
	return ok
}

// Kinds lists the supported kinds in installation order.
func (c Capability) Kinds() []types.Kind {
	var out []types.Kind
	for _, k := range types.AllKinds {
		if c.Supports(k) {
			out = append(out, k)
		}
	}
	return out
}

func rulesDir(dir, ext string) map[types.Kind]InstallRule {
	r := OneFilePerItem{Directory: dir, Extension: ext}
	return map[types.Kind]InstallRule{
		types.KindPractice:    r,
		types.KindInstruction: r,
		types.KindResource:    DeclaredPath{},
	}
}

func singleFile(path string) map[types.Kind]InstallRule {
	r := SectionInSingleFile{Path: path, MarkerPrefix: DefaultMarkerPrefix}
	return map[types.Kind]InstallRule{
		types.KindPractice:    r,
		types.KindInstruction: r,
		types.KindResource:    DeclaredPath{},
	}
}

func with(rules map[types.Kind]InstallRule, kind types.Kind, rule InstallRule) map[types.Kind]InstallRule {
	rules[kind] = rule
	return rules
}

func mcpJSON(path, key string) InstallRule {
	return ConfigEntry{Path: path, Key: key, Format: FormatJSON}
}

var builtinTools = []Capability{
	{
		ID:      types.ToolCursor,
		Name:    "Cursor",
		Markers: []string{".cursor", ".cursorrules"},
		Rules: with(rulesDir(".cursor/rules", ".mdc"),
			types.KindMCPServer, mcpJSON(".cursor/mcp.json", "mcpServers")),
		FrontMatter: map[string]interface{}{"alwaysApply": true},
	},
	{
		ID:      types.ToolClaude,
		Name:    "Claude Code",
		Markers: []string{".claude", "CLAUDE.md"},
		Rules: with(with(with(rulesDir(".claude/rules", ".md"),
			types.KindMCPServer, mcpJSON(".mcp.json", "mcpServers")),
			types.KindHook, OneFilePerItem{Directory: ".claude/hooks"}),
			types.KindCommand, OneFilePerItem{Directory: ".claude/commands", Extension: ".md"}),
	},
	{
		ID:      types.ToolWindsurf,
		Name:    "Windsurf",
		Markers: []string{".windsurf", ".windsurfrules"},
		Rules: with(rulesDir(".windsurf/rules", ".md"),
			types.KindMCPServer, mcpJSON(".windsurf/mcp_config.json", "mcpServers")),
	},
	{
		ID:          types.ToolKiro,
		Name:        "Kiro",
		Markers:     []string{".kiro"},
		Rules:       with(rulesDir(".kiro/steering", ".md"), types.KindMCPServer, mcpJSON(".kiro/settings/mcp.json", "mcpServers")),
		FrontMatter: map[string]interface{}{"inclusion": "always"},
	},
	{
		ID:      types.ToolCline,
		Name:    "Cline",
		Markers: []string{".clinerules"},
		Rules:   rulesDir(".clinerules", ".md"),
	},
	{
		ID:      types.ToolRoo,
		Name:    "Roo Code",
		Markers: []string{".roo", ".roomodes"},
		Rules: with(with(rulesDir(".roo/rules", ".md"),
			types.KindMCPServer, mcpJSON(".roo/mcp.json", "mcpServers")),
			types.KindCommand, OneFilePerItem{Directory: ".roo/commands", Extension: ".md"}),
	},
	{
		ID:      types.ToolCodex,
		Name:    "Codex CLI",
		Markers: []string{".codex", "AGENTS.md"},
		Rules: with(singleFile("AGENTS.md"),
			types.KindMCPServer, ConfigEntry{Path: ".codex/config.toml", Key: "mcp_servers", Format: FormatTOML}),
	},
	{
		ID:      types.ToolGemini,
		Name:    "Gemini CLI",
		Markers: []string{".gemini", "GEMINI.md"},
		Rules: with(singleFile("GEMINI.md"),
			types.KindMCPServer, mcpJSON(".gemini/settings.json", "mcpServers")),
	},
	{
		ID:      types.ToolAntigravity,
		Name:    "Antigravity",
		Markers: []string{".agent"},
		Rules:   rulesDir(".agent/rules", ".md"),
	},
	{
		ID:      types.ToolAmazonQ,
		Name:    "Amazon Q Developer",
		Markers: []string{".amazonq"},
		Rules:   with(rulesDir(".amazonq/rules", ".md"), types.KindMCPServer, mcpJSON(".amazonq/mcp.json", "mcpServers")),
	},
	{
		ID:      types.ToolJetBrains,
		Name:    "JetBrains AI Assistant",
		Markers: []string{".aiassistant"},
		Rules:   rulesDir(".aiassistant/rules", ".md"),
	},
	{
		ID:      types.ToolJunie,
		Name:    "Junie",
		Markers: []string{".junie"},
		Rules:   singleFile(".junie/guidelines.md"),
	},
	{
		ID:      types.ToolZed,
		Name:    "Zed",
		Markers: []string{".zed", ".rules"},
		Rules: with(singleFile(".rules"),
			types.KindMCPServer, mcpJSON(".zed/settings.json", "context_servers")),
	},
	{
		ID:      types.ToolContinue,
		Name:    "Continue",
		Markers: []string{".continue"},
		Rules:   rulesDir(".continue/rules", ".md"),
	},
	{
		ID:      types.ToolAider,
		Name:    "Aider",
		Markers: []string{".aider.conf.yml", "CONVENTIONS.md"},
		Rules:   singleFile("CONVENTIONS.md"),
	},
	{
		ID:      types.ToolTrae,
		Name:    "Trae",
		Markers: []string{".trae"},
		Rules:   rulesDir(".trae/rules", ".md"),
	},
	{
		ID:      types.ToolAugment,
		Name:    "Augment",
		Markers: []string{".augment"},
		Rules:   rulesDir(".augment/rules", ".md"),
	},
	{
		ID:      types.ToolTabnine,
		Name:    "Tabnine",
		Markers: []string{".tabnine"},
		Rules:   rulesDir(".tabnine/guidelines", ".md"),
	},
	{
		ID:      types.ToolOpenHands,
		Name:    "OpenHands",
		Markers: []string{".openhands"},
		Rules:   rulesDir(".openhands/microagents", ".md"),
	},
	{
		ID:      types.ToolAmp,
		Name:    "Amp",
		Markers: []string{".amp"},
		Rules:   singleFile("AGENTS.md"),
	},
	{
		ID:      types.ToolOpenCode,
		Name:    "OpenCode",
		Markers: []string{".opencode", "opencode.json"},
		Rules:   singleFile("AGENTS.md"),
	},
	{
		ID:      types.ToolAnteroom,
		Name:    "Anteroom",
		Markers: []string{".anteroom", "ANTEROOM.md"},
		Rules:   singleFile("ANTEROOM.md"),
	},
	{
		ID:      types.ToolCopilot,
		Name:    "GitHub Copilot",
		Markers: []string{".github/copilot-instructions.md", ".github/instructions"},
		Rules: with(rulesDir(".github/instructions", ".instructions.md"),
			types.KindMCPServer, mcpJSON(".vscode/mcp.json", "servers")),
		FrontMatter: map[string]interface{}{"applyTo": "**"},
	},
}

var capabilities = NewStore[Capability]()

func init() {
	for _, c := range builtinTools {
		MustRegister(capabilities, string(c.ID), c)
	}
}
