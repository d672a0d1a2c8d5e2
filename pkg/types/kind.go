package types

import "fmt"

// Kind identifies the type of a package component.
type Kind string

const (
	KindPractice    Kind = "practice"
	KindInstruction Kind = "instruction"
	KindMCPServer   Kind = "mcp_server"
	KindHook        Kind = "hook"
	KindCommand     Kind = "command"
	KindResource    Kind = "resource"
)

// AllKinds lists every component kind in installation order.
var AllKinds = []Kind{
	KindPractice,
	KindInstruction,
	KindMCPServer,
	KindHook,
	KindCommand,
	KindResource,
}

// Label returns the short name used in CLI filters and tables.
func (k Kind) Label() string {
	switch k {
	case KindPractice:
		return "practices"
	case KindInstruction:
		return "rules"
	case KindMCPServer:
		return "mcp"
	case KindHook:
		return "hooks"
	case KindCommand:
		return "commands"
	case KindResource:
		return "resources"
	}
	return string(k)
}

// ParseKind accepts both the canonical kind and its label.
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds {
		if s == string(k) || s == k.Label() {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown component kind %q", s)
}
