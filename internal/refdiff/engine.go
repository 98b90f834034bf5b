package refdiff

import (
	"fmt"
	"strings"
	"time"

	"github.com/masmgr/refscan-go/internal/git"
)

// EngineKind selects an Engine implementation.
type EngineKind string

const (
	EngineBuiltin EngineKind = "builtin"
	EngineCommand EngineKind = "command"
)

// ParseEngineKind parses an engine name. Empty means builtin.
func ParseEngineKind(s string) (EngineKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "builtin", "rename":
		return EngineBuiltin, nil
	case "command", "cmd", "exec":
		return EngineCommand, nil
	default:
		return "", fmt.Errorf("invalid engine %q (expected builtin or command)", s)
	}
}

// Options configures engine construction.
type Options struct {
	Kind        EngineKind
	Command     string
	Args        []string
	Timeout     time.Duration
	RenameScore int
	Backend     git.Backend
}

// New builds the engine described by opts.
func New(opts Options) (Engine, error) {
	switch opts.Kind {
	case EngineCommand:
		if strings.TrimSpace(opts.Command) == "" {
			return nil, fmt.Errorf("command engine requires a command")
		}
		return &CommandEngine{Command: opts.Command, Args: opts.Args, Timeout: opts.Timeout}, nil
	case EngineBuiltin, "":
		return &BuiltinEngine{RenameScore: opts.RenameScore, Backend: opts.Backend}, nil
	default:
		return nil, fmt.Errorf("unknown engine kind %q", opts.Kind)
	}
}
