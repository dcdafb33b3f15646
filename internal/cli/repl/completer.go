package repl

import (
	"slices"
	"strings"
)

// Completer provides command completion for the shell.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the given command lines, e.g.
// "net" and "net list". Shell words exit, quit and help are always known.
func NewCompleter(commands []string) *Completer {
	all := append(slices.Clone(commands), "help", "exit", "quit")
	slices.Sort(all)
	return &Completer{commands: slices.Compact(all)}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
