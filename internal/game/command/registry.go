package command

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyLine is returned by Interpret for a blank line.
var ErrEmptyLine = errors.New("empty command line")

// UnknownCommandError reports a word that names no command or alias.
type UnknownCommandError struct {
	Word string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Word)
}

// UsageError reports a command given fewer arguments than it requires.
type UsageError struct {
	Command *Command
	Got     int
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s needs %d arguments, got %d: usage %s", e.Command.Name, e.Command.MinArgs, e.Got, e.Command.Usage)
}

// Registry maps command names and aliases to Command definitions.
type Registry struct {
	commands map[string]*Command // canonical name → command
	aliases  map[string]string   // alias → canonical name
}

// NewRegistry creates a Registry populated with the given commands.
//
// Precondition: No two commands may share a canonical name or alias.
// Postcondition: Returns a Registry or an error on name/alias collisions.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}

	for i := range cmds {
		cmd := &cmds[i]
		if _, exists := r.commands[cmd.Name]; exists {
			return nil, fmt.Errorf("duplicate command name: %q", cmd.Name)
		}
		if _, exists := r.aliases[cmd.Name]; exists {
			return nil, fmt.Errorf("command name %q conflicts with an existing alias", cmd.Name)
		}
		r.commands[cmd.Name] = cmd

		for _, alias := range cmd.Aliases {
			if _, exists := r.commands[alias]; exists {
				return nil, fmt.Errorf("alias %q conflicts with command name %q", alias, alias)
			}
			if existing, exists := r.aliases[alias]; exists {
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, existing, cmd.Name)
			}
			r.aliases[alias] = cmd.Name
		}
	}

	return r, nil
}

// DefaultRegistry creates a Registry with the battle console's commands.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name or alias.
//
// Postcondition: Returns (command, true) if found, or (nil, false).
func (r *Registry) Resolve(input string) (*Command, bool) {
	if cmd, ok := r.commands[input]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[input]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Interpret parses line, resolves its command word and checks the argument
// count.
//
// Postcondition: Returns the command and parsed line, or ErrEmptyLine, an
// *UnknownCommandError, or a *UsageError.
func (r *Registry) Interpret(line string) (*Command, ParseResult, error) {
	p := Parse(line)
	if p.Command == "" {
		return nil, p, ErrEmptyLine
	}
	cmd, ok := r.Resolve(p.Command)
	if !ok {
		return nil, p, &UnknownCommandError{Word: p.Command}
	}
	if len(p.Args) < cmd.MinArgs {
		return cmd, p, &UsageError{Command: cmd, Got: len(p.Args)}
	}
	return cmd, p, nil
}

// Commands returns all registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	result := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// CommandsByCategory returns commands grouped by category, each group
// sorted by name.
func (r *Registry) CommandsByCategory() map[string][]*Command {
	categories := make(map[string][]*Command)
	for _, cmd := range r.Commands() {
		categories[cmd.Category] = append(categories[cmd.Category], cmd)
	}
	return categories
}
